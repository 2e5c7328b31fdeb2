package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"newsroom/app/flash"
	"newsroom/app/forms"
	"newsroom/app/repositories"
	"newsroom/app/services"
	"newsroom/app/session"
	"newsroom/app/views"
)

// Messages shown by the post pages.
const (
	MsgLoginToComment   = "Sorry, You need to login/register to comment."
	MsgDuplicateTitle   = "A post with this title already exists."
	MsgDuplicateContent = "A post with this content already exists."
)

// PostController handles HTTP requests for news posts and their comments
type PostController struct {
	*Responder
	posts    *services.PostService
	comments *services.CommentService
}

// NewPostController creates a new PostController
func NewPostController(rs *Responder, posts *services.PostService, comments *services.CommentService) *PostController {
	return &PostController{Responder: rs, posts: posts, comments: comments}
}

// Index lists every post
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListPosts(r.Context())
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, views.PageIndex, views.Page{Data: posts})
}

// Show displays a post with its comments. Anyone may read it.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	pc.showPost(w, r, forms.CommentForm{}, nil)
}

func (pc *PostController) showPost(w http.ResponseWriter, r *http.Request, form forms.CommentForm, errs forms.FieldErrors) {
	id, err := pathID(r)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	detail, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, views.PagePost, views.Page{
		Title:  detail.Post.Title,
		Data:   detail,
		Form:   form,
		Errors: errs,
	})
}

// Comment adds a comment to the post. The form is checked first; a valid
// comment from an anonymous visitor is never stored.
func (pc *PostController) Comment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		pc.sendError(w, r, http.StatusBadRequest)
		return
	}
	form := forms.NewCommentForm(r.PostForm)
	if errs := form.Validate(); errs != nil {
		pc.showPost(w, r, form, errs)
		return
	}

	actor := session.FromContext(r.Context()).User
	if actor == nil {
		flash.Add(w, r, MsgLoginToComment)
		pc.redirect(w, r, "/login")
		return
	}

	if _, err := pc.comments.AddComment(r.Context(), actor, id, form); err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.redirect(w, r, "/post/"+strconv.Itoa(id))
}

// New displays the write-news form
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, views.PageWriteNews, views.Page{Title: "Write News"})
}

// Create publishes a post from the write-news form
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		pc.sendError(w, r, http.StatusBadRequest)
		return
	}
	form := forms.NewWriteNewsForm(r.PostForm)
	if errs := form.Validate(); errs != nil {
		pc.render(w, r, http.StatusOK, views.PageWriteNews, views.Page{Title: "Write News", Form: form, Errors: errs})
		return
	}

	_, err := pc.posts.CreatePost(r.Context(), session.FromContext(r.Context()).User, form)
	var message string
	switch {
	case errors.Is(err, repositories.ErrDuplicateTitle):
		message = MsgDuplicateTitle
	case errors.Is(err, repositories.ErrDuplicateContent):
		message = MsgDuplicateContent
	case err != nil:
		pc.fail(w, r, err)
		return
	default:
		pc.redirect(w, r, "/")
		return
	}
	pc.render(w, r, http.StatusOK, views.PageWriteNews, views.Page{
		Title:  "Write News",
		Form:   form,
		Errors: forms.FieldErrors{"": message},
	})
}

// Delete removes a post and its comments
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if err := pc.posts.DeletePost(r.Context(), session.FromContext(r.Context()).User, id); err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.redirect(w, r, "/")
}

// APIIndex returns every post as JSON
func (pc *PostController) APIIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListPosts(r.Context())
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// APIShow returns a post with its author and comments as JSON
func (pc *PostController) APIShow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	detail, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	type comment struct {
		ID     int    `json:"id"`
		Text   string `json:"text"`
		Author string `json:"author"`
	}
	comments := make([]comment, 0, len(detail.Comments))
	for _, c := range detail.Comments {
		comments = append(comments, comment{ID: c.Comment.ID, Text: c.Comment.Text, Author: c.Author.Name})
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{
		"post":     detail.Post,
		"author":   detail.Author.Name,
		"comments": comments,
	})
}
