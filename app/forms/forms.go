// Package forms decodes and validates the HTML forms of the site.
package forms

import (
	"errors"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
}

// FieldErrors maps form field names to human readable messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fe[field])
	}
	return strings.Join(msgs, "; ")
}

// check validates form and returns nil when it is valid.
func check(form interface{}) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fe.Translate(trans)
		}
	}
	return out
}

func field(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

type RegisterForm struct {
	Email    string `form:"email" validate:"required,email,max=50"`
	Password string `form:"password" validate:"required"`
	Name     string `form:"name" validate:"required,max=150"`
}

func NewRegisterForm(values url.Values) RegisterForm {
	return RegisterForm{
		Email:    field(values, "email"),
		Password: values.Get("password"),
		Name:     field(values, "name"),
	}
}

func (f RegisterForm) Validate() FieldErrors { return check(f) }

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func NewLoginForm(values url.Values) LoginForm {
	return LoginForm{
		Email:    field(values, "email"),
		Password: values.Get("password"),
	}
}

func (f LoginForm) Validate() FieldErrors { return check(f) }

// WriteNewsForm is the admin's new post form. Body is stored as submitted.
type WriteNewsForm struct {
	Title    string `form:"title" validate:"required,max=200"`
	Subtitle string `form:"subtitle" validate:"required,max=150"`
	ImgURL   string `form:"img_url" validate:"required,url,max=500"`
	Body     string `form:"body" validate:"required"`
}

func NewWriteNewsForm(values url.Values) WriteNewsForm {
	return WriteNewsForm{
		Title:    field(values, "title"),
		Subtitle: field(values, "subtitle"),
		ImgURL:   field(values, "img_url"),
		Body:     values.Get("body"),
	}
}

func (f WriteNewsForm) Validate() FieldErrors {
	errs := check(f)
	if strings.TrimSpace(f.Body) == "" {
		if errs == nil {
			errs = FieldErrors{}
		}
		errs["body"] = "body is a required field"
	}
	return errs
}

type CommentForm struct {
	Text string `form:"comment_text" validate:"required"`
}

func NewCommentForm(values url.Values) CommentForm {
	return CommentForm{Text: field(values, "comment_text")}
}

func (f CommentForm) Validate() FieldErrors { return check(f) }
