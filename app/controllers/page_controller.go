package controllers

import (
	"net/http"

	"newsroom/app/views"
)

// PageController serves the static pages
type PageController struct {
	*Responder
}

func NewPageController(rs *Responder) *PageController {
	return &PageController{Responder: rs}
}

func (pc *PageController) About(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, views.PageAbout, views.Page{Title: "About"})
}

func (pc *PageController) Contact(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, views.PageContact, views.Page{Title: "Contact"})
}
