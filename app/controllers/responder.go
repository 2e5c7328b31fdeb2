package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"newsroom/app/flash"
	"newsroom/app/guard"
	"newsroom/app/logging"
	"newsroom/app/repositories"
	"newsroom/app/session"
	"newsroom/app/views"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Responder writes pages, JSON and error responses for every controller.
type Responder struct {
	renderer views.Renderer
	logger   zerolog.Logger
}

// NewResponder creates a new Responder
func NewResponder(renderer views.Renderer, logger zerolog.Logger) *Responder {
	return &Responder{renderer: renderer, logger: logger}
}

// render fills in the current user and pending flashes, then renders page.
func (rs *Responder) render(w http.ResponseWriter, r *http.Request, status int, page string, data views.Page) {
	id := session.FromContext(r.Context())
	data.CurrentUser = id.User
	data.IsAdmin = id.IsAdmin()
	data.Flashes = append(flash.Pop(w, r), data.Flashes...)

	if err := rs.renderer.Render(w, status, page, data); err != nil {
		logging.Err(rs.logger.Error(), err).Str("page", page).Msg("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// redirect sends a 303 so that a POST is followed by a GET.
func (rs *Responder) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (rs *Responder) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Warn().Err(err).Msg("write json response")
	}
}

func (rs *Responder) sendError(w http.ResponseWriter, r *http.Request, status int) {
	message := http.StatusText(status)
	if isAPI(r) {
		rs.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	rs.render(w, r, status, views.PageError, views.Page{Title: message})
}

// fail translates a service error into a response. Internal details are
// logged, never shown.
func (rs *Responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, guard.ErrUnauthorized):
		rs.redirect(w, r, guard.LoginPath)
	case errors.Is(err, guard.ErrForbidden):
		rs.sendError(w, r, http.StatusForbidden)
	case errors.Is(err, repositories.ErrNotFound):
		rs.sendError(w, r, http.StatusNotFound)
	default:
		logging.Err(rs.logger.Error(), err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		rs.sendError(w, r, http.StatusInternalServerError)
	}
}

// NotFound answers unknown routes.
func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.sendError(w, r, http.StatusNotFound)
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") || r.Header.Get("Accept") == "application/json"
}

// pathID reads the numeric {id} route variable. Unparsable ids are reported
// as repositories.ErrNotFound.
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, repositories.ErrNotFound
	}
	return id, nil
}
