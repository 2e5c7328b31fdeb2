package controllers

import (
	"errors"
	"net/http"

	"newsroom/app/flash"
	"newsroom/app/forms"
	"newsroom/app/logging"
	"newsroom/app/metrics"
	"newsroom/app/repositories"
	"newsroom/app/services"
	"newsroom/app/session"
	"newsroom/app/views"
)

// Messages shown to the user by the auth pages.
const (
	MsgAlreadyRegistered = "User already registered. please Login."
	MsgUserNotFound      = "User Not Found, Please Register First."
	MsgPasswordMismatch  = "Password did not match! Please try again."
)

// AuthController handles registration, login and logout
type AuthController struct {
	*Responder
	users    *services.UserService
	sessions *session.Manager
	metrics  *metrics.Metrics
}

// NewAuthController creates a new AuthController. m may be nil.
func NewAuthController(rs *Responder, users *services.UserService, sessions *session.Manager, m *metrics.Metrics) *AuthController {
	return &AuthController{Responder: rs, users: users, sessions: sessions, metrics: m}
}

// RegisterPage displays the registration form
func (ac *AuthController) RegisterPage(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, http.StatusOK, views.PageRegister, views.Page{Title: "Register"})
}

// Register creates an account and sends the visitor home, without logging them in.
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ac.sendError(w, r, http.StatusBadRequest)
		return
	}
	form := forms.NewRegisterForm(r.PostForm)
	if errs := form.Validate(); errs != nil {
		form.Password = ""
		ac.render(w, r, http.StatusOK, views.PageRegister, views.Page{Title: "Register", Form: form, Errors: errs})
		return
	}

	_, err := ac.users.Register(r.Context(), form)
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		flash.Add(w, r, MsgAlreadyRegistered)
		ac.redirect(w, r, "/login")
		return
	}
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	ac.redirect(w, r, "/")
}

// LoginPage displays the login form
func (ac *AuthController) LoginPage(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, http.StatusOK, views.PageLogin, views.Page{Title: "Log In"})
}

// Login starts a session for valid credentials
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ac.sendError(w, r, http.StatusBadRequest)
		return
	}
	form := forms.NewLoginForm(r.PostForm)
	if errs := form.Validate(); errs != nil {
		form.Password = ""
		ac.render(w, r, http.StatusOK, views.PageLogin, views.Page{Title: "Log In", Form: form, Errors: errs})
		return
	}

	user, err := ac.users.Authenticate(r.Context(), form)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		flash.Add(w, r, MsgUserNotFound)
		ac.redirect(w, r, "/login")
		return
	case errors.Is(err, services.ErrPasswordMismatch):
		form.Password = ""
		ac.render(w, r, http.StatusOK, views.PageLogin, views.Page{
			Title:   "Log In",
			Form:    form,
			Flashes: []string{MsgPasswordMismatch},
		})
		return
	case err != nil:
		ac.fail(w, r, err)
		return
	}

	if err := ac.sessions.Login(w, r, user.ID); err != nil {
		ac.fail(w, r, err)
		return
	}
	ac.redirect(w, r, "/")
}

// Logout ends the session and sends the visitor home
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := ac.sessions.Logout(w, r); err != nil {
		logging.Err(ac.logger.Warn(), err).Msg("logout could not revoke session")
	}
	if session.FromContext(r.Context()).IsAuthenticated() {
		ac.metrics.AuthEvent(metrics.EventLogout)
	}
	ac.redirect(w, r, "/")
}
