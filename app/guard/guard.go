// Package guard holds the authorization policy: who may do what.
package guard

import (
	"errors"
	"net/http"

	"newsroom/app/flash"
	"newsroom/app/models"
	"newsroom/app/session"
)

var (
	// ErrUnauthorized means the action needs a logged-in user.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the user is known but lacks the privilege.
	ErrForbidden = errors.New("forbidden")
)

// LoginPath is where LoginRequired sends anonymous visitors.
const LoginPath = "/login"

// LoginRequiredMessage is flashed by LoginRequired before redirecting.
const LoginRequiredMessage = "Please log in to access this page."

// IsAdmin reports whether user may create and delete posts.
func IsAdmin(user *models.User) bool {
	return user.IsAdmin()
}

// RequireAuthenticated returns ErrUnauthorized for the anonymous (nil) user.
func RequireAuthenticated(user *models.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	return nil
}

// RequireAdmin returns ErrForbidden unless user is the admin. Anonymous
// visitors are forbidden too.
func RequireAdmin(user *models.User) error {
	if !IsAdmin(user) {
		return ErrForbidden
	}
	return nil
}

// LoginRequired redirects anonymous requests to the login page.
func LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireAuthenticated(session.FromContext(r.Context()).User); err != nil {
			flash.Add(w, r, LoginRequiredMessage)
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly answers 403 to everyone but the admin.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireAdmin(session.FromContext(r.Context()).User); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chain wraps h so that guards run in the order given.
func Chain(h http.Handler, guards ...func(http.Handler) http.Handler) http.Handler {
	for i := len(guards) - 1; i >= 0; i-- {
		h = guards[i](h)
	}
	return h
}
