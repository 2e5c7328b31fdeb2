// Package routes maps URLs to controllers and wraps them in middleware.
package routes

import (
	"net/http"

	"newsroom/app/controllers"
	"newsroom/app/guard"
	"newsroom/app/metrics"
	"newsroom/app/middleware"
	"newsroom/app/session"
	"newsroom/app/views"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers is everything the router dispatches to.
type Handlers struct {
	Auth     *controllers.AuthController
	Posts    *controllers.PostController
	Pages    *controllers.PageController
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Setup defines the site's routes and returns a router.
func Setup(h Handlers) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Recoverer(h.Logger))
	router.Use(middleware.Logger(h.Logger))
	router.Use(middleware.Metrics(h.Metrics))
	router.Use(h.Sessions.Middleware)

	// Router middleware does not run for unmatched requests.
	router.NotFoundHandler = h.Sessions.Middleware(http.HandlerFunc(h.Posts.NotFound))

	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", views.Static()))
	router.Handle("/metrics", h.Metrics.Handler()).Methods(http.MethodGet)

	// Pages anyone can read
	router.HandleFunc("/", h.Posts.Index).Methods(http.MethodGet)
	router.HandleFunc("/about", h.Pages.About).Methods(http.MethodGet)
	router.HandleFunc("/contact", h.Pages.Contact).Methods(http.MethodGet)
	router.HandleFunc("/post/{id:[0-9]+}", h.Posts.Show).Methods(http.MethodGet)
	router.HandleFunc("/post/{id:[0-9]+}", h.Posts.Comment).Methods(http.MethodPost)

	// Accounts
	router.HandleFunc("/register", h.Auth.RegisterPage).Methods(http.MethodGet)
	router.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", h.Auth.LoginPage).Methods(http.MethodGet)
	router.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodGet, http.MethodPost)

	// Admin only
	router.Handle("/write-news", guard.AdminOnly(http.HandlerFunc(h.Posts.New))).Methods(http.MethodGet)
	router.Handle("/write-news", guard.AdminOnly(http.HandlerFunc(h.Posts.Create))).Methods(http.MethodPost)
	router.Handle("/delete/{id:[0-9]+}",
		guard.Chain(http.HandlerFunc(h.Posts.Delete), guard.LoginRequired, guard.AdminOnly),
	).Methods(http.MethodPost)

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.HandleFunc("/posts", h.Posts.APIIndex).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}", h.Posts.APIShow).Methods(http.MethodGet)

	return router
}
