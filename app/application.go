// Package app assembles the newsroom site from its configuration.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsroom/app/config"
	"newsroom/app/controllers"
	"newsroom/app/logging"
	"newsroom/app/metrics"
	"newsroom/app/repositories"
	"newsroom/app/repositories/postgres"
	"newsroom/app/routes"
	"newsroom/app/security"
	"newsroom/app/services"
	"newsroom/app/session"
	"newsroom/app/views"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Application is a fully wired site.
type Application struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    *repositories.Store
	Metrics  *metrics.Metrics
	Sessions *session.Manager
	Router   *mux.Router
}

// New opens the store named by cfg.DatabaseURL and builds the router on it.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(cfg.SecretKey, store.Users, store.Revocations, logger, session.Options{
		TTL:          cfg.Session.TTL,
		SecureCookie: cfg.Session.SecureCookie,
	})
	if err != nil {
		_ = store.Close()
		return nil, oops.Code("SESSION_SETUP_FAILED").Wrap(err)
	}

	renderer, err := views.NewTemplateRenderer()
	if err != nil {
		_ = store.Close()
		return nil, oops.Code("TEMPLATES_INVALID").Wrap(err)
	}

	m := metrics.New()
	hasher := security.NewPBKDF2Hasher(cfg.Hash.Iterations, cfg.Hash.SaltLength)
	users := services.NewUserService(store.Users, hasher, m, logger)
	posts := services.NewPostService(store.Posts, store.Comments, store.Users, logger)
	comments := services.NewCommentService(store.Comments, store.Posts, logger)
	rs := controllers.NewResponder(renderer, logger)

	router := routes.Setup(routes.Handlers{
		Auth:     controllers.NewAuthController(rs, users, sessions, m),
		Posts:    controllers.NewPostController(rs, posts, comments),
		Pages:    controllers.NewPageController(rs),
		Sessions: sessions,
		Metrics:  m,
		Logger:   logger,
	})

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Metrics:  m,
		Sessions: sessions,
		Router:   router,
	}, nil
}

// Run serves HTTP on ln until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func (a *Application) Run(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", ln.Addr().String()).Msg("newsroom listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("SERVE_FAILED").Wrap(err)
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.Code("SERVE_FAILED").Wrap(err)
	}
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.Store.Close()
}

// OpenStore opens the backend named by databaseURL:
//
//	memory://               in-memory badger, lost on exit
//	badger:///var/lib/news  badger in the given directory
//	/var/lib/news           same as above
//	postgres://...          PostgreSQL; pending migrations are applied first
func OpenStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (*repositories.Store, error) {
	kind, location, err := ParseStoreURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case StoreMemory, StoreBadger:
		db, err := repositories.OpenBadger(location, badgerLogger(logger))
		if err != nil {
			return nil, oops.Code("DB_OPEN_FAILED").With("path", location).Wrap(err)
		}
		logger.Info().Str("store", kind).Str("path", location).Msg("store opened")
		return repositories.NewBadgerStore(db), nil
	default:
		return openPostgres(ctx, location, logger)
	}
}

func openPostgres(ctx context.Context, databaseURL string, logger zerolog.Logger) (*repositories.Store, error) {
	m, err := postgres.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	upErr := m.Up()
	closeErr := m.Close()
	if upErr != nil {
		return nil, upErr
	}
	if closeErr != nil {
		logging.Err(logger.Warn(), closeErr).Msg("close migrator")
	}

	pool, err := postgres.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	purged, err := postgres.NewRevocationRepository(pool).PurgeExpired(ctx)
	if err != nil {
		logging.Err(logger.Warn(), err).Msg("purge expired sessions")
	} else if purged > 0 {
		logger.Info().Int64("purged", purged).Msg("expired sessions purged")
	}

	logger.Info().Str("store", StorePostgres).Msg("store opened")
	return postgres.NewStore(pool), nil
}

// Store kinds reported by ParseStoreURL.
const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

// ParseStoreURL splits a database URL into a store kind and the location
// that backend understands. The memory location is the empty string.
func ParseStoreURL(databaseURL string) (kind, location string, err error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return "", "", oops.Code("STORE_URL_INVALID").Wrap(config.ErrMissingSetting)
	}
	if !strings.Contains(databaseURL, "://") {
		return StoreBadger, databaseURL, nil
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", "", oops.Code("STORE_URL_INVALID").Wrap(err)
	}
	switch u.Scheme {
	case "memory":
		return StoreMemory, "", nil
	case "badger":
		path := u.Host + u.Path
		if path == "" {
			return "", "", oops.Code("STORE_URL_INVALID").With("url", databaseURL).
				Errorf("badger url needs a directory")
		}
		return StoreBadger, path, nil
	case "postgres", "postgresql":
		return StorePostgres, databaseURL, nil
	default:
		return "", "", oops.Code("STORE_URL_INVALID").With("scheme", u.Scheme).
			Errorf("unsupported store scheme %q", u.Scheme)
	}
}

func badgerLogger(logger zerolog.Logger) badger.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		return nil
	}
	return logging.NewBadgerLogger(logger)
}
