package services

import (
	"context"
	"errors"

	"newsroom/app/forms"
	"newsroom/app/metrics"
	"newsroom/app/models"
	"newsroom/app/repositories"
	"newsroom/app/security"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// UserService handles registration and login
type UserService struct {
	users   repositories.UserRepository
	hasher  security.PasswordHasher
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewUserService creates a new UserService. m may be nil.
func NewUserService(users repositories.UserRepository, hasher security.PasswordHasher, m *metrics.Metrics, logger zerolog.Logger) *UserService {
	return &UserService{
		users:   users,
		hasher:  hasher,
		metrics: m,
		logger:  logger.With().Str("component", "users").Logger(),
	}
}

// Register creates an account from a validated form. It does not log the
// user in. A taken email yields repositories.ErrDuplicateEmail, whether it is
// seen up front or only when the store rejects the insert.
func (s *UserService) Register(ctx context.Context, form forms.RegisterForm) (*models.User, error) {
	email := models.NormalizeEmail(form.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, oops.Code("USER_DUPLICATE").With("email", email).Wrap(repositories.ErrDuplicateEmail)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}

	credential, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, oops.Code("USER_REGISTER_FAILED").With("email", email).Wrap(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: credential,
		Name:         form.Name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.AuthEvent(metrics.EventRegister)
	s.logger.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Authenticate checks the credentials of a validated login form.
func (s *UserService) Authenticate(ctx context.Context, form forms.LoginForm) (*models.User, error) {
	email := models.NormalizeEmail(form.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		s.metrics.AuthEvent(metrics.EventLoginUnknownUser)
		return nil, oops.Code("LOGIN_UNKNOWN_USER").With("email", email).Wrap(ErrUserNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(form.Password, user.PasswordHash) {
		s.metrics.AuthEvent(metrics.EventLoginBadPassword)
		return nil, oops.Code("LOGIN_BAD_PASSWORD").With("user_id", user.ID).Wrap(ErrPasswordMismatch)
	}

	s.metrics.AuthEvent(metrics.EventLoginSuccess)
	return user, nil
}
