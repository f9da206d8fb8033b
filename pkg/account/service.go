// Package account simulates the storefront's login and registration flows:
// form validation, promotional benefit rules, and a per-profile session
// record. There is no backend; the artificial delay stands in for the network
// round trip the UI expects.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"milsabores/pkg/storage"
)

// ErrNoSession is returned when no user record is stored for this profile.
var ErrNoSession = errors.New("no active session")

// Delays configures the artificial wait of each flow. Zero values skip the
// wait entirely, which is what tests use.
type Delays struct {
	Login    time.Duration
	Register time.Duration
}

// DefaultDelays reproduce the pacing of the original simulated API.
var DefaultDelays = Delays{
	Login:    1 * time.Second,
	Register: 1500 * time.Millisecond,
}

// Service runs the simulated auth flows and owns the persisted session
// record.
type Service struct {
	store  storage.Store
	logger *zap.Logger
	delays Delays
}

// NewService wires the storage port and delay configuration.
func NewService(store storage.Store, logger *zap.Logger, delays Delays) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, delays: delays}
}

// Login validates the form, waits the simulated round trip, and persists the
// session user. Credentials are accepted as-is; there is nothing to verify
// them against.
func (s *Service) Login(ctx context.Context, form LoginForm) (User, error) {
	if errs := ValidateLoginForm(form); len(errs) > 0 {
		return User{}, &ValidationError{Fields: errs}
	}

	if err := wait(ctx, s.delays.Login); err != nil {
		return User{}, err
	}

	user := User{
		ID:            uuid.NewString(),
		Email:         form.Email,
		FirstName:     "Usuario",
		LastName:      "Demo",
		LoggedInAt:    time.Now().UTC(),
		Authenticated: true,
	}
	if err := s.saveSession(ctx, user); err != nil {
		// The in-memory session still stands; the write failure is non-fatal.
		s.logger.Warn("unable to persist session user", zap.Error(err))
	}
	s.logger.Info("login simulated", zap.String("email", user.Email))
	return user, nil
}

// Register validates the form, evaluates the benefit rules, and waits the
// simulated round trip. The new user is returned unauthenticated; logging in
// is a separate step.
func (s *Service) Register(ctx context.Context, form RegisterForm) (User, error) {
	validation := ValidateRegisterForm(form)
	if !validation.Valid() {
		return User{}, &ValidationError{Fields: validation.Errors}
	}

	if err := wait(ctx, s.delays.Register); err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		BirthDate:    form.BirthDate,
		Benefits:     validation.Benefits,
		RegisteredAt: time.Now().UTC(),
	}
	s.logger.Info("registration simulated",
		zap.String("email", user.Email),
		zap.Int("benefits", len(user.Benefits)))
	return user, nil
}

// CurrentUser loads the persisted session record. A malformed stored value is
// discarded and treated as absent.
func (s *Service) CurrentUser(ctx context.Context) (User, error) {
	raw, err := s.store.Load(ctx, UserStorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrNoSession
		}
		return User{}, err
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.logger.Warn("stored session user is malformed, discarding", zap.Error(err))
		return User{}, ErrNoSession
	}
	return user, nil
}

// Logout drops the persisted session record.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Delete(ctx, UserStorageKey)
}

// saveSession persists the session user under the fixed key.
func (s *Service) saveSession(ctx context.Context, user User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, UserStorageKey, payload)
}

// wait is the single suspension point of each simulated flow. It accepts a
// context so a real backend can slot in without changing the contract.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
