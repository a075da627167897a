// Package session tracks who is signed in. The token and user survive
// restarts in the local key/value store.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/todo/internal/api"
	"github.com/tgienger/todo/internal/models"
)

const (
	TokenKey = "authToken"
	UserKey  = "currentUser"

	minPasswordLen = 6
)

var (
	ErrNotAuthenticated = errors.New("Not authenticated")
	ErrUnsupported      = errors.New("Not supported by the server")
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters")
)

// Error is a failed auth request, carrying the message to show the user
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// KV is where the session is persisted
type KV interface {
	LookupSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// API is the auth half of the REST client
type API interface {
	Login(ctx context.Context, creds models.Credentials) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
}

// Session holds the signed-in user and bearer token
type Session struct {
	kv     KV
	api    API
	logger log.FieldLogger

	mu    sync.RWMutex
	user  *models.User
	token string
}

// New restores a persisted session. The user is restored only when both
// the token and the user record are present and readable.
func New(kv KV, client API, logger log.FieldLogger) (*Session, error) {
	s := &Session{kv: kv, api: client, logger: logger}

	token, hasToken, err := kv.LookupSetting(TokenKey)
	if err != nil {
		return nil, err
	}
	raw, hasUser, err := kv.LookupSetting(UserKey)
	if err != nil {
		return nil, err
	}
	if !hasToken || !hasUser || token == "" {
		return s, nil
	}

	var u models.User
	if err := sonic.UnmarshalString(raw, &u); err != nil {
		logger.WithError(err).Warn("discarding unreadable stored user")
		return s, nil
	}
	s.user = &u
	s.token = token
	return s, nil
}

// IsAuthenticated reports whether a user is signed in
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// CurrentUser returns a copy of the signed-in user, or nil
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token, or "" when signed out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RequireAuth returns ErrNotAuthenticated unless a user is signed in
func (s *Session) RequireAuth() error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// Login signs in with username and password
func (s *Session) Login(ctx context.Context, username, password string) error {
	resp, err := s.api.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		s.logger.WithError(err).WithField("username", username).Info("login failed")
		return wrap(err, "Login failed")
	}
	return s.set(resp.Token, resp.User)
}

// Register validates the form, creates the account and signs it in
func (s *Session) Register(ctx context.Context, reg models.Registration) error {
	if reg.Password != reg.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(reg.Password) < minPasswordLen {
		return ErrPasswordTooShort
	}

	resp, err := s.api.Register(ctx, api.RegisterRequest{
		Username: reg.Username,
		Name:     reg.Name,
		Password: reg.Password,
	})
	if err != nil {
		s.logger.WithError(err).WithField("username", reg.Username).Info("registration failed")
		return wrap(err, "Registration failed")
	}
	return s.set(resp.Token, resp.User)
}

// Logout tells the server to revoke the token and clears local state.
// Local state is cleared even when the request fails.
func (s *Session) Logout(ctx context.Context) error {
	if s.Token() != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.WithError(err).Warn("logout request failed")
		}
	}
	return s.clear()
}

// Refresh reloads the user from the server. Any failure signs out.
func (s *Session) Refresh(ctx context.Context) (*models.User, error) {
	if s.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	u, err := s.api.Profile(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("profile refresh failed, signing out")
		if cerr := s.clear(); cerr != nil {
			return nil, errors.Join(err, cerr)
		}
		return nil, err
	}
	if err := s.set(s.Token(), *u); err != nil {
		return nil, err
	}
	return s.CurrentUser(), nil
}

// UpdateAccount changes the display name
func (s *Session) UpdateAccount(_ context.Context, _ string) error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	return ErrUnsupported
}

// ChangePassword validates the new password before asking the server
func (s *Session) ChangePassword(_ context.Context, _, newPassword, confirm string) error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}
	return ErrUnsupported
}

// DeleteAccount removes the signed-in account
func (s *Session) DeleteAccount(_ context.Context) error {
	if err := s.RequireAuth(); err != nil {
		return err
	}
	return ErrUnsupported
}

func (s *Session) set(token string, u models.User) error {
	raw, err := sonic.MarshalString(u)
	if err != nil {
		return err
	}
	if err := s.kv.SetSetting(TokenKey, token); err != nil {
		return err
	}
	if err := s.kv.SetSetting(UserKey, raw); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	s.token = token
	return nil
}

func (s *Session) clear() error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	return errors.Join(s.kv.DeleteSetting(TokenKey), s.kv.DeleteSetting(UserKey))
}

// wrap turns an API error into one whose message is what the server said,
// or fallback when it said nothing useful
func wrap(err error, fallback string) error {
	msg := fallback
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &Error{Message: msg, Err: err}
}
