package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/storage"
)

// AuthAPI is the part of the API client the auth store needs.
type AuthAPI interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.Response, error)
	Register(ctx context.Context, data auth.Registration) (*auth.Response, error)
}

// AuthState is a snapshot of the session.
type AuthState struct {
	Token           string
	User            *auth.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// AuthStore owns the current session and keeps it in sync with durable
// storage.
type AuthStore struct {
	api       AuthAPI
	kv        storage.KeyValue
	logger    *slog.Logger
	mu        sync.RWMutex
	state     AuthState
	listeners listenerSet[AuthState]
}

// NewAuthStore hydrates the session from kv. A user value that cannot be
// decoded is dropped; the token alone still counts as authenticated.
func NewAuthStore(api AuthAPI, kv storage.KeyValue, logger *slog.Logger) *AuthStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthStore{api: api, kv: kv, logger: logger}

	sess, err := storage.LoadSession(kv)
	if err != nil {
		logger.Warn("ignoring unreadable stored session data", "error", err)
	}
	s.state = AuthState{
		Token:           sess.Token,
		User:            sess.User,
		IsAuthenticated: sess.Token != "",
	}
	return s
}

// State returns a copy of the current session state.
func (s *AuthStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Subscribe registers fn to receive every new state. The returned func
// removes it.
func (s *AuthStore) Subscribe(fn func(AuthState)) func() {
	return s.listeners.add(fn)
}

func (s *AuthStore) update(fn func(*AuthState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.listeners.notify(s.State())
}

// Login authenticates and persists the session. On failure the previous
// token and user are left as they were.
func (s *AuthStore) Login(ctx context.Context, creds auth.Credentials) error {
	return s.authenticate(ctx, "Login failed", func(ctx context.Context) (*auth.Response, error) {
		return s.api.Login(ctx, creds)
	})
}

// Register creates an account and persists the resulting session.
func (s *AuthStore) Register(ctx context.Context, data auth.Registration) error {
	return s.authenticate(ctx, "Registration failed", func(ctx context.Context) (*auth.Response, error) {
		return s.api.Register(ctx, data)
	})
}

func (s *AuthStore) authenticate(ctx context.Context, fallback string, fn func(context.Context) (*auth.Response, error)) error {
	s.update(func(st *AuthState) {
		st.IsLoading = true
		st.Error = ""
	})

	resp, err := fn(ctx)
	if err == nil && resp == nil {
		err = errEmptyResponse
	}
	if err == nil {
		err = storage.SaveSession(s.kv, *resp)
	}
	if err != nil {
		msg := ErrorMessage(err, fallback)
		s.logger.Debug("authentication failed", "error", err)
		s.update(func(st *AuthState) {
			st.IsLoading = false
			st.Error = msg
		})
		return err
	}

	user := resp.User()
	s.logger.Info("authenticated", "user_id", user.UserID, "username", user.Username)
	s.update(func(st *AuthState) {
		st.Token = resp.Token
		st.User = &user
		st.IsAuthenticated = true
		st.IsLoading = false
	})
	return nil
}

// Logout forgets the session locally. No request is made.
func (s *AuthStore) Logout() error {
	err := storage.ClearSession(s.kv)
	if err != nil {
		s.logger.Warn("failed to clear stored session", "error", err)
	}
	s.reset()
	return err
}

// Expire resets the in-memory session after the server rejected the token.
// The API client has already cleared durable storage.
func (s *AuthStore) Expire() {
	s.logger.Info("session expired")
	s.reset()
}

func (s *AuthStore) reset() {
	s.update(func(st *AuthState) {
		*st = AuthState{}
	})
}

// Reload re-reads the stored session so a login or logout made by another
// process is picked up. Nothing happens when the token is unchanged.
func (s *AuthStore) Reload() {
	sess, err := storage.LoadSession(s.kv)
	if err != nil {
		s.logger.Warn("ignoring unreadable stored session data", "error", err)
	}
	if s.State().Token == sess.Token {
		return
	}
	s.logger.Info("stored session changed", "authenticated", sess.Token != "")
	s.update(func(st *AuthState) {
		*st = AuthState{
			Token:           sess.Token,
			User:            sess.User,
			IsAuthenticated: sess.Token != "",
		}
	})
}

// ClearError drops the last recorded error message.
func (s *AuthStore) ClearError() {
	s.update(func(st *AuthState) { st.Error = "" })
}
