package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/darlemlih/storefront/api/transport"
	"github.com/darlemlih/storefront/domain"
	"github.com/darlemlih/storefront/pkg/credentials"
	"github.com/darlemlih/storefront/repository"
)

// Gateway is the slice of the REST client the auth store depends on.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*transport.AuthResponse, error)
	Register(ctx context.Context, req transport.RegisterRequest) (*transport.AuthResponse, error)
	Me(ctx context.Context) (*domain.User, error)
}

// Store owns the session: the user identity, the token pair and the
// authenticated flag. Every mutating operation ends with an explicit save of
// the persistable snapshot; Loading and Error never reach storage.
type Store struct {
	mu      sync.RWMutex
	session domain.Session

	gateway Gateway
	creds   *credentials.Cache
	storage repository.SessionStorage
	logger  *zap.Logger
}

// New builds the auth store. It registers with the credential cache so a
// failed token refresh anywhere in the client resets the session here too.
func New(gateway Gateway, creds *credentials.Cache, storage repository.SessionStorage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		gateway: gateway,
		creds:   creds,
		storage: storage,
		logger:  logger,
	}
	creds.OnInvalidate(s.reset)
	return s
}

// Hydrate restores the persisted session, if any. A snapshot missing from
// storage is a normal first run, not an error.
func (s *Store) Hydrate(ctx context.Context) error {
	snap, err := s.storage.LoadSession(ctx)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.session.Restore(*snap)
	s.mu.Unlock()
	s.creds.Set(snap.AccessToken, snap.RefreshToken)

	s.logger.Info("session hydrated",
		zap.Bool("authenticated", snap.IsAuthenticated),
		zap.Bool("token_expired", s.creds.Expired(time.Now())),
	)
	return nil
}

// Login authenticates against the backend and establishes the session. On
// failure the session is left untouched apart from the error message.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)

	resp, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		s.fail("login failed", err)
		return err
	}

	s.mu.Lock()
	s.session.User = resp.User
	s.session.AccessToken = resp.AccessToken
	s.session.RefreshToken = resp.RefreshToken
	s.session.IsAuthenticated = resp.User != nil && resp.AccessToken != ""
	s.session.Loading = false
	s.session.Error = ""
	snap := s.session.Snapshot()
	s.mu.Unlock()

	s.creds.Set(resp.AccessToken, resp.RefreshToken)

	if err := s.storage.SaveSession(ctx, &snap); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
	s.logger.Info("logged in", zap.String("email", email))
	return nil
}

// Register creates the account and then logs in with the same credentials.
// Registration alone never establishes a session.
func (s *Store) Register(ctx context.Context, req transport.RegisterRequest) error {
	s.setLoading(true)

	if _, err := s.gateway.Register(ctx, req); err != nil {
		s.fail("registration failed", err)
		return err
	}
	return s.Login(ctx, req.Email, req.Password)
}

// Logout clears the in-memory session, the credential cache and the
// persisted snapshot. It never calls the backend.
func (s *Store) Logout(ctx context.Context) {
	s.reset()
	s.creds.Set("", "")
	if err := s.storage.DeleteSession(ctx); err != nil {
		s.logger.Warn("failed to delete persisted session", zap.Error(err))
	}
	s.logger.Info("logged out")
}

// FetchUser refreshes the user identity behind the current access token. It
// no-ops without a token; any failure means the session is no longer valid
// and is recovered by logging out rather than surfaced.
func (s *Store) FetchUser(ctx context.Context) {
	if s.creds.Access() == "" {
		return
	}
	s.setLoading(true)

	user, err := s.gateway.Me(ctx)
	if err != nil {
		s.logger.Warn("session no longer valid, logging out", zap.Error(err))
		s.Logout(ctx)
		return
	}

	s.mu.Lock()
	s.session.User = user
	s.session.IsAuthenticated = user != nil && s.session.AccessToken != ""
	s.session.Loading = false
	snap := s.session.Snapshot()
	s.mu.Unlock()

	if err := s.storage.SaveSession(ctx, &snap); err != nil {
		s.logger.Warn("failed to persist session", zap.Error(err))
	}
}

// ClearError clears the last failure message without other side effects.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.session.Error = ""
	s.mu.Unlock()
}

// Session returns a copy of the current session state.
func (s *Store) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// IsAuthenticated reports whether a live session exists. The credential
// cache is consulted too, so a refresh failure flips this immediately.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated && s.session.User != nil && s.creds.Access() != ""
}

// User returns the current identity, nil when logged out.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.User
}

// Err returns the last failure message, empty when none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Error
}

// Loading reports whether an auth operation is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Loading
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.session.Loading = v
	if v {
		s.session.Error = ""
	}
	s.mu.Unlock()
}

func (s *Store) fail(message string, err error) {
	s.mu.Lock()
	s.session.Loading = false
	s.session.Error = message + ": " + err.Error()
	s.mu.Unlock()
}

func (s *Store) reset() {
	s.mu.Lock()
	s.session.Reset()
	s.mu.Unlock()
}
