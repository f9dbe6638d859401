package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/darlemlih/storefront/domain"
	"github.com/darlemlih/storefront/repository"
)

// Cache holds the transient in-memory copy of the bearer credentials shared
// by the HTTP client and the auth store. Rotations and invalidations are
// written through to the session storage so persisted state never lags the
// tokens actually in use.
type Cache struct {
	mu      sync.RWMutex
	access  string
	refresh string

	storage   repository.SessionStorage
	logger    *zap.Logger
	listeners []func()
}

// NewCache builds a credential cache writing through to storage. A nil
// storage keeps the cache memory-only, which the tests rely on.
func NewCache(storage repository.SessionStorage, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		storage: storage,
		logger:  logger,
	}
}

// Access returns the current access token, empty when logged out.
func (c *Cache) Access() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access
}

// RefreshToken returns the current refresh token.
func (c *Cache) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

// Set replaces both tokens in memory without touching storage. The auth
// store uses it when it persists the full snapshot itself.
func (c *Cache) Set(access, refresh string) {
	c.mu.Lock()
	c.access = access
	c.refresh = refresh
	c.mu.Unlock()
}

// Rotate installs a refreshed access token and, when the backend rotated it,
// the new refresh token. The persisted snapshot is updated in place so a
// restart resumes with the rotated pair.
func (c *Cache) Rotate(ctx context.Context, access, refresh string) error {
	c.mu.Lock()
	c.access = access
	if refresh != "" {
		c.refresh = refresh
	}
	refresh = c.refresh
	c.mu.Unlock()

	if c.storage == nil {
		return nil
	}
	snap, err := c.storage.LoadSession(ctx)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			snap = &domain.SessionSnapshot{}
		} else {
			return err
		}
	}
	snap.AccessToken = access
	snap.RefreshToken = refresh
	return c.storage.SaveSession(ctx, snap)
}

// Invalidate drops both tokens, deletes the persisted session and notifies
// listeners. Called when a refresh attempt fails for good.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.access = ""
	c.refresh = ""
	listeners := c.listeners
	c.mu.Unlock()

	if c.storage != nil {
		if err := c.storage.DeleteSession(ctx); err != nil {
			c.logger.Warn("failed to delete persisted session", zap.Error(err))
		}
	}
	for _, fn := range listeners {
		fn()
	}
}

// OnInvalidate registers a callback fired after credentials are invalidated.
// The auth store uses it to reset its in-memory session.
func (c *Cache) OnInvalidate(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// ExpiresAt reports the access token expiry from its unverified claims. The
// client never validates signatures, it only needs the timestamp the backend
// stamped into the token.
func (c *Cache) ExpiresAt() (time.Time, bool) {
	c.mu.RLock()
	token := c.access
	c.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the access token is known to be past its expiry.
// Tokens without a readable exp claim are assumed live; the 401 path covers
// them.
func (c *Cache) Expired(reference time.Time) bool {
	exp, ok := c.ExpiresAt()
	if !ok {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !exp.After(reference)
}
