package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darlemlih/storefront/domain"
)

type memStorage struct {
	session     *domain.SessionSnapshot
	deleteCalls int
}

func (m *memStorage) LoadSession(context.Context) (*domain.SessionSnapshot, error) {
	if m.session == nil {
		return nil, domain.ErrSessionNotFound
	}
	snap := *m.session
	return &snap, nil
}

func (m *memStorage) SaveSession(_ context.Context, snap *domain.SessionSnapshot) error {
	copied := *snap
	m.session = &copied
	return nil
}

func (m *memStorage) DeleteSession(context.Context) error {
	m.deleteCalls++
	m.session = nil
	return nil
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "aicha@example.com",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRotateKeepsRefreshWhenNotRotated(t *testing.T) {
	cache := NewCache(nil, nil)
	cache.Set("old-access", "old-refresh")

	require.NoError(t, cache.Rotate(context.Background(), "new-access", ""))

	assert.Equal(t, "new-access", cache.Access())
	assert.Equal(t, "old-refresh", cache.RefreshToken())

	require.NoError(t, cache.Rotate(context.Background(), "newer-access", "new-refresh"))
	assert.Equal(t, "new-refresh", cache.RefreshToken())
}

func TestRotateWritesThroughToStorage(t *testing.T) {
	st := &memStorage{session: &domain.SessionSnapshot{
		User:            &domain.User{ID: 1, Email: "aicha@example.com"},
		AccessToken:     "old-access",
		RefreshToken:    "old-refresh",
		IsAuthenticated: true,
	}}
	cache := NewCache(st, nil)
	cache.Set("old-access", "old-refresh")

	require.NoError(t, cache.Rotate(context.Background(), "new-access", "new-refresh"))

	require.NotNil(t, st.session)
	assert.Equal(t, "new-access", st.session.AccessToken)
	assert.Equal(t, "new-refresh", st.session.RefreshToken)
	assert.Equal(t, "aicha@example.com", st.session.User.Email, "user survives token rotation")
}

func TestInvalidateClearsAndNotifies(t *testing.T) {
	st := &memStorage{session: &domain.SessionSnapshot{AccessToken: "access"}}
	cache := NewCache(st, nil)
	cache.Set("access", "refresh")

	var notified bool
	cache.OnInvalidate(func() { notified = true })

	cache.Invalidate(context.Background())

	assert.Empty(t, cache.Access())
	assert.Empty(t, cache.RefreshToken())
	assert.Nil(t, st.session)
	assert.Equal(t, 1, st.deleteCalls)
	assert.True(t, notified)
}

func TestExpiresAtReadsUnverifiedClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	cache := NewCache(nil, nil)
	cache.Set(signedToken(t, expiry), "refresh")

	got, ok := cache.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(expiry))
	assert.False(t, cache.Expired(time.Now()))
	assert.True(t, cache.Expired(expiry.Add(time.Second)))
}

func TestExpiryUnknownForOpaqueTokens(t *testing.T) {
	cache := NewCache(nil, nil)
	cache.Set("not-a-jwt", "refresh")

	_, ok := cache.ExpiresAt()
	assert.False(t, ok)
	assert.False(t, cache.Expired(time.Now()), "opaque tokens are assumed live")

	cache.Set("", "")
	_, ok = cache.ExpiresAt()
	assert.False(t, ok)
}
