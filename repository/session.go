package repository

import (
	"context"

	"github.com/darlemlih/storefront/domain"
)

// SessionStorage persists the session snapshot under a fixed key so an
// authenticated session survives a process restart.
type SessionStorage interface {
	LoadSession(ctx context.Context) (*domain.SessionSnapshot, error)
	SaveSession(ctx context.Context, snap *domain.SessionSnapshot) error
	DeleteSession(ctx context.Context) error
}
