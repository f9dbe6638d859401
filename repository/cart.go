package repository

import (
	"context"

	"github.com/darlemlih/storefront/domain"
)

// CartStorage persists the guest cart under a fixed key. The server-
// synchronized cart is never written here; the backend owns it.
type CartStorage interface {
	LoadCart(ctx context.Context) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context) error
}
