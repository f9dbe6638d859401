package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/darlemlih/storefront/domain"
	"github.com/darlemlih/storefront/repository"
)

// Gateway is the slice of the REST client the cart store depends on. Every
// call returns the full authoritative cart.
type Gateway interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, productID int64, quantity int) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, productID int64, quantity int) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, productID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context) (*domain.Cart, error)
}

// SessionInfo reports whether a live authenticated session exists. The auth
// store satisfies it.
type SessionInfo interface {
	IsAuthenticated() bool
}

// Config carries the pricing constants mirrored from the backend so guest
// totals line up with what checkout will charge.
type Config struct {
	ShippingCost float64
	Currency     string
}

// Store owns the basket. Authenticated sessions work against the server
// cart: each mutation is a round trip and the whole local state is replaced
// by the backend response, never patched. Guests get a locally persisted
// cart with the same clamping rules.
type Store struct {
	mu      sync.RWMutex
	cart    domain.Cart
	loading bool
	lastErr string

	cfg     Config
	gateway Gateway
	session SessionInfo
	storage repository.CartStorage
	logger  *zap.Logger
}

// New builds the cart store.
func New(cfg Config, gateway Gateway, session SessionInfo, storage repository.CartStorage, logger *zap.Logger) *Store {
	if cfg.ShippingCost <= 0 {
		cfg.ShippingCost = 30
	}
	if cfg.Currency == "" {
		cfg.Currency = "MAD"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:     cfg,
		gateway: gateway,
		session: session,
		storage: storage,
		logger:  logger,
	}
}

// Hydrate restores the guest cart from storage and, for authenticated
// sessions, replaces it with the server cart.
func (s *Store) Hydrate(ctx context.Context) error {
	local, err := s.storage.LoadCart(ctx)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return err
	}
	if local != nil {
		s.mu.Lock()
		s.cart = *local
		s.mu.Unlock()
	}

	if s.session.IsAuthenticated() {
		return s.Refresh(ctx)
	}
	return nil
}

// Refresh pulls the authoritative server cart. Requires a live session.
func (s *Store) Refresh(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}
	return s.remote(ctx, "refresh cart", s.gateway.GetCart)
}

// AddItem merges quantity units of product into the basket. Guests mutate
// locally with stock clamping; authenticated sessions go through the backend
// and adopt its response wholesale.
func (s *Store) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if s.session.IsAuthenticated() {
		return s.remote(ctx, "add to cart", func(ctx context.Context) (*domain.Cart, error) {
			return s.gateway.AddToCart(ctx, product.ID, quantity)
		})
	}

	s.mu.Lock()
	s.cart.Upsert(product, quantity)
	s.cart.Recalculate(s.cfg.ShippingCost)
	s.cart.Currency = s.cfg.Currency
	snapshot := s.cart
	s.mu.Unlock()
	return s.persist(ctx, &snapshot)
}

// UpdateQuantity sets the absolute quantity of a line. Zero or less removes
// the line instead, matching RemoveItem exactly.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	if s.session.IsAuthenticated() {
		return s.remote(ctx, "update cart item", func(ctx context.Context) (*domain.Cart, error) {
			return s.gateway.UpdateCartItem(ctx, productID, quantity)
		})
	}

	s.mu.Lock()
	changed := s.cart.SetQuantity(productID, quantity)
	if changed {
		s.cart.Recalculate(s.cfg.ShippingCost)
	}
	snapshot := s.cart
	s.mu.Unlock()
	if !changed {
		return nil
	}
	return s.persist(ctx, &snapshot)
}

// RemoveItem deletes a line. Removing an absent product is a no-op, not an
// error.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	if s.session.IsAuthenticated() {
		return s.remote(ctx, "remove from cart", func(ctx context.Context) (*domain.Cart, error) {
			return s.gateway.RemoveFromCart(ctx, productID)
		})
	}

	s.mu.Lock()
	changed := s.cart.Remove(productID)
	if changed {
		s.cart.Recalculate(s.cfg.ShippingCost)
	}
	snapshot := s.cart
	s.mu.Unlock()
	if !changed {
		return nil
	}
	return s.persist(ctx, &snapshot)
}

// Clear empties the basket.
func (s *Store) Clear(ctx context.Context) error {
	if s.session.IsAuthenticated() {
		return s.remote(ctx, "clear cart", s.gateway.ClearCart)
	}

	s.mu.Lock()
	s.cart.Clear()
	s.mu.Unlock()
	if err := s.storage.DeleteCart(ctx); err != nil {
		s.logger.Warn("failed to delete persisted cart", zap.Error(err))
	}
	return nil
}

// MergeOnLogin pushes the surviving guest lines to the server cart, adopts
// the authoritative result and drops the local guest state. Call it once
// right after a successful login.
func (s *Store) MergeOnLogin(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		return domain.ErrNotAuthenticated
	}

	s.mu.RLock()
	items := make([]domain.CartItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	s.mu.RUnlock()

	for _, item := range items {
		if _, err := s.gateway.AddToCart(ctx, item.ProductID, item.Quantity); err != nil {
			// keep merging the rest; out-of-stock lines are expected casualties
			s.logger.Warn("guest cart line not merged",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	if err := s.remote(ctx, "adopt server cart", s.gateway.GetCart); err != nil {
		return err
	}
	if err := s.storage.DeleteCart(ctx); err != nil {
		s.logger.Warn("failed to delete guest cart", zap.Error(err))
	}
	return nil
}

// Cart returns a copy of the current basket.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.cart
	out.Items = make([]domain.CartItem, len(s.cart.Items))
	copy(out.Items, s.cart.Items)
	return out
}

// TotalPrice recomputes the basket total from the items.
func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalPrice()
}

// TotalItems recomputes the unit count from the items.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalItems()
}

// Loading reports whether a server round trip is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the last failure message, empty when none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError clears the last failure message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// remote runs one server round trip and replaces the whole cart with the
// authoritative response. On failure the previous state stays untouched.
func (s *Store) remote(ctx context.Context, op string, call func(ctx context.Context) (*domain.Cart, error)) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	result, err := call(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = op + ": " + err.Error()
		s.mu.Unlock()
		return err
	}
	if result != nil {
		s.cart = *result
	} else {
		s.cart.Clear()
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) persist(ctx context.Context, snapshot *domain.Cart) error {
	if err := s.storage.SaveCart(ctx, snapshot); err != nil {
		s.logger.Warn("failed to persist guest cart", zap.Error(err))
		return err
	}
	return nil
}
