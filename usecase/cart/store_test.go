package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darlemlih/storefront/domain"
)

type mockGateway struct {
	cart *domain.Cart
	err  error

	getCalls    int
	addCalls    []int64
	updateCalls int
	removeCalls int
	clearCalls  int
}

func (m *mockGateway) result() (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.cart
	return &copied, nil
}

func (m *mockGateway) GetCart(context.Context) (*domain.Cart, error) {
	m.getCalls++
	return m.result()
}

func (m *mockGateway) AddToCart(_ context.Context, productID int64, _ int) (*domain.Cart, error) {
	m.addCalls = append(m.addCalls, productID)
	return m.result()
}

func (m *mockGateway) UpdateCartItem(context.Context, int64, int) (*domain.Cart, error) {
	m.updateCalls++
	return m.result()
}

func (m *mockGateway) RemoveFromCart(context.Context, int64) (*domain.Cart, error) {
	m.removeCalls++
	return m.result()
}

func (m *mockGateway) ClearCart(context.Context) (*domain.Cart, error) {
	m.clearCalls++
	return m.result()
}

type mockSession struct {
	authenticated bool
}

func (m *mockSession) IsAuthenticated() bool { return m.authenticated }

type memCartStorage struct {
	cart        *domain.Cart
	saveCalls   int
	deleteCalls int
}

func (m *memCartStorage) LoadCart(context.Context) (*domain.Cart, error) {
	if m.cart == nil {
		return nil, domain.ErrCartNotFound
	}
	copied := *m.cart
	return &copied, nil
}

func (m *memCartStorage) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.saveCalls++
	copied := *cart
	copied.Items = append([]domain.CartItem(nil), cart.Items...)
	m.cart = &copied
	return nil
}

func (m *memCartStorage) DeleteCart(context.Context) error {
	m.deleteCalls++
	m.cart = nil
	return nil
}

func honeyJar() domain.Product {
	return domain.Product{
		ID:            42,
		NameFr:        "Miel de Montagne",
		Slug:          "mountain-honey",
		Price:         85,
		StockQuantity: 5,
	}
}

func serverCart() *domain.Cart {
	return &domain.Cart{
		ID: 7,
		Items: []domain.CartItem{{
			ID:            "11",
			ProductID:     42,
			ProductName:   "Miel de Montagne",
			UnitPrice:     85,
			Quantity:      1,
			TotalPrice:    85,
			StockQuantity: 5,
		}},
		Subtotal:     85,
		ShippingCost: 30,
		Total:        115,
		Currency:     "MAD",
	}
}

func newGuestStore() (*Store, *memCartStorage, *mockGateway) {
	gw := &mockGateway{cart: serverCart()}
	st := &memCartStorage{}
	return New(Config{}, gw, &mockSession{}, st, nil), st, gw
}

func newRemoteStore() (*Store, *memCartStorage, *mockGateway) {
	gw := &mockGateway{cart: serverCart()}
	st := &memCartStorage{}
	return New(Config{}, gw, &mockSession{authenticated: true}, st, nil), st, gw
}

func TestGuestAddMergesAndClamps(t *testing.T) {
	store, st, gw := newGuestStore()
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, honeyJar(), 3))
	require.NoError(t, store.AddItem(ctx, honeyJar(), 3))

	cart := store.Cart()
	require.Len(t, cart.Items, 1, "same product never duplicated")
	assert.Equal(t, 5, cart.Items[0].Quantity, "sum of requests clamped to stock")
	assert.Equal(t, 85*5.0, cart.Items[0].TotalPrice)
	assert.Equal(t, 2, st.saveCalls, "persisted after every mutation")
	assert.Empty(t, gw.addCalls, "guest mode never talks to the backend")
}

func TestGuestTotalsAlwaysRecomputed(t *testing.T) {
	store, _, _ := newGuestStore()
	ctx := context.Background()
	second := honeyJar()
	second.ID = 43
	second.Price = 40
	second.StockQuantity = 10

	require.NoError(t, store.AddItem(ctx, honeyJar(), 2))
	require.NoError(t, store.AddItem(ctx, second, 3))

	cart := store.Cart()
	assert.Equal(t, 85*2+40*3.0, cart.Subtotal)
	assert.Equal(t, 30.0, cart.ShippingCost)
	assert.Equal(t, cart.Subtotal+30, cart.Total)
	assert.Equal(t, 5, store.TotalItems())
	assert.Equal(t, cart.Subtotal, store.TotalPrice())
	assert.Equal(t, "MAD", cart.Currency)
}

func TestGuestUpdateZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()

	viaUpdate, _, _ := newGuestStore()
	require.NoError(t, viaUpdate.AddItem(ctx, honeyJar(), 2))
	require.NoError(t, viaUpdate.UpdateQuantity(ctx, 42, 0))

	viaRemove, _, _ := newGuestStore()
	require.NoError(t, viaRemove.AddItem(ctx, honeyJar(), 2))
	require.NoError(t, viaRemove.RemoveItem(ctx, 42))

	assert.Equal(t, viaRemove.Cart().Items, viaUpdate.Cart().Items)
	assert.Empty(t, viaUpdate.Cart().Items)
	assert.Zero(t, viaUpdate.TotalItems())
}

func TestGuestUpdateClampsToRecordedStock(t *testing.T) {
	store, _, _ := newGuestStore()
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, honeyJar(), 1))

	require.NoError(t, store.UpdateQuantity(ctx, 42, 50))

	item := store.Cart().Items[0]
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, item.UnitPrice*5, item.TotalPrice)
}

func TestGuestRemoveAbsentIsNoop(t *testing.T) {
	store, st, _ := newGuestStore()

	require.NoError(t, store.RemoveItem(context.Background(), 999))
	assert.Zero(t, st.saveCalls, "no-op writes nothing")
}

func TestGuestClearEmptiesAndDeletesPersisted(t *testing.T) {
	store, st, _ := newGuestStore()
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, honeyJar(), 2))

	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.Cart().Items)
	assert.Zero(t, store.TotalPrice())
	assert.Equal(t, 1, st.deleteCalls)
}

func TestRemoteMutationReplacesCartWholesale(t *testing.T) {
	store, _, gw := newRemoteStore()

	require.NoError(t, store.AddItem(context.Background(), honeyJar(), 1))

	assert.Equal(t, []int64{42}, gw.addCalls)
	cart := store.Cart()
	assert.Equal(t, int64(7), cart.ID, "server cart adopted as-is")
	assert.Equal(t, 115.0, cart.Total)
	assert.False(t, store.Loading())
}

func TestRemoteFailureLeavesCartUntouched(t *testing.T) {
	store, _, gw := newRemoteStore()
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, honeyJar(), 1))
	before := store.Cart()

	gw.err = domain.NewError(domain.ErrCodeInternal, "boom")
	err := store.UpdateQuantity(ctx, 42, 3)

	require.Error(t, err)
	assert.Equal(t, before.Items, store.Cart().Items, "no partial corruption on failure")
	assert.Contains(t, store.Err(), "boom")
	assert.False(t, store.Loading())

	store.ClearError()
	assert.Empty(t, store.Err())
}

func TestRefreshRequiresSession(t *testing.T) {
	store, _, _ := newGuestStore()

	err := store.Refresh(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestHydrateRestoresGuestCart(t *testing.T) {
	gw := &mockGateway{cart: serverCart()}
	st := &memCartStorage{cart: &domain.Cart{Items: []domain.CartItem{{
		ProductID: 42, Quantity: 2, UnitPrice: 85, TotalPrice: 170, StockQuantity: 5,
	}}}}
	store := New(Config{}, gw, &mockSession{}, st, nil)

	require.NoError(t, store.Hydrate(context.Background()))

	assert.Equal(t, 2, store.TotalItems())
	assert.Zero(t, gw.getCalls, "guest hydration stays local")
}

func TestHydrateAuthenticatedAdoptsServerCart(t *testing.T) {
	gw := &mockGateway{cart: serverCart()}
	store := New(Config{}, gw, &mockSession{authenticated: true}, &memCartStorage{}, nil)

	require.NoError(t, store.Hydrate(context.Background()))

	assert.Equal(t, 1, gw.getCalls)
	assert.Equal(t, int64(7), store.Cart().ID)
}

func TestMergeOnLoginPushesGuestLines(t *testing.T) {
	gw := &mockGateway{cart: serverCart()}
	st := &memCartStorage{}
	session := &mockSession{}
	store := New(Config{}, gw, session, st, nil)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, honeyJar(), 2))
	other := honeyJar()
	other.ID = 43
	require.NoError(t, store.AddItem(ctx, other, 1))

	session.authenticated = true
	require.NoError(t, store.MergeOnLogin(ctx))

	assert.Equal(t, []int64{42, 43}, gw.addCalls, "guest lines pushed in order")
	assert.Equal(t, 1, gw.getCalls, "authoritative cart adopted")
	assert.Equal(t, int64(7), store.Cart().ID)
	assert.Equal(t, 1, st.deleteCalls, "guest state dropped")
}

func TestMergeOnLoginRequiresSession(t *testing.T) {
	store, _, _ := newGuestStore()

	assert.ErrorIs(t, store.MergeOnLogin(context.Background()), domain.ErrNotAuthenticated)
}
