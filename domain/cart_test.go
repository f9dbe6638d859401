package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func honeyJar() Product {
	return Product{
		ID:            42,
		NameEn:        "Mountain Honey",
		NameFr:        "Miel de Montagne",
		Slug:          "mountain-honey",
		Images:        []string{"jar.jpg"},
		Price:         85,
		StockQuantity: 5,
	}
}

func TestUpsertMergesSameProduct(t *testing.T) {
	var cart Cart

	cart.Upsert(honeyJar(), 3)
	cart.Upsert(honeyJar(), 3)

	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, 5, item.Quantity, "quantity clamps to stock")
	assert.Equal(t, 85*5.0, item.TotalPrice)
	assert.Equal(t, "Miel de Montagne", item.ProductName)
	assert.Equal(t, "jar.jpg", item.ProductImage)
}

func TestUpsertClampsInitialQuantity(t *testing.T) {
	var cart Cart

	cart.Upsert(honeyJar(), 100)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart = Cart{}
	cart.Upsert(honeyJar(), 0)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity, "quantity floor is one")
}

func TestLineTotalHoldsAfterEveryMutation(t *testing.T) {
	var cart Cart
	product := honeyJar()

	cart.Upsert(product, 2)
	cart.Upsert(product, 1)
	cart.SetQuantity(product.ID, 4)

	for _, item := range cart.Items {
		assert.Equal(t, item.UnitPrice*float64(item.Quantity), item.TotalPrice)
	}
}

func TestSetQuantityClampsToStockSnapshot(t *testing.T) {
	var cart Cart
	cart.Upsert(honeyJar(), 1)

	ok := cart.SetQuantity(42, 99)

	assert.True(t, ok)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.False(t, cart.SetQuantity(7, 1), "missing product is not updated")
}

func TestRemoveKeepsInsertionOrder(t *testing.T) {
	var cart Cart
	first := honeyJar()
	second := honeyJar()
	second.ID = 43
	third := honeyJar()
	third.ID = 44

	cart.Upsert(first, 1)
	cart.Upsert(second, 1)
	cart.Upsert(third, 1)

	assert.True(t, cart.Remove(second.ID))
	assert.False(t, cart.Remove(second.ID), "second removal is a no-op")

	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(42), cart.Items[0].ProductID)
	assert.Equal(t, int64(44), cart.Items[1].ProductID)
}

func TestRecalculate(t *testing.T) {
	var cart Cart
	cart.Upsert(honeyJar(), 2)
	cart.Recalculate(30)

	assert.Equal(t, 170.0, cart.Subtotal)
	assert.Equal(t, 30.0, cart.ShippingCost)
	assert.Equal(t, 200.0, cart.Total)
	assert.Equal(t, 2, cart.TotalItems())
	assert.Equal(t, 170.0, cart.TotalPrice())

	cart.Clear()
	cart.Recalculate(30)
	assert.Zero(t, cart.Subtotal)
	assert.Zero(t, cart.ShippingCost, "empty cart ships nothing")
	assert.Zero(t, cart.Total)
}

func TestSessionRestoreEnforcesInvariant(t *testing.T) {
	var session Session
	session.Restore(SessionSnapshot{
		User:            &User{ID: 1, Email: "a@b.c"},
		IsAuthenticated: true,
	})
	assert.False(t, session.IsAuthenticated, "no access token means no session")

	session.Restore(SessionSnapshot{
		User:            &User{ID: 1, Email: "a@b.c"},
		AccessToken:     "token",
		RefreshToken:    "refresh",
		IsAuthenticated: true,
	})
	assert.True(t, session.IsAuthenticated)

	session.Reset()
	assert.Nil(t, session.User)
	assert.Empty(t, session.AccessToken)
	assert.Empty(t, session.RefreshToken)
	assert.False(t, session.IsAuthenticated)
}
