package domain

import (
	"fmt"
	"time"
)

// Cart represents the shopping basket. Items keep insertion order, which is
// also display order. Totals are derived from the items; Recalculate must run
// after every mutation so they can never drift.
type Cart struct {
	ID           int64      `json:"id,omitempty"`
	Items        []CartItem `json:"items"`
	Subtotal     float64    `json:"subtotal"`
	ShippingCost float64    `json:"shippingCost"`
	Total        float64    `json:"total"`
	Currency     string     `json:"currency"`
}

// CartItem is one basket line. UnitPrice is the price at time of add;
// StockQuantity is the stock snapshot that bounds Quantity.
type CartItem struct {
	ID            string  `json:"id"`
	ProductID     int64   `json:"productId"`
	ProductName   string  `json:"productName"`
	ProductSlug   string  `json:"productSlug"`
	ProductImage  string  `json:"productImage,omitempty"`
	UnitPrice     float64 `json:"unitPrice"`
	Quantity      int     `json:"quantity"`
	TotalPrice    float64 `json:"totalPrice"`
	StockQuantity int     `json:"stockQuantity"`
}

// clampQuantity bounds a requested quantity to [1, stock]. Stock snapshots of
// zero or less are treated as a single-unit bound so a listed product can
// always be added once.
func clampQuantity(quantity, stock int) int {
	if stock < 1 {
		stock = 1
	}
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// Upsert merges quantity into an existing line for the product or appends a
// new one. Quantities are clamped to the stock snapshot and the line total is
// recomputed.
func (c *Cart) Upsert(product Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Quantity = clampQuantity(c.Items[i].Quantity+quantity, c.Items[i].StockQuantity)
			c.Items[i].TotalPrice = c.Items[i].UnitPrice * float64(c.Items[i].Quantity)
			return
		}
	}

	quantity = clampQuantity(quantity, product.StockQuantity)
	c.Items = append(c.Items, CartItem{
		ID:            fmt.Sprintf("cart-%d-%d", product.ID, time.Now().UnixNano()),
		ProductID:     product.ID,
		ProductName:   product.DisplayName(),
		ProductSlug:   product.Slug,
		ProductImage:  product.MainImage(),
		UnitPrice:     product.Price,
		Quantity:      quantity,
		TotalPrice:    product.Price * float64(quantity),
		StockQuantity: product.StockQuantity,
	})
}

// SetQuantity updates the line for productID, clamped to its stock snapshot.
// It reports whether a matching line existed. Quantities of zero or less are
// the caller's signal to remove instead.
func (c *Cart) SetQuantity(productID int64, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = clampQuantity(quantity, c.Items[i].StockQuantity)
			c.Items[i].TotalPrice = c.Items[i].UnitPrice * float64(c.Items[i].Quantity)
			return true
		}
	}
	return false
}

// Remove deletes the line for productID, reporting whether it existed.
func (c *Cart) Remove(productID int64) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the basket and zeroes the derived totals.
func (c *Cart) Clear() {
	c.Items = nil
	c.Subtotal = 0
	c.ShippingCost = 0
	c.Total = 0
}

// Recalculate recomputes the derived totals from the items. Shipping applies
// only to non-empty carts.
func (c *Cart) Recalculate(shipping float64) {
	var subtotal float64
	for i := range c.Items {
		subtotal += c.Items[i].TotalPrice
	}
	c.Subtotal = subtotal
	if len(c.Items) == 0 {
		c.ShippingCost = 0
		c.Total = 0
		return
	}
	c.ShippingCost = shipping
	c.Total = subtotal + shipping
}

// TotalItems sums the quantities across all lines.
func (c *Cart) TotalItems() int {
	var n int
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}

// TotalPrice sums the line totals. It is always recomputed, never cached.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].TotalPrice
	}
	return total
}

// Find returns the line for productID, or nil.
func (c *Cart) Find(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
