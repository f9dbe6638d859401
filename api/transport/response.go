package transport

import (
	"encoding/json"
	"strconv"

	"github.com/darlemlih/storefront/domain"
)

// AuthResponse is returned by the login, register and refresh endpoints.
// Refresh responses omit the user and may omit a rotated refresh token.
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// CartItemPayload is the wire shape of one cart line.
type CartItemPayload struct {
	ID            int64   `json:"id"`
	ProductID     int64   `json:"productId"`
	ProductName   string  `json:"productName"`
	ProductSlug   string  `json:"productSlug"`
	ProductImage  string  `json:"productImage,omitempty"`
	UnitPrice     float64 `json:"unitPrice"`
	Quantity      int     `json:"quantity"`
	TotalPrice    float64 `json:"totalPrice"`
	StockQuantity int     `json:"stockQuantity"`
}

// CartPayload is the full authoritative cart every cart endpoint returns.
// Some deployments wrap it in a {status,data} envelope; UnmarshalJSON
// normalizes both shapes so the stores only ever see one.
type CartPayload struct {
	ID           int64             `json:"id"`
	Items        []CartItemPayload `json:"items"`
	Subtotal     float64           `json:"subtotal"`
	ShippingCost float64           `json:"shippingCost"`
	Total        float64           `json:"total"`
	Currency     string            `json:"currency"`
	TotalItems   int               `json:"totalItems"`
}

func (p *CartPayload) UnmarshalJSON(data []byte) error {
	type bare CartPayload
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Status != "" && len(envelope.Data) > 0 {
		data = envelope.Data
	}
	var out bare
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = CartPayload(out)
	return nil
}

// ToDomain converts the wire cart into the domain aggregate.
func (p *CartPayload) ToDomain() *domain.Cart {
	if p == nil {
		return &domain.Cart{}
	}
	cart := &domain.Cart{
		ID:           p.ID,
		Subtotal:     p.Subtotal,
		ShippingCost: p.ShippingCost,
		Total:        p.Total,
		Currency:     p.Currency,
	}
	for _, item := range p.Items {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:            strconv.FormatInt(item.ID, 10),
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			ProductSlug:   item.ProductSlug,
			ProductImage:  item.ProductImage,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			TotalPrice:    item.TotalPrice,
			StockQuantity: item.StockQuantity,
		})
	}
	return cart
}
