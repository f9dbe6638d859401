package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/valyala/fasthttp"

	"github.com/darlemlih/storefront/api/transport"
	"github.com/darlemlih/storefront/domain"
)

// Login exchanges credentials for a token pair and the user identity.
func (c *Client) Login(ctx context.Context, email, password string) (*transport.AuthResponse, error) {
	var out transport.AuthResponse
	req := transport.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, fasthttp.MethodPost, "/api/auth/login", req, &out, false, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The response tokens are ignored by the auth
// store, which performs a fresh login afterwards.
func (c *Client) Register(ctx context.Context, req transport.RegisterRequest) (*transport.AuthResponse, error) {
	var out transport.AuthResponse
	if err := c.do(ctx, fasthttp.MethodPost, "/api/auth/register", req, &out, false, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me fetches the user behind the current access token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, fasthttp.MethodGet, "/api/auth/me", nil, &user, true, false); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword triggers the password reset email. The backend answers with
// a plain-text confirmation.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out string
	path := "/api/auth/forgot-password?email=" + url.QueryEscape(email)
	err := c.do(ctx, fasthttp.MethodPost, path, nil, &out, false, false)
	return out, err
}

// ResetPassword completes a password reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var out string
	path := "/api/auth/reset-password?token=" + url.QueryEscape(token) +
		"&newPassword=" + url.QueryEscape(newPassword)
	err := c.do(ctx, fasthttp.MethodPost, path, nil, &out, false, false)
	return out, err
}

// GetCart fetches the authoritative server cart.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var payload transport.CartPayload
	if err := c.do(ctx, fasthttp.MethodGet, "/api/cart", nil, &payload, true, false); err != nil {
		return nil, err
	}
	return payload.ToDomain(), nil
}

// AddToCart adds quantity units of a product and returns the full cart.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (*domain.Cart, error) {
	var payload transport.CartPayload
	req := transport.AddToCartRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, fasthttp.MethodPost, "/api/cart/add", req, &payload, true, false); err != nil {
		return nil, err
	}
	return payload.ToDomain(), nil
}

// UpdateCartItem sets the absolute quantity of a line and returns the full cart.
func (c *Client) UpdateCartItem(ctx context.Context, productID int64, quantity int) (*domain.Cart, error) {
	var payload transport.CartPayload
	req := transport.UpdateCartItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, fasthttp.MethodPut, "/api/cart/update", req, &payload, true, false); err != nil {
		return nil, err
	}
	return payload.ToDomain(), nil
}

// RemoveFromCart deletes a line and returns the full cart.
func (c *Client) RemoveFromCart(ctx context.Context, productID int64) (*domain.Cart, error) {
	var payload transport.CartPayload
	path := fmt.Sprintf("/api/cart/remove/%d", productID)
	if err := c.do(ctx, fasthttp.MethodDelete, path, nil, &payload, true, false); err != nil {
		return nil, err
	}
	return payload.ToDomain(), nil
}

// ClearCart empties the server cart and returns its (empty) state.
func (c *Client) ClearCart(ctx context.Context) (*domain.Cart, error) {
	var payload transport.CartPayload
	if err := c.do(ctx, fasthttp.MethodDelete, "/api/cart/clear", nil, &payload, true, false); err != nil {
		return nil, err
	}
	return payload.ToDomain(), nil
}

// GetProduct fetches one catalog record. Public, no credentials attached.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var product domain.Product
	path := fmt.Sprintf("/api/products/%d", productID)
	if err := c.do(ctx, fasthttp.MethodGet, path, nil, &product, false, false); err != nil {
		return nil, err
	}
	return &product, nil
}

// Ping probes backend reachability without authentication.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, fasthttp.MethodGet, "/actuator/health", nil, nil, false, false)
}
