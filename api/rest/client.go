package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/darlemlih/storefront/api/transport"
	"github.com/darlemlih/storefront/domain"
)

// CredentialStore supplies the bearer credentials for outbound requests and
// receives the outcome of refresh attempts. The auth side owns the tokens;
// the client only ever reads a transient copy per request.
type CredentialStore interface {
	Access() string
	RefreshToken() string
	Rotate(ctx context.Context, access, refresh string) error
	Invalidate(ctx context.Context)
}

// StatusError is a non-2xx response surfaced to the caller.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s - %s", e.StatusCode, e.Status, e.Body)
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var sErr *StatusError
	return errors.As(err, &sErr) && sErr.StatusCode == code
}

// Config carries the client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client is the single chokepoint for backend calls. It attaches bearer
// credentials to authenticated requests and transparently refreshes an
// expired access token on the first 401, retrying the original request
// exactly once. Concurrent 401s share one refresh call.
type Client struct {
	cfg    Config
	http   *fasthttp.Client
	creds  CredentialStore
	logger *zap.Logger

	refreshGroup singleflight.Group
}

// New builds a client against cfg.BaseURL.
func New(cfg Config, creds CredentialStore, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &fasthttp.Client{Name: cfg.UserAgent},
		creds:  creds,
		logger: logger,
	}
}

// do performs one request against the backend. body is JSON-marshalled when
// non-nil; out receives the decoded response (a *string captures text
// bodies). auth attaches the bearer header when a token is available.
func (c *Client) do(ctx context.Context, method, path string, body, out any, auth, retried bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "request body not serializable", err)
		}
		req.SetBody(payload)
	}
	if auth {
		if token := c.creds.Access(); token != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
		}
	}

	if err := c.send(ctx, req, resp); err != nil {
		return domain.WrapError(domain.ErrCodeNetwork, "request failed", err)
	}

	status := resp.StatusCode()
	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
	)

	if status == fasthttp.StatusUnauthorized && auth && !retried {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		return c.do(ctx, method, path, body, out, auth, true)
	}

	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		return &StatusError{
			StatusCode: status,
			Status:     fasthttp.StatusMessage(status),
			Body:       string(resp.Body()),
		}
	}

	return decodeBody(resp, out)
}

// send dispatches the request, honoring a context deadline when one is set.
func (c *Client) send(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		return c.http.DoDeadline(req, resp, deadline)
	}
	return c.http.DoTimeout(req, resp, c.cfg.Timeout)
}

// refresh runs the token refresh protocol. All concurrent callers coalesce
// into a single in-flight refresh and share its outcome; a failed refresh
// invalidates the stored credentials exactly once before the waiters are
// released.
func (c *Client) refresh(ctx context.Context) error {
	_, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		refreshToken := c.creds.RefreshToken()
		if refreshToken == "" {
			c.creds.Invalidate(ctx)
			return nil, domain.ErrNoRefreshToken
		}

		path := "/api/auth/refresh?refreshToken=" + url.QueryEscape(refreshToken)
		var out transport.AuthResponse
		if err := c.do(ctx, fasthttp.MethodPost, path, nil, &out, false, true); err != nil {
			c.creds.Invalidate(ctx)
			return nil, err
		}
		if out.AccessToken == "" {
			c.creds.Invalidate(ctx)
			return nil, domain.NewError(domain.ErrCodeInvalid, "refresh response missing access token")
		}
		return nil, c.creds.Rotate(ctx, out.AccessToken, out.RefreshToken)
	})
	if err != nil {
		c.logger.Warn("token refresh failed", zap.Bool("coalesced", shared), zap.Error(err))
		return err
	}
	return nil
}

func decodeBody(resp *fasthttp.Response, out any) error {
	if out == nil {
		return nil
	}
	body := resp.Body()
	if text, ok := out.(*string); ok {
		*text = string(body)
		return nil
	}
	if len(body) == 0 {
		return nil
	}

	contentType := string(resp.Header.ContentType())
	if !strings.Contains(contentType, "application/json") {
		return domain.NewError(domain.ErrCodeInvalid, "unexpected content type "+contentType)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.WrapError(domain.ErrCodeInvalid, "malformed response body", err)
	}
	return nil
}
