package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/darlemlih/storefront/domain"
)

// Storage keeps the session snapshot and guest cart in Redis. Used when the
// storefront client runs server-side and local files do not survive
// deployments. Keys are fixed names under a configurable prefix.
type Storage struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewStorage creates a Redis-backed storage. The TTL bounds how long a
// dormant session or cart is kept; zero or negative falls back to 30 days,
// roughly the refresh token lifetime.
func NewStorage(client *redislib.Client, prefix string, ttl time.Duration) *Storage {
	if prefix == "" {
		prefix = "storefront:"
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Storage{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Storage) LoadSession(ctx context.Context) (*domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	if err := s.load(ctx, s.prefix+"session", &snap, domain.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Storage) SaveSession(ctx context.Context, snap *domain.SessionSnapshot) error {
	if snap == nil {
		return domain.ErrInvalidPayload
	}
	return s.save(ctx, s.prefix+"session", snap)
}

func (s *Storage) DeleteSession(ctx context.Context) error {
	return s.client.Del(ctx, s.prefix+"session").Err()
}

func (s *Storage) LoadCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := s.load(ctx, s.prefix+"cart", &cart, domain.ErrCartNotFound); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Storage) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if cart == nil {
		return domain.ErrInvalidPayload
	}
	return s.save(ctx, s.prefix+"cart", cart)
}

func (s *Storage) DeleteCart(ctx context.Context) error {
	return s.client.Del(ctx, s.prefix+"cart").Err()
}

func (s *Storage) load(ctx context.Context, key string, out any, missing error) error {
	result, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redislib.Nil {
			return missing
		}
		return err
	}
	return json.Unmarshal([]byte(result), out)
}

func (s *Storage) save(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, payload, s.ttl).Err()
}
