package bolt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/darlemlih/storefront/domain"
)

var (
	keySession = []byte("session")
	keyCart    = []byte("cart")
)

// Store wraps BoltDB to persist the session snapshot and the guest cart
// locally, keyed by fixed names.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "storefront"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Close releases the underlying BoltDB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) LoadSession(ctx context.Context) (*domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	if err := s.load(ctx, keySession, &snap, domain.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) SaveSession(ctx context.Context, snap *domain.SessionSnapshot) error {
	if snap == nil {
		return domain.ErrInvalidPayload
	}
	return s.save(ctx, keySession, snap)
}

func (s *Store) DeleteSession(ctx context.Context) error {
	return s.delete(ctx, keySession)
}

func (s *Store) LoadCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := s.load(ctx, keyCart, &cart, domain.ErrCartNotFound); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) SaveCart(ctx context.Context, cart *domain.Cart) error {
	if cart == nil {
		return domain.ErrInvalidPayload
	}
	return s.save(ctx, keyCart, cart)
}

func (s *Store) DeleteCart(ctx context.Context) error {
	return s.delete(ctx, keyCart)
}

func (s *Store) load(ctx context.Context, key []byte, out any, missing error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get(key)
		if raw == nil {
			return missing
		}
		return json.Unmarshal(raw, out)
	})
}

func (s *Store) save(ctx context.Context, key []byte, value any) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(key, payload)
	})
}

func (s *Store) delete(ctx context.Context, key []byte) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(key)
	})
}
