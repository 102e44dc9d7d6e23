package apikey

// Package apikey stores hashed API keys in Redis and authenticates requests that present them.

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces key records.
const DefaultPrefix = "apikey:"

// Record is the stored description of an API key. The plaintext key is never stored.
type Record struct {
	Owner  string   `json:"owner"`
	Scopes []string `json:"scopes"`
	// Organizations is nil when the key has no organization configuration at all.
	Organizations []string  `json:"organizations"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the record has a deadline in the past.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Store is a Redis-backed API key store.
// Keys are addressed by an HMAC-SHA256 digest so a leaked keyspace does not leak keys.
type Store struct {
	client redis.UniversalClient
	prefix string
	secret []byte
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Client redis.UniversalClient
	Prefix string // Optional, defaults to DefaultPrefix
	Secret string // HMAC secret used to digest keys
}

// NewStore creates a new Redis API key store.
func NewStore(opts StoreOptions) *Store {
	if opts.Client == nil {
		panic("apikey: redis client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: opts.Client, prefix: prefix, secret: []byte(opts.Secret)}
}

// Digest returns the hex HMAC of a plaintext key.
func (s *Store) Digest(key string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Store) recordKey(key string) string { return s.prefix + s.Digest(key) }

func (s *Store) adminsKey() string { return s.prefix + "admins" }

// Save stores rec under the digest of key. The Redis TTL follows rec.ExpiresAt.
func (s *Store) Save(ctx context.Context, key string, rec Record) error {
	if key == "" {
		return errors.New("api key cannot be empty")
	}
	if rec.Owner == "" {
		return errors.New("api key owner cannot be empty")
	}

	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = time.Until(rec.ExpiresAt)
		if ttl <= 0 {
			return errors.New("api key is expired")
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal api key: %w", err)
	}
	return s.client.Set(ctx, s.recordKey(key), data, ttl).Err()
}

// Get loads the record for a plaintext key.
func (s *Store) Get(ctx context.Context, key string) (Record, error) {
	if key == "" {
		return Record{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal api key: %w", err)
	}
	if rec.Expired(time.Now()) {
		if err := s.Delete(ctx, key); err != nil {
			return Record{}, fmt.Errorf("cleanup expired api key: %w", err)
		}
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Delete removes the record for a plaintext key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, s.recordKey(key)).Err()
}

// GrantAdmin adds owner to the administrator set.
func (s *Store) GrantAdmin(ctx context.Context, owner string) error {
	return s.client.SAdd(ctx, s.adminsKey(), owner).Err()
}

// RevokeAdmin removes owner from the administrator set.
func (s *Store) RevokeAdmin(ctx context.Context, owner string) error {
	return s.client.SRem(ctx, s.adminsKey(), owner).Err()
}

// IsAdmin implements ports.AdminLookup.
func (s *Store) IsAdmin(ctx context.Context, owner string) (bool, error) {
	if owner == "" {
		return false, nil
	}
	ok, err := s.client.SIsMember(ctx, s.adminsKey(), owner).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

type notFoundError struct{}

func (notFoundError) Error() string { return "api key not found" }

// ErrNotFound is returned when a key has no record.
var ErrNotFound error = notFoundError{}
