package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	postKeyPrefix = "post:%s"
	// PostListKey holds the global post listing.
	PostListKey = "posts:all"
)

// PostKey is the cache key of a single post view.
func PostKey(postID primitive.ObjectID) string {
	return fmt.Sprintf(postKeyPrefix, postID.Hex())
}

// Store is a JSON cache over Redis. A Store with a nil client or a zero TTL
// is a pass-through: every lookup misses and every write is dropped.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store whose entries live for ttl.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) enabled() bool {
	return s != nil && s.rdb != nil && s.ttl > 0
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.enabled() {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with the store TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	if !s.enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

// Aside tries Redis first; on a miss it calls fetch, which must populate
// dest, then stores dest best-effort. Cache failures never fail the read.
func (s *Store) Aside(ctx context.Context, key string, dest any, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	_ = s.SetJSON(ctx, key, dest)
	return nil
}

// Invalidate removes keys. Errors are swallowed: the TTL bounds staleness.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || s.rdb == nil || len(keys) == 0 {
		return
	}
	_ = s.rdb.Del(ctx, keys...).Err()
}

// InvalidatePost drops the cached view of postID and the global listing.
func (s *Store) InvalidatePost(ctx context.Context, postID primitive.ObjectID) {
	s.Invalidate(ctx, PostKey(postID), PostListKey)
}
