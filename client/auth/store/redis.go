package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldAccess  = "access"
	fieldRefresh = "refresh"
)

// RedisStore keeps both credentials in a single hash so that one HSET
// replaces them together and one DEL removes them together.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

type RedisStoreOption func(*RedisStore)

// WithTTL expires the stored pair after ttl; zero keeps it until cleared.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(r *RedisStore) {
		r.ttl = ttl
	}
}

// NewRedisStore creates a Store persisted under key.
func NewRedisStore(client redis.UniversalClient, key string, options ...RedisStoreOption) *RedisStore {
	ret := &RedisStore{client: client, key: key}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (r *RedisStore) LookupPair(ctx context.Context) (*Pair, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	pair := &Pair{Access: values[fieldAccess], Refresh: values[fieldRefresh]}
	if !pair.Valid() {
		return nil, ErrNotFound
	}
	return pair, nil
}

func (r *RedisStore) SetPair(ctx context.Context, pair *Pair) error {
	if !pair.Valid() {
		return ErrIncompletePair
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fieldAccess, pair.Access, fieldRefresh, pair.Refresh)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		} else {
			pipe.Persist(ctx, r.key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
