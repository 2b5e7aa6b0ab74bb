package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares records across instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "studio:idem:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (State, Response, error) {
	pending, err := json.Marshal(Record{Fingerprint: fingerprint})
	if err != nil {
		return 0, Response{}, err
	}
	ok, err := s.client.SetNX(ctx, s.prefix+key, pending, ttl).Result()
	if err != nil {
		return 0, Response{}, fmt.Errorf("idempotency: reserve: %w", err)
	}
	if ok {
		return StateNew, Response{}, nil
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET.
		return s.Reserve(ctx, key, fingerprint, ttl)
	}
	if err != nil {
		return 0, Response{}, fmt.Errorf("idempotency: load: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0, Response{}, fmt.Errorf("idempotency: decode: %w", err)
	}
	if rec.Fingerprint != fingerprint {
		return 0, Response{}, ErrFingerprintMismatch
	}
	if rec.Completed {
		return StateCompleted, rec.Response, nil
	}
	return StatePending, Response{}, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, fingerprint string, resp Response, ttl time.Duration) error {
	data, err := json.Marshal(Record{Fingerprint: fingerprint, Completed: true, Response: resp})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: complete: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency: release: %w", err)
	}
	return nil
}
