package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the secret and captured token in redis. Used by
// headless runners (CI schedules) that have no filesystem persistence
// between runs.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore with the given key prefix
// (default "gologin").
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gologin"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) secretKey() string {
	return s.prefix + ":totp_secret"
}

func (s *RedisStore) tokenKey() string {
	return s.prefix + ":session_token"
}

func (s *RedisStore) GetSecret(ctx context.Context) (string, error) {
	secret, err := s.redis.Get(ctx, s.secretKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotConfigured
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if secret == "" {
		return "", ErrNotConfigured
	}
	return secret, nil
}

func (s *RedisStore) SetSecret(ctx context.Context, secret string) error {
	if err := s.redis.Set(ctx, s.secretKey(), secret, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) GetToken(ctx context.Context) (*TokenRecord, error) {
	data, err := s.redis.Get(ctx, s.tokenKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	var record TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return &record, nil
}

func (s *RedisStore) SetToken(ctx context.Context, record *TokenRecord) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := s.redis.Set(ctx, s.tokenKey(), encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.tokenKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}
