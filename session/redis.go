package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a redis-backed [Store]. Values are stored without TTL; the
// session lives until superseded or cleared.
type RedisStore struct {
	redis redis.UniversalClient
	keys  Keys
}

// NewRedisStore creates a [RedisStore] over the given client. keys controls
// the environment namespace.
func NewRedisStore(client redis.UniversalClient, keys Keys) *RedisStore {
	return &RedisStore{
		redis: client,
		keys:  keys,
	}
}

// SaveSession writes the token, awaits the result, then writes the user
// payload. The two writes are deliberately sequential rather than pipelined:
// a crash in between leaves partial state that Restore treats as
// unauthenticated.
func (s *RedisStore) SaveSession(ctx context.Context, token string, user []byte) error {
	if err := s.redis.Set(ctx, s.keys.Token(), token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.redis.Set(ctx, s.keys.User(), user, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// LoadSession reads both keys. Missing keys yield zero values, not errors.
func (s *RedisStore) LoadSession(ctx context.Context) (string, []byte, error) {
	token, err := s.redis.Get(ctx, s.keys.Token()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	user, err := s.redis.Get(ctx, s.keys.User()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return token, nil, nil
		}
		return "", nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return token, user, nil
}

// SaveUser overwrites the stored user object only.
func (s *RedisStore) SaveUser(ctx context.Context, user []byte) error {
	if err := s.redis.Set(ctx, s.keys.User(), user, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Clear removes the token and user keys.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.keys.Token(), s.keys.User()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// PutCredential overwrites the sealed credential slot.
func (s *RedisStore) PutCredential(ctx context.Context, sealed []byte) error {
	if err := s.redis.Set(ctx, s.keys.Credential(), sealed, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetCredential returns the sealed credential slot.
func (s *RedisStore) GetCredential(ctx context.Context) ([]byte, error) {
	sealed, err := s.redis.Get(ctx, s.keys.Credential()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return sealed, nil
}

// DeleteCredential empties the credential slot.
func (s *RedisStore) DeleteCredential(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.keys.Credential()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close is a no-op; the redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}
