package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imageshark/imageshark/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisArtifactStore holds delivery entries in redis with a TTL, since the
// keyspace is time based and nothing garbage-collects it otherwise.
type RedisArtifactStore struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

func NewRedisArtifactStore(client redis.UniversalClient, ttl time.Duration) (*RedisArtifactStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisArtifactStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: "imageshark:artifact:",
	}, nil
}

func (s *RedisArtifactStore) Put(ctx context.Context, key, dataURL string) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, dataURL, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

func (s *RedisArtifactStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", ErrArtifactNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	return val, nil
}
