package persistence

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"EpiPredict/internal/modules/structure/domain/repository"
	"EpiPredict/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "epipredict:structure:"

type redisStructureStore struct {
	ttl time.Duration
}

// NewRedisStructureStore 基于 pkg/redis 全局客户端；未连接时返回 nil
func NewRedisStructureStore(ttl time.Duration) repository.StructureStore {
	if !redis.IsConnected() {
		return nil
	}
	return &redisStructureStore{ttl: ttl}
}

func structureKey(sequence string) string {
	sum := sha1.Sum([]byte(sequence))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (s *redisStructureStore) Get(ctx context.Context, sequence string) (string, error) {
	v, err := redis.Get(ctx, structureKey(sequence))
	if errors.Is(err, goredis.Nil) {
		return "", repository.ErrCacheMiss
	}
	return v, err
}

func (s *redisStructureStore) Set(ctx context.Context, sequence, pdb string) error {
	return redis.Set(ctx, structureKey(sequence), pdb, s.ttl)
}
