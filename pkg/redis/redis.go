package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// SetClient 设置 Redis 客户端（由 internal/initial 调用）
func SetClient(c *redis.Client) {
	client = c
}

// Close 关闭 Redis 连接
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// IsConnected 检查 Redis 是否已连接
func IsConnected() bool {
	return client != nil
}

// checkClient 检查客户端是否可用
func checkClient() error {
	if client == nil {
		return fmt.Errorf("redis not connected")
	}
	return nil
}

// Get 获取字符串值，key 不存在时返回 redis.Nil
func Get(ctx context.Context, key string) (string, error) {
	if err := checkClient(); err != nil {
		return "", err
	}
	return client.Get(ctx, key).Result()
}

// Set 设置字符串值
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := checkClient(); err != nil {
		return err
	}
	return client.Set(ctx, key, value, expiration).Err()
}
