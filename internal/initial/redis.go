package initial

import (
	"context"
	"fmt"
	"time"

	"EpiPredict/internal/config"
	"EpiPredict/pkg/redis"
	"EpiPredict/pkg/zlog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis 连接 Redis 并注册到 pkg/redis；未配置或连接失败时跳过，结构缓存退化为进程内缓存
func InitRedis(conf config.RedisConfig) {
	host := conf.Host
	port := conf.Port

	// 如果未配置主机，则跳过 Redis 初始化
	if host == "" {
		zlog.Info("redis not configured, skipping")
		return
	}

	if port == 0 {
		port = 6379
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	zlog.Info("redis connecting", zap.String("addr", addr))

	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     conf.Password,
		DB:           conf.DB,
		PoolSize:     conf.PoolSize,
		MinIdleConns: conf.MinIdleConns,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Error("redis connect failed", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return
	}

	redis.SetClient(client)
	zlog.Info("redis connected", zap.String("addr", addr))
}
