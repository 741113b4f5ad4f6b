package main

import (
	https_server "EpiPredict/api/http"
	"EpiPredict/internal/config"
	"EpiPredict/internal/initial"
	"EpiPredict/internal/modules/epitope/infrastructure/model"
	"EpiPredict/pkg/redis"
	"EpiPredict/pkg/zlog"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()
	zlog.Init(zlog.Options{
		LogPath:    conf.LogConfig.LogPath,
		Level:      conf.LogConfig.Level,
		MaxSizeMB:  conf.LogConfig.MaxSizeMB,
		MaxBackups: conf.LogConfig.MaxBackups,
		MaxAgeDays: conf.LogConfig.MaxAgeDays,
	})
	defer zlog.Sync()
	if conf.MainConfig.Mode != "" {
		gin.SetMode(conf.MainConfig.Mode)
	}

	// 2. 初始化依赖
	initial.InitRedis(conf.RedisConfig)
	server, err := https_server.Setup(conf)
	if err != nil {
		zlog.Fatal("server setup failed", zap.Error(err))
	}

	// 3. 启动 HTTP 服务
	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start failed", zap.Error(err))
		}
	}()

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待退出信号
	<-quit

	zlog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	_ = server.Models.Close()
	_ = model.DestroyRuntime()
	_ = redis.Close()

	zlog.Info("server stopped")
}
