package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	https_server "NeighborGuard/api/http"
	"NeighborGuard/internal/config"
	"NeighborGuard/internal/initial"
	"NeighborGuard/pkg/redis"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置与日志
	conf := config.GetConfig()
	if err := zlog.Setup(zlog.Options{
		LogPath:    conf.LogConfig.LogPath,
		Level:      conf.LogConfig.Level,
		MaxSizeMB:  conf.LogConfig.MaxSizeMB,
		MaxBackups: conf.LogConfig.MaxBackups,
		MaxAgeDays: conf.LogConfig.MaxAgeDays,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	// 2. 数据库与缓存
	db, err := initial.InitGorm(conf)
	if err != nil {
		zlog.Fatal("init mysql failed", zap.Error(err))
	}
	initial.InitRedis(conf)

	// 3. 组装服务
	rt, err := https_server.Setup(db, conf)
	if err != nil {
		zlog.Fatal("setup server failed", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	srv := &http.Server{Addr: addr, Handler: https_server.GE, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		zlog.Info("server starting", zap.String("addr", addr), zap.String("dispatch_mode", conf.NotifyConfig.DispatchMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start failed", zap.Error(err))
		}
	}()

	// 4. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Warn("http shutdown failed", zap.Error(err))
	}
	rt.Shutdown(ctx)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = redis.Close()
	zlog.Info("server stopped")
}
