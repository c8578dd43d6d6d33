package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// SetClient 设置 Redis 客户端（由 internal/initial 调用）
func SetClient(c *redis.Client) {
	client = c
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// IsConnected 启动时未配置或连接失败则为 false
func IsConnected() bool {
	return client != nil
}

// Cmdable 已连接时返回客户端，否则返回 nil 接口（避免 typed-nil）
func Cmdable() redis.Cmdable {
	if client == nil {
		return nil
	}
	return client
}

// Ping 健康检查
func Ping(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("redis not connected")
	}
	return client.Ping(ctx).Err()
}
