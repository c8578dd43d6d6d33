package cache

import (
	"context"
	"strconv"
	"time"

	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/zlog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	unreadKeyPrefix  = "neighborguard:notify:unread:"
	versionKeyPrefix = "neighborguard:notify:unread:ver:"
	// 单次 pipeline 处理的用户数上限
	invalidateChunk = 500
	versionTTL      = 24 * time.Hour
)

// 版本号未变化时才写入计数
var setIfVersionScript = goredis.NewScript(`
local v = redis.call('GET', KEYS[1])
if (v or '0') == ARGV[1] then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
end
return 0
`)

type redisUnreadCounter struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewUnreadCounter client 为 nil 时所有操作都是 no-op，调用方回源数据库
func NewUnreadCounter(client goredis.Cmdable, ttl time.Duration) repository.UnreadCounter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisUnreadCounter{client: client, ttl: ttl}
}

func unreadKey(userID int64) string {
	return unreadKeyPrefix + strconv.FormatInt(userID, 10)
}

func versionKey(userID int64) string {
	return versionKeyPrefix + strconv.FormatInt(userID, 10)
}

func (c *redisUnreadCounter) Get(ctx context.Context, userID int64) (int64, bool) {
	if c.client == nil {
		return 0, false
	}
	n, err := c.client.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		if err != goredis.Nil {
			zlog.Warn("unread counter get failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return 0, false
	}
	return n, true
}

// Version 读取失败时返回 false，调用方不回填缓存
func (c *redisUnreadCounter) Version(ctx context.Context, userID int64) (int64, bool) {
	if c.client == nil {
		return 0, false
	}
	v, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if err == goredis.Nil {
		return 0, true
	}
	if err != nil {
		zlog.Warn("unread counter version failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (c *redisUnreadCounter) Set(ctx context.Context, userID int64, count int64, version int64) {
	if c.client == nil {
		return
	}
	err := setIfVersionScript.Run(ctx, c.client,
		[]string{versionKey(userID), unreadKey(userID)},
		strconv.FormatInt(version, 10), count, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		zlog.Warn("unread counter set failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (c *redisUnreadCounter) Invalidate(ctx context.Context, userIDs ...int64) {
	if c.client == nil || len(userIDs) == 0 {
		return
	}
	for start := 0; start < len(userIDs); start += invalidateChunk {
		end := start + invalidateChunk
		if end > len(userIDs) {
			end = len(userIDs)
		}
		chunk := userIDs[start:end]
		_, err := c.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
			for _, id := range chunk {
				p.Incr(ctx, versionKey(id))
				p.Expire(ctx, versionKey(id), versionTTL)
				p.Del(ctx, unreadKey(id))
			}
			return nil
		})
		if err != nil {
			zlog.Warn("unread counter invalidate failed", zap.Int("users", len(chunk)), zap.Error(err))
		}
	}
}
