package http

import (
	"context"
	"net/http"
	"time"

	"NeighborGuard/pkg/redis"
	"NeighborGuard/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// dependencyProbe 依赖检查；enabled 为 false 表示未启用，不参与判定
type dependencyProbe struct {
	enabled func() bool
	ping    func(ctx context.Context) error
	// required 失败时返回 503，否则只标记 degraded
	required bool
}

// healthHandler MySQL 不可用返回 503；Redis 只是缓存，不可用时仍返回 200
func healthHandler(probes map[string]dependencyProbe) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		checks := make(gin.H, len(probes))
		for name, p := range probes {
			if p.enabled != nil && !p.enabled() {
				checks[name] = "disabled"
				continue
			}
			if err := p.ping(ctx); err != nil {
				zlog.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				checks[name] = "down"
				if p.required {
					status, code = "down", http.StatusServiceUnavailable
				} else if status == "ok" {
					status = "degraded"
				}
				continue
			}
			checks[name] = "ok"
		}
		c.JSON(code, gin.H{"status": status, "checks": checks})
	}
}

func defaultProbes(db *gorm.DB) map[string]dependencyProbe {
	return map[string]dependencyProbe{
		"mysql": {
			required: true,
			ping: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
		"redis": {
			enabled: redis.IsConnected,
			ping:    redis.Ping,
		},
	}
}
