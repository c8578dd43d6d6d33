package push

import (
	"context"
	"fmt"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/repository"

	"golang.org/x/time/rate"
)

// throttledSender 对推送服务请求限速，避免大批量扇出时触发服务商的频率限制
type throttledSender struct {
	inner   repository.PushSender
	limiter *rate.Limiter
}

// NewThrottledSender rps<=0 时不限速，直接返回 inner
func NewThrottledSender(inner repository.PushSender, rps float64, burst int) repository.PushSender {
	if rps <= 0 {
		return inner
	}
	if burst <= 0 {
		burst = 1
	}
	return &throttledSender{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (s *throttledSender) Send(ctx context.Context, msg entity.PushMessage) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("push rate limit wait: %w", err)
	}
	return s.inner.Send(ctx, msg)
}
