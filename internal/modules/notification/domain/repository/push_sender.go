package repository

import (
	"context"

	"NeighborGuard/internal/modules/notification/domain/entity"
)

// PushSender 外部推送渠道。一次调用只尝试一次，不做重试
type PushSender interface {
	Send(ctx context.Context, msg entity.PushMessage) error
}
