package service

import (
	"context"

	"NeighborGuard/internal/modules/notification/domain/entity"
)

// DispatchQueue 推送任务的异步交接点。Enqueue 不等待推送完成
type DispatchQueue interface {
	Enqueue(ctx context.Context, job *entity.DispatchJob) error
}

// RealtimePublisher 站内实时通道，返回成功投递的在线用户数
type RealtimePublisher interface {
	PublishToUsers(userIDs []int64, event interface{}) int
}

// RealtimeNotificationEvent 推给在线客户端的消息
type RealtimeNotificationEvent struct {
	Kind           string                 `json:"kind"`
	NotificationId int64                  `json:"notification_id"`
	Category       string                 `json:"category"`
	Title          string                 `json:"title,omitempty"`
	Message        string                 `json:"message,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

const RealtimeKindNotificationCreated = "notification.created"

// DispatchProcessor 队列消费端：外部推送 + 站内实时通道
type DispatchProcessor interface {
	Process(ctx context.Context, job *entity.DispatchJob) DispatchReport
}

type dispatchProcessorImpl struct {
	batcher  DispatchBatcher
	realtime RealtimePublisher
}

func NewDispatchProcessor(batcher DispatchBatcher, realtime RealtimePublisher) DispatchProcessor {
	return &dispatchProcessorImpl{batcher: batcher, realtime: realtime}
}

func (p *dispatchProcessorImpl) Process(ctx context.Context, job *entity.DispatchJob) DispatchReport {
	if job == nil {
		return DispatchReport{}
	}
	rep := p.batcher.Dispatch(ctx, job)
	if p.realtime != nil && len(job.RecipientIds) > 0 {
		p.realtime.PublishToUsers(job.RecipientIds, RealtimeNotificationEvent{
			Kind:           RealtimeKindNotificationCreated,
			NotificationId: job.NotificationId,
			Category:       job.Category,
			Title:          job.Title,
			Message:        job.Message,
			Data:           job.Data,
		})
	}
	return rep
}
