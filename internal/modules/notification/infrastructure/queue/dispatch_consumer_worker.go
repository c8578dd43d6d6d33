package queue

import (
	"context"
	"encoding/json"
	"errors"

	"NeighborGuard/internal/modules/notification/application/service"
	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/infrastructure/mq"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

// DispatchConsumerWorker 消费 Kafka 中的推送任务。
// 每个任务只执行一次：推送失败不会让消息重投。
type DispatchConsumerWorker struct {
	consumer  mq.Consumer
	processor service.DispatchProcessor
}

func NewDispatchConsumerWorker(consumer mq.Consumer, processor service.DispatchProcessor) *DispatchConsumerWorker {
	return &DispatchConsumerWorker{consumer: consumer, processor: processor}
}

func (w *DispatchConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.processor == nil {
		return errors.New("processor is nil")
	}
	return w.consumer.Run(ctx, w)
}

func (w *DispatchConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var job entity.DispatchJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		zlog.Warn("dispatch consumer invalid job", zap.String("topic", msg.Topic), zap.String("job_id", msg.Headers[mq.HeaderJobID]), zap.Error(err))
		return nil
	}
	if job.NotificationId <= 0 {
		zlog.Warn("dispatch consumer job without notification", zap.String("job_id", job.JobId))
		return nil
	}
	w.processor.Process(ctx, &job)
	return nil
}

func (w *DispatchConsumerWorker) Close() error {
	if w == nil || w.consumer == nil {
		return nil
	}
	return w.consumer.Close()
}
