package service

import (
	"context"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

const (
	DefaultDispatchBatchSize = 1000
	defaultBatchTimeout      = 5 * time.Second
)

// DispatchReport 一次推送任务的结果，只用于日志与测试
type DispatchReport struct {
	Batches       int
	FailedBatches int
	Sent          int
	Failed        int
}

// DispatchBatcher 把外部 id 切成批次逐批推送。失败只记录日志，不向调用方返回
type DispatchBatcher interface {
	Dispatch(ctx context.Context, job *entity.DispatchJob) DispatchReport
}

type dispatchBatcherImpl struct {
	sender    repository.PushSender
	batchSize int
	timeout   time.Duration
}

func NewDispatchBatcher(sender repository.PushSender, batchSize int, timeout time.Duration) DispatchBatcher {
	if batchSize <= 0 {
		batchSize = DefaultDispatchBatchSize
	}
	if timeout <= 0 {
		timeout = defaultBatchTimeout
	}
	return &dispatchBatcherImpl{sender: sender, batchSize: batchSize, timeout: timeout}
}

func (b *dispatchBatcherImpl) Dispatch(ctx context.Context, job *entity.DispatchJob) DispatchReport {
	var rep DispatchReport
	if job == nil || len(job.ExternalIds) == 0 {
		return rep
	}

	for start := 0; start < len(job.ExternalIds); start += b.batchSize {
		end := start + b.batchSize
		if end > len(job.ExternalIds) {
			end = len(job.ExternalIds)
		}
		batch := job.ExternalIds[start:end]
		rep.Batches++

		err := b.sendBatch(ctx, job, batch)
		if err != nil {
			rep.FailedBatches++
			rep.Failed += len(batch)
			zlog.Warn("push batch delivery failed",
				zap.String("job_id", job.JobId),
				zap.Int64("notification_id", job.NotificationId),
				zap.Int("batch", rep.Batches),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		rep.Sent += len(batch)
	}

	zlog.Info("push dispatch finished",
		zap.String("job_id", job.JobId),
		zap.Int64("notification_id", job.NotificationId),
		zap.Int("batches", rep.Batches),
		zap.Int("failed_batches", rep.FailedBatches),
		zap.Int("sent", rep.Sent),
	)
	return rep
}

func (b *dispatchBatcherImpl) sendBatch(ctx context.Context, job *entity.DispatchJob, batch []string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.sender.Send(ctx, entity.PushMessage{
		Title:       job.Title,
		Body:        job.Message,
		TemplateId:  job.TemplateId,
		Data:        job.Data,
		ExternalIds: batch,
	})
}
