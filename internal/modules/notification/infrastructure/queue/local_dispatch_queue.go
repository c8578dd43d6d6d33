package queue

import (
	"context"
	"errors"
	"sync"

	"NeighborGuard/internal/modules/notification/application/service"
	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("dispatch queue is full")
	ErrQueueClosed = errors.New("dispatch queue is closed")
)

// LocalDispatchQueue 进程内有界队列 + 固定数量 worker。
// Enqueue 不阻塞；队列满时返回 ErrQueueFull，由调用方记录日志。
type LocalDispatchQueue struct {
	processor service.DispatchProcessor
	jobs      chan *entity.DispatchJob
	workers   int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalDispatchQueue(processor service.DispatchProcessor, size, workers int) *LocalDispatchQueue {
	if size <= 0 {
		size = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	return &LocalDispatchQueue{
		processor: processor,
		jobs:      make(chan *entity.DispatchJob, size),
		workers:   workers,
	}
}

func (q *LocalDispatchQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i)
	}
}

func (q *LocalDispatchQueue) work(ctx context.Context, id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(ctx, id, job)
	}
}

func (q *LocalDispatchQueue) process(ctx context.Context, id int, job *entity.DispatchJob) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error("dispatch worker panic", zap.Int("worker", id), zap.String("job_id", job.JobId), zap.Any("panic", r))
		}
	}()
	q.processor.Process(ctx, job)
}

func (q *LocalDispatchQueue) Enqueue(ctx context.Context, job *entity.DispatchJob) error {
	if job == nil {
		return nil
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 停止接收新任务，等待已入队的任务处理完；ctx 到期则不再等待
func (q *LocalDispatchQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
