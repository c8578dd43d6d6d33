package service

import (
	"context"
	"fmt"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

const defaultRecipientInsertBatch = 500

// PersistResult Failed 非空表示通知已落库但接收人不完整
type PersistResult struct {
	Notification *entity.Notification
	Inserted     []int64
	Failed       []int64
}

func (r *PersistResult) Consistent() bool {
	return len(r.Failed) == 0
}

type NotificationPersister interface {
	Persist(ctx context.Context, n *entity.Notification, recipientIDs []int64) (*PersistResult, error)
}

type notificationPersisterImpl struct {
	repo      repository.NotificationRepository
	uow       repository.NotificationUnitOfWork
	batchSize int
	now       func() time.Time
}

func NewNotificationPersister(repo repository.NotificationRepository, uow repository.NotificationUnitOfWork, batchSize int) NotificationPersister {
	if batchSize <= 0 {
		batchSize = defaultRecipientInsertBatch
	}
	return &notificationPersisterImpl{repo: repo, uow: uow, batchSize: batchSize, now: time.Now}
}

func (p *notificationPersisterImpl) Persist(ctx context.Context, n *entity.Notification, recipientIDs []int64) (*PersistResult, error) {
	if n == nil {
		return nil, fmt.Errorf("nil notification")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = p.now()
	}

	// 通知行与位置列同事务写入；失败则整体失败
	err := p.uow.Transaction(ctx, func(repo repository.NotificationRepository) error {
		if err := repo.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		if n.Location != nil {
			if err := repo.SetLocation(ctx, n.NotificationId, *n.Location); err != nil {
				return fmt.Errorf("set notification location: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &PersistResult{Notification: n}
	if len(recipientIDs) == 0 {
		return res, nil
	}

	for start := 0; start < len(recipientIDs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(recipientIDs) {
			end = len(recipientIDs)
		}
		chunk := recipientIDs[start:end]
		rows := make([]entity.NotificationRecipient, 0, len(chunk))
		for _, uid := range chunk {
			rows = append(rows, entity.NotificationRecipient{
				NotificationId: n.NotificationId,
				UserId:         uid,
				CreatedAt:      n.CreatedAt,
			})
		}
		if err := p.repo.InsertRecipients(ctx, rows); err != nil {
			zlog.Error("notification recipients partially persisted",
				zap.Int64("notification_id", n.NotificationId),
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(chunk)),
				zap.Int("total_recipients", len(recipientIDs)),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, chunk...)
			continue
		}
		res.Inserted = append(res.Inserted, chunk...)
	}
	return res, nil
}
