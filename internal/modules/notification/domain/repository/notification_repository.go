package repository

import (
	"context"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *entity.Notification) error

	// SetLocation 通知插入后写入位置列
	SetLocation(ctx context.Context, notificationID int64, p geo.Point) error

	// InsertRecipients 批量插入接收人，已存在的 (notification_id, user_id) 忽略
	InsertRecipients(ctx context.Context, rows []entity.NotificationRecipient) error

	// MarkAsRead 返回受影响行数，0 表示无匹配行
	MarkAsRead(ctx context.Context, notificationID, userID int64, at time.Time) (int64, error)

	MarkAllAsRead(ctx context.Context, userID int64, at time.Time) (int64, error)

	CountUnread(ctx context.Context, userID int64) (int64, error)

	// ListForUser 用户的通知（含已读状态），按创建时间倒序
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]entity.NotificationView, int64, error)
}

// NotificationUnitOfWork 在同一事务中执行通知写入
type NotificationUnitOfWork interface {
	Transaction(ctx context.Context, fn func(repo NotificationRepository) error) error
}

// UnreadCounter 未读数缓存，未命中或不可用时回源数据库。
// 回填前先取 Version，Set 只在版本未被 Invalidate 推进时写入，回源期间的失效不会被旧值覆盖。
type UnreadCounter interface {
	Get(ctx context.Context, userID int64) (int64, bool)
	Version(ctx context.Context, userID int64) (int64, bool)
	Set(ctx context.Context, userID int64, count int64, version int64)
	Invalidate(ctx context.Context, userIDs ...int64)
}
