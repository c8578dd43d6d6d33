package persistence

import (
	"context"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
	"NeighborGuard/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type notificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepositoryImpl{db: db}
}

func (r *notificationRepositoryImpl) CreateNotification(ctx context.Context, n *entity.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepositoryImpl) SetLocation(ctx context.Context, notificationID int64, p geo.Point) error {
	return r.db.WithContext(ctx).
		Exec("UPDATE Notifications SET location = "+pointParam+" WHERE notification_id = ?", p.Lat, p.Lng, notificationID).
		Error
}

func (r *notificationRepositoryImpl) InsertRecipients(ctx context.Context, rows []entity.NotificationRecipient) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.Insert{Modifier: "IGNORE"}).
		Create(&rows).Error
}

func (r *notificationRepositoryImpl) MarkAsRead(ctx context.Context, notificationID, userID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.NotificationRecipient{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepositoryImpl) MarkAllAsRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.NotificationRecipient{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.NotificationRecipient{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *notificationRepositoryImpl) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]entity.NotificationView, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entity.NotificationRecipient{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entity.NotificationView{}, 0, nil
	}

	var views []entity.NotificationView
	err := r.db.WithContext(ctx).
		Table("Notifications AS n").
		Select(`n.notification_id, n.type, n.message, n.report_type, n.created_at,
ST_Latitude(n.location) AS latitude, ST_Longitude(n.location) AS longitude,
r.`+"`read`"+` AS `+"`read`"+`, r.read_at,
i.incident_id, i.type AS incident_type, i.description AS incident_description,
c.camera_id, c.description AS camera_description`).
		Joins("JOIN NotificationRecipients AS r ON r.notification_id = n.notification_id AND r.user_id = ?", userID).
		Joins("LEFT JOIN Incidents AS i ON i.incident_id = n.incident_id").
		Joins("LEFT JOIN cameras AS c ON c.camera_id = n.camera_id").
		Order("n.created_at DESC, n.notification_id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&views).Error
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

type notificationUnitOfWorkImpl struct {
	db *gorm.DB
}

func NewNotificationUnitOfWork(db *gorm.DB) repository.NotificationUnitOfWork {
	return &notificationUnitOfWorkImpl{db: db}
}

func (u *notificationUnitOfWorkImpl) Transaction(ctx context.Context, fn func(repo repository.NotificationRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewNotificationRepository(tx))
	})
}
