package service

import (
	"context"
	"time"

	"NeighborGuard/internal/modules/notification/application/dto/request"
	"NeighborGuard/internal/modules/notification/application/dto/respond"
	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/xerr"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ReadStateService 接收人的已读状态，只由接收人本人修改
type ReadStateService interface {
	MarkAsRead(ctx context.Context, notificationID, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	CountUnread(ctx context.Context, userID int64) (int64, error)
	ListNotifications(ctx context.Context, req request.ListNotificationsRequest) (*respond.NotificationListRespond, error)
}

type readStateServiceImpl struct {
	repo   repository.NotificationRepository
	unread repository.UnreadCounter
	now    func() time.Time
}

func NewReadStateService(repo repository.NotificationRepository, unread repository.UnreadCounter) ReadStateService {
	return &readStateServiceImpl{repo: repo, unread: unread, now: time.Now}
}

// MarkAsRead 行不存在或不属于该用户时为 no-op
func (s *readStateServiceImpl) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	if notificationID <= 0 || userID <= 0 {
		return xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	n, err := s.repo.MarkAsRead(ctx, notificationID, userID, s.now())
	if err != nil {
		zlog.Error("mark notification as read failed", zap.Int64("notification_id", notificationID), zap.Int64("user_id", userID), zap.Error(err))
		return xerr.ErrServerError
	}
	if n > 0 && s.unread != nil {
		s.unread.Invalidate(ctx, userID)
	}
	return nil
}

func (s *readStateServiceImpl) MarkAllAsRead(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	if _, err := s.repo.MarkAllAsRead(ctx, userID, s.now()); err != nil {
		zlog.Error("mark all notifications as read failed", zap.Int64("user_id", userID), zap.Error(err))
		return xerr.ErrServerError
	}
	if s.unread != nil {
		s.unread.Invalidate(ctx, userID)
	}
	return nil
}

func (s *readStateServiceImpl) CountUnread(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	if s.unread != nil {
		if n, ok := s.unread.Get(ctx, userID); ok {
			return n, nil
		}
	}
	// 版本须在回源之前读取
	var version int64
	cacheable := false
	if s.unread != nil {
		version, cacheable = s.unread.Version(ctx, userID)
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		zlog.Error("count unread notifications failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, xerr.ErrServerError
	}
	if cacheable {
		s.unread.Set(ctx, userID, n, version)
	}
	return n, nil
}

func (s *readStateServiceImpl) ListNotifications(ctx context.Context, req request.ListNotificationsRequest) (*respond.NotificationListRespond, error) {
	if req.UserId <= 0 {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	limit, offset := normalizePage(req.Limit, req.Offset)

	views, total, err := s.repo.ListForUser(ctx, req.UserId, limit, offset)
	if err != nil {
		zlog.Error("list notifications failed", zap.Int64("user_id", req.UserId), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	items := make([]respond.NotificationItem, 0, len(views))
	for _, v := range views {
		items = append(items, toNotificationItem(v))
	}
	return &respond.NotificationListRespond{
		Notifications: items,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func toNotificationItem(v entity.NotificationView) respond.NotificationItem {
	item := respond.NotificationItem{
		NotificationId: v.NotificationId,
		Type:           v.Type,
		Message:        v.Message,
		ReportType:     v.ReportType,
		CreatedAt:      v.CreatedAt,
		Latitude:       v.Latitude,
		Longitude:      v.Longitude,
		Read:           v.Read,
		ReadAt:         v.ReadAt,
	}
	if v.IncidentId != nil {
		item.Incident = &respond.IncidentBrief{
			IncidentId:  *v.IncidentId,
			Type:        v.IncidentType,
			Description: v.IncidentDescription,
		}
	}
	if v.CameraId != nil {
		item.Camera = &respond.CameraBrief{
			CameraId:    *v.CameraId,
			Description: v.CameraDescription,
		}
	}
	return item
}
