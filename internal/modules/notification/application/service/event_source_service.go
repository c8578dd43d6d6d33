package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"NeighborGuard/internal/modules/notification/application/dto/request"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

const (
	defaultIncidentMessage = "Novo incidente"
	cameraMessagePrefix    = "Nova câmera compartilhada: "
	cameraNoDescription    = "Sem descrição"
	detachedNotifyTimeout  = 30 * time.Second
)

// EventSourceService 事故 / 摄像头创建后的通知入口。
// 通知在后台执行，事件本身的创建结果不受影响。
type EventSourceService interface {
	IncidentCreated(ctx context.Context, ev request.IncidentCreatedEvent)
	CameraShared(ctx context.Context, ev request.CameraSharedEvent)
	// Wait 停止接收新事件并等待后台通知结束，ctx 到期则放弃等待
	Wait(ctx context.Context) error
}

type eventSourceServiceImpl struct {
	notify  NotifyService
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewEventSourceService(notify NotifyService) EventSourceService {
	return &eventSourceServiceImpl{notify: notify, timeout: detachedNotifyTimeout}
}

func IncidentNotifyRequest(ev request.IncidentCreatedEvent) request.NotifyEventRequest {
	msg := defaultIncidentMessage
	if ev.Description != nil && strings.TrimSpace(*ev.Description) != "" {
		msg = strings.TrimSpace(*ev.Description)
	}
	lat, lng := ev.Latitude, ev.Longitude
	id := ev.IncidentId
	return request.NotifyEventRequest{
		Category:   strings.ToLower(strings.TrimSpace(ev.Type)),
		Message:    msg,
		Latitude:   &lat,
		Longitude:  &lng,
		ReporterId: ev.ReporterId,
		IncidentId: &id,
		ReportType: "incident",
	}
}

func CameraNotifyRequest(ev request.CameraSharedEvent) request.NotifyEventRequest {
	desc := cameraNoDescription
	if ev.Description != nil && strings.TrimSpace(*ev.Description) != "" {
		desc = strings.TrimSpace(*ev.Description)
	}
	lat, lng := ev.Latitude, ev.Longitude
	id := ev.CameraId
	return request.NotifyEventRequest{
		Category:   "camera",
		Message:    cameraMessagePrefix + desc,
		Latitude:   &lat,
		Longitude:  &lng,
		ReporterId: ev.ReporterId,
		CameraId:   &id,
		ReportType: "camera",
	}
}

func (s *eventSourceServiceImpl) IncidentCreated(ctx context.Context, ev request.IncidentCreatedEvent) {
	s.notifyDetached(ctx, "incident", ev.IncidentId, IncidentNotifyRequest(ev))
}

func (s *eventSourceServiceImpl) CameraShared(ctx context.Context, ev request.CameraSharedEvent) {
	s.notifyDetached(ctx, "camera", ev.CameraId, CameraNotifyRequest(ev))
}

func (s *eventSourceServiceImpl) notifyDetached(ctx context.Context, source string, sourceID int64, req request.NotifyEventRequest) {
	// 脱离调用方的取消，调用方返回后通知仍然继续
	base := context.WithoutCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		zlog.Warn("event source closed, notification dropped",
			zap.String("source", source),
			zap.Int64("source_id", sourceID),
		)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		runCtx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()

		out, err := s.notify.NotifyEvent(runCtx, req)
		if err != nil {
			zlog.Warn("detached notification failed",
				zap.String("source", source),
				zap.Int64("source_id", sourceID),
				zap.String("category", req.Category),
				zap.Error(err),
			)
			return
		}
		zlog.Info("detached notification created",
			zap.String("source", source),
			zap.Int64("source_id", sourceID),
			zap.Int64("notification_id", out.NotificationId),
			zap.Int("recipients", out.RecipientCount),
		)
	}()
}

func (s *eventSourceServiceImpl) Wait(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
