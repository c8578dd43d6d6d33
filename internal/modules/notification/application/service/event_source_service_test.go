package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"NeighborGuard/internal/modules/notification/application/dto/request"
	"NeighborGuard/internal/modules/notification/application/dto/respond"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotify struct {
	mu   sync.Mutex
	reqs []request.NotifyEventRequest
}

func (r *recordingNotify) NotifyEvent(ctx context.Context, req request.NotifyEventRequest) (*respond.NotifyEventRespond, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return &respond.NotifyEventRespond{NotificationId: int64(len(r.reqs))}, nil
}

func (r *recordingNotify) NotifyLocation(ctx context.Context, reporterID int64, req request.LocationNotificationRequest) (*respond.LocationNotificationRespond, error) {
	return nil, nil
}

func (r *recordingNotify) FindNearby(ctx context.Context, req request.NearbyUsersRequest) ([]respond.NearbyUserItem, error) {
	return nil, nil
}

func TestIncidentNotifyRequest(t *testing.T) {
	req := IncidentNotifyRequest(request.IncidentCreatedEvent{IncidentId: 3, Type: "Roubo", Latitude: 1, Longitude: 2})
	assert.Equal(t, "roubo", req.Category)
	assert.Equal(t, "Novo incidente", req.Message)
	assert.Equal(t, "incident", req.ReportType)
	assert.Equal(t, int64(3), *req.IncidentId)

	req = IncidentNotifyRequest(request.IncidentCreatedEvent{Type: "furto", Description: strPtr(" celular ")})
	assert.Equal(t, "celular", req.Message)
}

func TestCameraNotifyRequest(t *testing.T) {
	req := CameraNotifyRequest(request.CameraSharedEvent{CameraId: 8})
	assert.Equal(t, "camera", req.Category)
	assert.Equal(t, "Nova câmera compartilhada: Sem descrição", req.Message)

	req = CameraNotifyRequest(request.CameraSharedEvent{CameraId: 8, Description: strPtr("portão")})
	assert.Equal(t, "Nova câmera compartilhada: portão", req.Message)
}

func TestEventSource_DetachedFromCallerContext(t *testing.T) {
	rec := &recordingNotify{}
	svc := NewEventSourceService(rec)

	ctx, cancel := context.WithCancel(context.Background())
	svc.IncidentCreated(ctx, request.IncidentCreatedEvent{IncidentId: 1, Type: "furto"})
	svc.CameraShared(ctx, request.CameraSharedEvent{CameraId: 2})
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, svc.Wait(waitCtx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.reqs, 2)
}

func TestEventSource_EventsAfterWaitAreDropped(t *testing.T) {
	rec := &recordingNotify{}
	svc := NewEventSourceService(rec)

	require.NoError(t, svc.Wait(context.Background()))
	svc.IncidentCreated(context.Background(), request.IncidentCreatedEvent{IncidentId: 1, Type: "furto"})
	require.NoError(t, svc.Wait(context.Background()))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.reqs)
}

func TestEventSource_WaitConcurrentWithNewEvents(t *testing.T) {
	rec := &recordingNotify{}
	svc := NewEventSourceService(rec)

	var producers sync.WaitGroup
	for i := 0; i < 8; i++ {
		producers.Add(1)
		go func(id int64) {
			defer producers.Done()
			for j := 0; j < 50; j++ {
				svc.CameraShared(context.Background(), request.CameraSharedEvent{CameraId: id})
			}
		}(int64(i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NotPanics(t, func() { _ = svc.Wait(ctx) })
	producers.Wait()
	require.NoError(t, svc.Wait(ctx))

	rec.mu.Lock()
	accepted := len(rec.reqs)
	rec.mu.Unlock()
	assert.LessOrEqual(t, accepted, 400)
}
