package service

import (
	"context"
	"strings"
	"time"

	"NeighborGuard/internal/modules/notification/application/dto/request"
	"NeighborGuard/internal/modules/notification/application/dto/respond"
	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
	"NeighborGuard/internal/modules/notification/domain/policy"
	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/util"
	"NeighborGuard/pkg/xerr"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

const locationNotificationSent = "Notificação enviada com sucesso"

type NotifyOptions struct {
	IncidentTemplateID string
	// DefaultMaxDistanceKm POST /notifications/location 未指定 maxDistanceKm 时使用
	DefaultMaxDistanceKm float64
}

// NotifyService 事件通知入口：校验、聚合、落库，然后把推送交给队列
type NotifyService interface {
	NotifyEvent(ctx context.Context, req request.NotifyEventRequest) (*respond.NotifyEventRespond, error)
	NotifyLocation(ctx context.Context, reporterID int64, req request.LocationNotificationRequest) (*respond.LocationNotificationRespond, error)
	FindNearby(ctx context.Context, req request.NearbyUsersRequest) ([]respond.NearbyUserItem, error)
}

type notifyServiceImpl struct {
	users      repository.UserDirectoryRepository
	aggregator CandidateAggregator
	persister  NotificationPersister
	queue      DispatchQueue
	unread     repository.UnreadCounter
	opts       NotifyOptions
	now        func() time.Time
}

func NewNotifyService(
	users repository.UserDirectoryRepository,
	aggregator CandidateAggregator,
	persister NotificationPersister,
	queue DispatchQueue,
	unread repository.UnreadCounter,
	opts NotifyOptions,
) NotifyService {
	if opts.DefaultMaxDistanceKm <= 0 {
		opts.DefaultMaxDistanceKm = policy.DefaultRadiusKm
	}
	return &notifyServiceImpl{
		users:      users,
		aggregator: aggregator,
		persister:  persister,
		queue:      queue,
		unread:     unread,
		opts:       opts,
		now:        time.Now,
	}
}

// validatedEvent 通过校验的请求
type validatedEvent struct {
	req        request.NotifyEventRequest
	category   entity.Category
	message    string
	location   *geo.Point
	reportType *entity.ReportType
}

func validateNotifyEvent(req request.NotifyEventRequest) (*validatedEvent, error) {
	cat, err := entity.ParseCategory(req.Category)
	if err != nil {
		return nil, xerr.Newf(xerr.BadRequest, "invalid category: %s", req.Category)
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, xerr.New(xerr.BadRequest, "message is required")
	}

	v := &validatedEvent{req: req, category: cat, message: msg}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, xerr.New(xerr.BadRequest, "latitude and longitude must be given together")
	}
	if req.Latitude != nil {
		p := geo.Point{Lat: *req.Latitude, Lng: *req.Longitude}
		if err := geo.Validate(p); err != nil {
			return nil, xerr.New(xerr.BadRequest, err.Error())
		}
		v.location = &p
	}
	if req.MaxDistanceKm != nil && (*req.MaxDistanceKm <= 0 || *req.MaxDistanceKm > entity.MaxRadiusKm) {
		return nil, xerr.Newf(xerr.BadRequest, "max_distance_km must be in (0, %.2f]", entity.MaxRadiusKm)
	}

	switch strings.ToLower(strings.TrimSpace(req.ReportType)) {
	case "":
		if req.IncidentId != nil {
			rt := entity.ReportTypeIncident
			v.reportType = &rt
		} else if req.CameraId != nil {
			rt := entity.ReportTypeCamera
			v.reportType = &rt
		}
	case string(entity.ReportTypeIncident):
		rt := entity.ReportTypeIncident
		v.reportType = &rt
	case string(entity.ReportTypeCamera):
		rt := entity.ReportTypeCamera
		v.reportType = &rt
	default:
		return nil, xerr.Newf(xerr.BadRequest, "invalid report_type: %s", req.ReportType)
	}
	return v, nil
}

func (s *notifyServiceImpl) NotifyEvent(ctx context.Context, req request.NotifyEventRequest) (*respond.NotifyEventRespond, error) {
	v, err := validateNotifyEvent(req)
	if err != nil {
		return nil, err
	}
	now := s.now()

	agg, err := s.recipientsFor(ctx, v, now)
	if err != nil {
		zlog.Error("aggregate notification recipients failed", zap.String("category", v.category.String()), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	recipientIDs := agg.RecipientIDs()

	n := &entity.Notification{
		Type:             v.category.String(),
		Message:          v.message,
		ReportType:       v.reportType,
		ForUserPrivateId: req.ForUserPrivateId,
		IncidentId:       req.IncidentId,
		CameraId:         req.CameraId,
		CreatedAt:        now,
		Location:         v.location,
	}
	res, err := s.persister.Persist(ctx, n, recipientIDs)
	if err != nil {
		zlog.Error("persist notification failed", zap.String("category", v.category.String()), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	if s.unread != nil && len(res.Inserted) > 0 {
		s.unread.Invalidate(ctx, res.Inserted...)
	}

	if len(res.Inserted) > 0 {
		s.enqueueDispatch(ctx, v, n, agg, res)
	}

	return &respond.NotifyEventRespond{
		NotificationId: n.NotificationId,
		RecipientCount: len(recipientIDs),
	}, nil
}

// recipientsFor 定向通知只发给指定用户，否则走聚合
func (s *notifyServiceImpl) recipientsFor(ctx context.Context, v *validatedEvent, now time.Time) (*Aggregation, error) {
	req := v.req
	if req.ForUserPrivateId != nil {
		agg := newAggregation()
		target := *req.ForUserPrivateId
		if req.ReporterId != nil && *req.ReporterId == target {
			return agg, nil
		}
		cs, err := s.users.GetCandidates(ctx, []int64{target})
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			agg.add(c, entity.OriginDirect)
		}
		return agg, nil
	}

	return s.aggregator.Aggregate(ctx, policy.Event{
		Category:      v.category,
		ReporterId:    req.ReporterId,
		Location:      v.location,
		MaxDistanceKm: req.MaxDistanceKm,
		OccurredAt:    now,
	})
}

func (s *notifyServiceImpl) enqueueDispatch(ctx context.Context, v *validatedEvent, n *entity.Notification, agg *Aggregation, res *PersistResult) {
	if s.queue == nil {
		return
	}
	title := strings.TrimSpace(v.req.Title)
	if title == "" {
		title = "Alerta: " + v.category.String()
	}
	job := &entity.DispatchJob{
		JobId:          util.GenerateUUID(),
		NotificationId: n.NotificationId,
		Category:       v.category.String(),
		Title:          title,
		Message:        v.message,
		Data:           dispatchData(n),
		ExternalIds:    agg.ExternalIDsExcept(res.Failed),
		RecipientIds:   res.Inserted,
		CreatedAt:      n.CreatedAt,
	}
	if n.ReportType != nil {
		job.ReportType = string(*n.ReportType)
		if *n.ReportType == entity.ReportTypeIncident {
			job.TemplateId = s.opts.IncidentTemplateID
		}
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		zlog.Warn("enqueue push dispatch failed",
			zap.String("job_id", job.JobId),
			zap.Int64("notification_id", n.NotificationId),
			zap.Int("external_ids", len(job.ExternalIds)),
			zap.Error(err),
		)
	}
}

func dispatchData(n *entity.Notification) map[string]interface{} {
	data := map[string]interface{}{
		"notification_id": n.NotificationId,
		"type":            n.Type,
	}
	if n.IncidentId != nil {
		data["incident_id"] = *n.IncidentId
	}
	if n.CameraId != nil {
		data["camera_id"] = *n.CameraId
	}
	if n.ReportType != nil {
		data["report_type"] = string(*n.ReportType)
	}
	if n.Location != nil {
		data["latitude"] = n.Location.Lat
		data["longitude"] = n.Location.Lng
	}
	return data
}

func (s *notifyServiceImpl) NotifyLocation(ctx context.Context, reporterID int64, req request.LocationNotificationRequest) (*respond.LocationNotificationRespond, error) {
	if reporterID <= 0 {
		return nil, xerr.New(xerr.Unauthorized, "missing user")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, xerr.New(xerr.BadRequest, "latitude and longitude are required")
	}
	ev := req.ToNotifyEvent(reporterID)
	if ev.MaxDistanceKm == nil {
		d := s.opts.DefaultMaxDistanceKm
		ev.MaxDistanceKm = &d
	}

	out, err := s.NotifyEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &respond.LocationNotificationRespond{
		Message:        locationNotificationSent,
		Status:         true,
		NotificationId: out.NotificationId,
		Recipients:     out.RecipientCount,
	}, nil
}

func (s *notifyServiceImpl) FindNearby(ctx context.Context, req request.NearbyUsersRequest) ([]respond.NearbyUserItem, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, xerr.New(xerr.BadRequest, "lat and lng are required")
	}
	origin := geo.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	if err := geo.Validate(origin); err != nil {
		return nil, xerr.New(xerr.BadRequest, err.Error())
	}
	radius := req.RadiusKm
	if radius <= 0 {
		radius = s.opts.DefaultMaxDistanceKm
	}
	if radius > entity.MaxRadiusKm {
		radius = entity.MaxRadiusKm
	}

	cs, err := s.users.FindUsersWithinRadius(ctx, origin, radius, nil)
	if err != nil {
		zlog.Error("find nearby users failed", zap.String("origin", origin.String()), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	out := make([]respond.NearbyUserItem, 0, len(cs))
	for _, c := range cs {
		item := respond.NearbyUserItem{UserId: c.UserId}
		if c.DistanceKm != nil {
			item.DistanceKm = *c.DistanceKm
		}
		out = append(out, item)
	}
	return out, nil
}
