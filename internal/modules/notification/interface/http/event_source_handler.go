package handler

import (
	jwtMiddleware "NeighborGuard/internal/middleware/jwt"
	"NeighborGuard/internal/modules/notification/application/dto/request"
	"NeighborGuard/internal/modules/notification/application/dto/respond"
	"NeighborGuard/internal/modules/notification/application/service"
	"NeighborGuard/internal/modules/notification/domain/geo"
	"NeighborGuard/pkg/back"
	"NeighborGuard/pkg/xerr"
	"NeighborGuard/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventSourceHandler 事故 / 摄像头服务在自身写入成功后调用，立即返回
type EventSourceHandler struct {
	svc service.EventSourceService
}

func NewEventSourceHandler(svc service.EventSourceService) *EventSourceHandler {
	return &EventSourceHandler{svc: svc}
}

func reporterFromToken(c *gin.Context) *int64 {
	if id := c.GetInt64(jwtMiddleware.ContextUserID); id > 0 {
		return &id
	}
	return nil
}

func (h *EventSourceHandler) IncidentCreated(c *gin.Context) {
	var ev request.IncidentCreatedEvent
	if err := c.BindJSON(&ev); err != nil {
		zlog.Warn("bind incident event failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	if ev.IncidentId <= 0 {
		back.Error(c, xerr.BadRequest, "incident_id is required")
		return
	}
	if err := geo.Validate(geo.Point{Lat: ev.Latitude, Lng: ev.Longitude}); err != nil {
		back.Error(c, xerr.BadRequest, err.Error())
		return
	}
	if ev.ReporterId == nil {
		ev.ReporterId = reporterFromToken(c)
	}
	h.svc.IncidentCreated(c.Request.Context(), ev)
	back.Success(c, respond.AcceptedRespond{Accepted: true})
}

func (h *EventSourceHandler) CameraShared(c *gin.Context) {
	var ev request.CameraSharedEvent
	if err := c.BindJSON(&ev); err != nil {
		zlog.Warn("bind camera event failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	if ev.CameraId <= 0 {
		back.Error(c, xerr.BadRequest, "camera_id is required")
		return
	}
	if err := geo.Validate(geo.Point{Lat: ev.Latitude, Lng: ev.Longitude}); err != nil {
		back.Error(c, xerr.BadRequest, err.Error())
		return
	}
	if ev.ReporterId == nil {
		ev.ReporterId = reporterFromToken(c)
	}
	h.svc.CameraShared(c.Request.Context(), ev)
	back.Success(c, respond.AcceptedRespond{Accepted: true})
}
