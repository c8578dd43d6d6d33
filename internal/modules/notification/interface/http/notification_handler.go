package handler

import (
	"strconv"

	jwtMiddleware "NeighborGuard/internal/middleware/jwt"
	"NeighborGuard/internal/modules/notification/application/dto/request"
	"NeighborGuard/internal/modules/notification/application/dto/respond"
	"NeighborGuard/internal/modules/notification/application/service"
	"NeighborGuard/pkg/back"
	"NeighborGuard/pkg/xerr"
	"NeighborGuard/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notify service.NotifyService
	reads  service.ReadStateService
}

func NewNotificationHandler(notify service.NotifyService, reads service.ReadStateService) *NotificationHandler {
	return &NotificationHandler{notify: notify, reads: reads}
}

func currentUserID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(jwtMiddleware.ContextUserID)
	if id <= 0 {
		back.Error(c, xerr.Unauthorized, "missing user")
		return 0, false
	}
	return id, true
}

// List GET /notifications?limit=&offset=
func (h *NotificationHandler) List(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req request.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	req.UserId = uid
	data, err := h.reads.ListNotifications(c.Request.Context(), req)
	back.Result(c, data, err)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.reads.CountUnread(c.Request.Context(), uid)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.UnreadCountRespond{Count: n})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	nid, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || nid <= 0 {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	if err := h.reads.MarkAsRead(c.Request.Context(), nid, uid); err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.SuccessRespond{Success: true})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.reads.MarkAllAsRead(c.Request.Context(), uid); err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, respond.SuccessRespond{Success: true})
}

// NotifyLocation POST /notifications/location，当前用户即上报人
func (h *NotificationHandler) NotifyLocation(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req request.LocationNotificationRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Warn("bind location notification failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.notify.NotifyLocation(c.Request.Context(), uid, req)
	back.Result(c, data, err)
}

// NotifyEvent POST /notifications/events。上报人取登录用户，body 中的 reporter_id 被覆盖
func (h *NotificationHandler) NotifyEvent(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req request.NotifyEventRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Warn("bind notify event failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	req.ReporterId = &uid
	data, err := h.notify.NotifyEvent(c.Request.Context(), req)
	back.Result(c, data, err)
}

func (h *NotificationHandler) Nearby(c *gin.Context) {
	var req request.NearbyUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.notify.FindNearby(c.Request.Context(), req)
	back.Result(c, data, err)
}
