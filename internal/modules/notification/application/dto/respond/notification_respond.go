package respond

import "time"

type NotifyEventRespond struct {
	NotificationId int64 `json:"notification_id"`
	RecipientCount int   `json:"recipient_count"`
}

// LocationNotificationRespond 与既有客户端约定的响应格式
type LocationNotificationRespond struct {
	Message        string `json:"message"`
	Status         bool   `json:"status"`
	NotificationId int64  `json:"notification_id"`
	Recipients     int    `json:"recipients"`
}

type NotificationItem struct {
	NotificationId int64          `json:"notification_id"`
	Type           string         `json:"type"`
	Message        string         `json:"message"`
	ReportType     *string        `json:"report_type"`
	CreatedAt      time.Time      `json:"created_at"`
	Latitude       *float64       `json:"latitude"`
	Longitude      *float64       `json:"longitude"`
	Read           bool           `json:"read"`
	ReadAt         *time.Time     `json:"read_at"`
	Incident       *IncidentBrief `json:"incident,omitempty"`
	Camera         *CameraBrief   `json:"camera,omitempty"`
}

type IncidentBrief struct {
	IncidentId  int64   `json:"incident_id"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

type CameraBrief struct {
	CameraId    int64   `json:"camera_id"`
	Description *string `json:"description"`
}

type NotificationListRespond struct {
	Notifications []NotificationItem `json:"notifications"`
	Total         int64              `json:"total"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
}

type UnreadCountRespond struct {
	Count int64 `json:"count"`
}

type SuccessRespond struct {
	Success bool `json:"success"`
}

type NearbyUserItem struct {
	UserId     int64   `json:"user_id"`
	DistanceKm float64 `json:"distance_km"`
}

// AcceptedRespond 事件已受理，通知在后台生成
type AcceptedRespond struct {
	Accepted bool `json:"accepted"`
}
