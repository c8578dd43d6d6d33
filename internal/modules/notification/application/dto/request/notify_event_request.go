package request

// NotifyEventRequest 通用事件通知入参
type NotifyEventRequest struct {
	Category         string   `json:"category"`
	Title            string   `json:"title"`
	Message          string   `json:"message"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	ReporterId       *int64   `json:"reporter_id"`
	IncidentId       *int64   `json:"incident_id"`
	CameraId         *int64   `json:"camera_id"`
	ReportType       string   `json:"report_type"`
	MaxDistanceKm    *float64 `json:"max_distance_km"`
	ForUserPrivateId *int64   `json:"for_user_private_id"`
}

// LocationNotificationRequest POST /notifications/location，上报人取自登录态
type LocationNotificationRequest struct {
	Type          string   `json:"type"`
	Message       string   `json:"message"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	MaxDistanceKm *float64 `json:"maxDistanceKm"`
	IncidentId    *int64   `json:"incidentId"`
	CameraId      *int64   `json:"cameraId"`
	ReportType    string   `json:"reportType"`
}

// ToNotifyEvent 转换为通用请求
func (r LocationNotificationRequest) ToNotifyEvent(reporterID int64) NotifyEventRequest {
	return NotifyEventRequest{
		Category:      r.Type,
		Message:       r.Message,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		ReporterId:    &reporterID,
		IncidentId:    r.IncidentId,
		CameraId:      r.CameraId,
		ReportType:    r.ReportType,
		MaxDistanceKm: r.MaxDistanceKm,
	}
}
