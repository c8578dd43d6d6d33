package request

// IncidentCreatedEvent 事故创建后由事件源推送
type IncidentCreatedEvent struct {
	IncidentId  int64   `json:"incident_id"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ReporterId  *int64  `json:"reporter_id"`
}

// CameraSharedEvent 摄像头共享后由事件源推送
type CameraSharedEvent struct {
	CameraId    int64   `json:"camera_id"`
	Description *string `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ReporterId  *int64  `json:"reporter_id"`
}
