package entity

import "time"

// DispatchJob 一次通知的外部推送任务，交给异步队列执行
type DispatchJob struct {
	JobId          string                 `json:"job_id"`
	NotificationId int64                  `json:"notification_id"`
	Category       string                 `json:"category"`
	ReportType     string                 `json:"report_type,omitempty"`
	Title          string                 `json:"title,omitempty"`
	Message        string                 `json:"message,omitempty"`
	TemplateId     string                 `json:"template_id,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	ExternalIds    []string               `json:"external_ids"`
	RecipientIds   []int64                `json:"recipient_ids"`
	CreatedAt      time.Time              `json:"created_at"`
}
