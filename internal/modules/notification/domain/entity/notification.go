package entity

import (
	"time"

	"NeighborGuard/internal/modules/notification/domain/geo"
)

// ReportType 通知来源
type ReportType string

const (
	ReportTypeIncident ReportType = "incident"
	ReportTypeCamera   ReportType = "camera"
)

// Notification 每个事件创建一次，此后只有接收人的已读状态会变化。
// location 为 POINT SRID 4326 列，由持久化层在插入后单独写入，不经 gorm 映射。
type Notification struct {
	NotificationId   int64       `gorm:"column:notification_id;primaryKey;autoIncrement"`
	Type             string      `gorm:"column:type;type:varchar(255);not null"`
	Message          string      `gorm:"column:message;type:text"`
	ReportType       *ReportType `gorm:"column:report_type;type:enum('incident','camera')"`
	ForUserPrivateId *int64      `gorm:"column:for_user_private_id;index"`
	IncidentId       *int64      `gorm:"column:incident_id;index"`
	CameraId         *int64      `gorm:"column:camera_id;index"`
	CreatedAt        time.Time   `gorm:"column:created_at;type:datetime(6);not null;index"`

	Location *geo.Point `gorm:"-"`
}

func (Notification) TableName() string {
	return "Notifications"
}

// NotificationRecipient (notification_id, user_id) 复合主键，行只改已读状态，不删除
type NotificationRecipient struct {
	NotificationId int64      `gorm:"column:notification_id;primaryKey;autoIncrement:false"`
	UserId         int64      `gorm:"column:user_id;primaryKey;autoIncrement:false;index:idx_recipient_user_read,priority:1"`
	Read           bool       `gorm:"column:read;not null;default:false;index:idx_recipient_user_read,priority:2"`
	ReadAt         *time.Time `gorm:"column:read_at;type:datetime(6)"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:datetime(6);not null"`
}

func (NotificationRecipient) TableName() string {
	return "NotificationRecipients"
}

// NotificationView 用户通知列表项：通知 + 该用户的已读状态
type NotificationView struct {
	NotificationId      int64
	Type                string
	Message             string
	ReportType          *string
	CreatedAt           time.Time
	Latitude            *float64
	Longitude           *float64
	Read                bool
	ReadAt              *time.Time
	IncidentId          *int64
	IncidentType        *string
	IncidentDescription *string
	CameraId            *int64
	CameraDescription   *string
}
