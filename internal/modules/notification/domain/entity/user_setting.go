package entity

import (
	"fmt"
	"time"
)

const (
	MinRadiusKm = 0.1
	MaxRadiusKm = 999.99
)

// UserSetting 用户通知偏好，每个用户至多一条
type UserSetting struct {
	SettingId   int64       `gorm:"column:setting_id;primaryKey;autoIncrement"`
	UserId      int64       `gorm:"column:user_id;index"`
	RadiusKm    *float64    `gorm:"column:radius_km;type:decimal(5,2);default:5.00"`
	Category    CategorySet `gorm:"column:category;type:text"`
	PeriodStart *string     `gorm:"column:period_start;type:time"`
	PeriodEnd   *string     `gorm:"column:period_end;type:time"`
	GroupOnly   bool        `gorm:"column:group_only;not null;default:false"`
	CreatedAt   time.Time   `gorm:"column:created_at"`
}

func (UserSetting) TableName() string {
	return "user_settings"
}

// EffectiveRadiusKm 个人半径未设置或越界时回退到默认值
func (s *UserSetting) EffectiveRadiusKm(fallback float64) float64 {
	if s == nil || s.RadiusKm == nil || *s.RadiusKm <= MinRadiusKm || *s.RadiusKm > MaxRadiusKm {
		return fallback
	}
	return *s.RadiusKm
}

// QuietWindow 返回 [start, end] 时段（一天中的秒数），任一端为空时 ok=false
func (s *UserSetting) QuietWindow() (start, end int, ok bool, err error) {
	if s == nil || s.PeriodStart == nil || s.PeriodEnd == nil {
		return 0, 0, false, nil
	}
	if start, err = parseClock(*s.PeriodStart); err != nil {
		return 0, 0, false, err
	}
	if end, err = parseClock(*s.PeriodEnd); err != nil {
		return 0, 0, false, err
	}
	return start, end, true, nil
}

func parseClock(v string) (int, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", v)
}

// GroupMembership 用户与安全小组的成员关系
type GroupMembership struct {
	UserId  int64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	GroupId int64 `gorm:"column:group_id;primaryKey;autoIncrement:false"`
}

func (GroupMembership) TableName() string {
	return "user_security_groups"
}
