package entity

import "NeighborGuard/internal/modules/notification/domain/geo"

// Origin 候选人进入接收集合的路径，仅用于记录
type Origin string

const (
	OriginSettings Origin = "settings"
	OriginGroup    Origin = "group"
	OriginDirect   Origin = "direct"
)

// Candidate 针对某个事件被评估的用户
type Candidate struct {
	UserId            int64
	Email             *string
	NotificationToken *string
	Location          *geo.Point
	DistanceKm        *float64
	Setting           *UserSetting
}

// ExternalID 推送渠道使用 email 作为 external user id，且要求已登记推送 token
func (c Candidate) ExternalID() (string, bool) {
	if c.NotificationToken == nil || *c.NotificationToken == "" {
		return "", false
	}
	if c.Email == nil || *c.Email == "" {
		return "", false
	}
	return *c.Email, true
}
