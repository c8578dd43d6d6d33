// Package policy 决定单个候选人是否接收某个事件的通知
package policy

import (
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
)

const (
	ReasonAccepted      = "accepted"
	ReasonSelf          = "reporter"
	ReasonNoSetting     = "no_setting"
	ReasonCategory      = "category_not_subscribed"
	ReasonGroupOnly     = "group_only_no_shared_group"
	ReasonQuietHours    = "outside_notify_period"
	ReasonNoLocation    = "no_location"
	ReasonOutsideRadius = "outside_radius"
	DefaultRadiusKm     = 5.0
)

// Decision 评估结果，Reason 仅用于日志
type Decision struct {
	Accept bool
	Reason string
}

func accept() Decision              { return Decision{Accept: true, Reason: ReasonAccepted} }
func reject(reason string) Decision { return Decision{Reason: reason} }

// Event 评估所需的事件视图
type Event struct {
	Category      entity.Category
	ReporterId    *int64
	Location      *geo.Point
	MaxDistanceKm *float64
	OccurredAt    time.Time
}

// Affinity 候选人是否与上报人同组，由调用方批量预取
type Affinity interface {
	SharesGroup(candidateID int64) bool
}

// AffinitySet 以集合实现 Affinity
type AffinitySet map[int64]bool

func (s AffinitySet) SharesGroup(candidateID int64) bool {
	return s[candidateID]
}

type Resolver struct {
	defaultRadiusKm float64
	loc             *time.Location
}

func NewResolver(defaultRadiusKm float64, loc *time.Location) *Resolver {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultRadiusKm
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{defaultRadiusKm: defaultRadiusKm, loc: loc}
}

// Evaluate 规则顺序：本人 → 无偏好 → 类别 → 仅同组 → 通知时段 → 半径
func (r *Resolver) Evaluate(c entity.Candidate, ev Event, aff Affinity) Decision {
	if ev.ReporterId != nil && c.UserId == *ev.ReporterId {
		return reject(ReasonSelf)
	}

	s := c.Setting
	if s == nil {
		return reject(ReasonNoSetting)
	}

	if !s.Category.Contains(ev.Category) {
		return reject(ReasonCategory)
	}

	if s.GroupOnly {
		// 匿名上报不可能与任何人同组
		if ev.ReporterId == nil || aff == nil || !aff.SharesGroup(c.UserId) {
			return reject(ReasonGroupOnly)
		}
	}

	if !r.inNotifyPeriod(s, ev.OccurredAt) {
		return reject(ReasonQuietHours)
	}

	if ev.Location != nil {
		if c.Location == nil {
			return reject(ReasonNoLocation)
		}
		radius := r.ApplicableRadiusKm(s, ev.MaxDistanceKm)
		// SQL 已算出的距离优先
		inside := geo.Within(*ev.Location, *c.Location, radius)
		if c.DistanceKm != nil {
			inside = *c.DistanceKm <= radius
		}
		if !inside {
			return reject(ReasonOutsideRadius)
		}
	}

	return accept()
}

// ApplicableRadiusKm 个人半径（缺省回退系统默认），再以请求级上限截断
func (r *Resolver) ApplicableRadiusKm(s *entity.UserSetting, maxDistanceKm *float64) float64 {
	radius := s.EffectiveRadiusKm(r.defaultRadiusKm)
	if maxDistanceKm != nil && *maxDistanceKm > 0 && *maxDistanceKm < radius {
		radius = *maxDistanceKm
	}
	return radius
}

func (r *Resolver) inNotifyPeriod(s *entity.UserSetting, at time.Time) bool {
	start, end, ok, err := s.QuietWindow()
	if err != nil || !ok {
		return true
	}
	if at.IsZero() {
		at = time.Now()
	}
	local := at.In(r.loc)
	now := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if start <= end {
		return now >= start && now <= end
	}
	// 跨午夜，例如 22:00 - 06:00
	return now >= start || now <= end
}
