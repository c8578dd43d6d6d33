package repository

import (
	"context"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
)

// SubscriberQuery 按订阅类别查找候选人
type SubscriberQuery struct {
	Category entity.Category
	// Origin 非空时在 SQL 层计算距离并以 WithinKm 预过滤，无位置的用户被排除
	Origin        *geo.Point
	WithinKm      float64
	ExcludeUserId *int64
}

// UserDirectoryRepository 用户、偏好与位置的只读查询（用户 CRUD 由其他模块负责）
type UserDirectoryRepository interface {
	// FindUsersWithinRadius 半径内的用户，附带距离（km），由近及远
	FindUsersWithinRadius(ctx context.Context, origin geo.Point, radiusKm float64, excludeIDs []int64) ([]entity.Candidate, error)

	// FindCategorySubscribers 偏好中订阅了该类别的用户（附带 UserSetting）
	FindCategorySubscribers(ctx context.Context, q SubscriberQuery) ([]entity.Candidate, error)

	// FindGroupPeers 与上报人至少共享一个小组的用户，不含上报人本人
	FindGroupPeers(ctx context.Context, reporterID int64) ([]entity.Candidate, error)

	// GetCandidates 按 id 取用户联系方式
	GetCandidates(ctx context.Context, userIDs []int64) ([]entity.Candidate, error)
}
