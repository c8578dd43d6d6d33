package service

import (
	"context"

	"NeighborGuard/internal/modules/notification/domain/policy"
	"NeighborGuard/internal/modules/notification/domain/repository"
)

// GroupAffinityChecker 判断候选人与上报人是否共享小组
type GroupAffinityChecker interface {
	SharedGroup(ctx context.Context, userA, userB int64) (bool, error)
	// Prefetch 一次查询得到全部候选人的同组关系；reporterID 为空时返回空集合
	Prefetch(ctx context.Context, reporterID *int64, candidateIDs []int64) (policy.Affinity, error)
}

type groupAffinityCheckerImpl struct {
	repo repository.GroupMembershipRepository
}

func NewGroupAffinityChecker(repo repository.GroupMembershipRepository) GroupAffinityChecker {
	return &groupAffinityCheckerImpl{repo: repo}
}

// SharedGroup 两人小组集合有交集即为 true；a == b 时等价于“是否属于任一小组”
func (g *groupAffinityCheckerImpl) SharedGroup(ctx context.Context, userA, userB int64) (bool, error) {
	return g.repo.SharedGroup(ctx, userA, userB)
}

func (g *groupAffinityCheckerImpl) Prefetch(ctx context.Context, reporterID *int64, candidateIDs []int64) (policy.Affinity, error) {
	if reporterID == nil || len(candidateIDs) == 0 {
		return policy.AffinitySet{}, nil
	}
	shared, err := g.repo.SharedWith(ctx, *reporterID, candidateIDs)
	if err != nil {
		return nil, err
	}
	set := make(policy.AffinitySet, len(shared))
	for id, ok := range shared {
		if ok && id != *reporterID {
			set[id] = true
		}
	}
	return set, nil
}
