package persistence

import (
	"context"

	"NeighborGuard/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
)

// 单条 IN 子句的最大 id 数
const inClauseChunk = 1000

type groupMembershipRepositoryImpl struct {
	db *gorm.DB
}

func NewGroupMembershipRepository(db *gorm.DB) repository.GroupMembershipRepository {
	return &groupMembershipRepositoryImpl{db: db}
}

func (r *groupMembershipRepositoryImpl) SharedGroup(ctx context.Context, userA, userB int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM user_security_groups AS a
JOIN user_security_groups AS b ON a.group_id = b.group_id
WHERE a.user_id = ? AND b.user_id = ?`, userA, userB).
		Scan(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *groupMembershipRepositoryImpl) SharedWith(ctx context.Context, userID int64, candidateIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for start := 0; start < len(candidateIDs); start += inClauseChunk {
		end := start + inClauseChunk
		if end > len(candidateIDs) {
			end = len(candidateIDs)
		}

		var ids []int64
		err := r.db.WithContext(ctx).
			Raw(`SELECT DISTINCT a.user_id FROM user_security_groups AS a
JOIN user_security_groups AS b ON a.group_id = b.group_id
WHERE b.user_id = ? AND a.user_id IN ?`, userID, candidateIDs[start:end]).
			Scan(&ids).Error
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			out[id] = true
		}
	}
	return out, nil
}
