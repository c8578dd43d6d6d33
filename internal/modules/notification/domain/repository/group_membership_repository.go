package repository

import "context"

type GroupMembershipRepository interface {
	// SharedGroup 两个用户是否至少共享一个小组
	SharedGroup(ctx context.Context, userA, userB int64) (bool, error)

	// SharedWith 批量版本：返回与 userID 共享小组的 candidateIDs 子集
	SharedWith(ctx context.Context, userID int64, candidateIDs []int64) (map[int64]bool, error)
}
