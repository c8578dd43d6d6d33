package service

import (
	"context"
	"fmt"
	"sort"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/policy"
	"NeighborGuard/internal/modules/notification/domain/repository"
	"NeighborGuard/pkg/zlog"

	"go.uber.org/zap"
)

// Aggregation 去重后的接收集合
type Aggregation struct {
	recipients []entity.Candidate
	origins    map[int64]entity.Origin
}

func newAggregation() *Aggregation {
	return &Aggregation{origins: make(map[int64]entity.Origin)}
}

// add 同一用户只保留第一次出现时的来源
func (a *Aggregation) add(c entity.Candidate, origin entity.Origin) {
	if _, ok := a.origins[c.UserId]; ok {
		return
	}
	a.origins[c.UserId] = origin
	a.recipients = append(a.recipients, c)
}

func (a *Aggregation) Len() int {
	return len(a.recipients)
}

// RecipientIDs 按 user_id 升序
func (a *Aggregation) RecipientIDs() []int64 {
	ids := make([]int64, 0, len(a.recipients))
	for _, c := range a.recipients {
		ids = append(ids, c.UserId)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ExternalIDs 有推送 token 的接收人的外部 id，去重
func (a *Aggregation) ExternalIDs() []string {
	return a.ExternalIDsExcept(nil)
}

// ExternalIDsExcept 同 ExternalIDs，但跳过 skip 中的用户（例如接收行未能落库的）
func (a *Aggregation) ExternalIDsExcept(skip []int64) []string {
	skipSet := make(map[int64]struct{}, len(skip))
	for _, id := range skip {
		skipSet[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a.recipients))
	out := make([]string, 0, len(a.recipients))
	for _, c := range a.recipients {
		if _, ok := skipSet[c.UserId]; ok {
			continue
		}
		id, ok := c.ExternalID()
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (a *Aggregation) Origin(userID int64) (entity.Origin, bool) {
	o, ok := a.origins[userID]
	return o, ok
}

// CandidateAggregator 生成事件的最终接收集合
type CandidateAggregator interface {
	Aggregate(ctx context.Context, ev policy.Event) (*Aggregation, error)
}

type candidateAggregatorImpl struct {
	users    repository.UserDirectoryRepository
	affinity GroupAffinityChecker
	resolver *policy.Resolver
}

func NewCandidateAggregator(users repository.UserDirectoryRepository, affinity GroupAffinityChecker, resolver *policy.Resolver) CandidateAggregator {
	return &candidateAggregatorImpl{users: users, affinity: affinity, resolver: resolver}
}

func (s *candidateAggregatorImpl) Aggregate(ctx context.Context, ev policy.Event) (*Aggregation, error) {
	agg := newAggregation()

	// 偏好路径
	q := repository.SubscriberQuery{
		Category:      ev.Category,
		Origin:        ev.Location,
		WithinKm:      prefilterKm(ev.MaxDistanceKm),
		ExcludeUserId: ev.ReporterId,
	}
	subscribers, err := s.users.FindCategorySubscribers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find category subscribers: %w", err)
	}

	var aff policy.Affinity = policy.AffinitySet{}
	if needsAffinity(subscribers) {
		ids := make([]int64, 0, len(subscribers))
		for _, c := range subscribers {
			if c.Setting != nil && c.Setting.GroupOnly {
				ids = append(ids, c.UserId)
			}
		}
		aff, err = s.affinity.Prefetch(ctx, ev.ReporterId, ids)
		if err != nil {
			return nil, fmt.Errorf("prefetch group affinity: %w", err)
		}
	}

	rejected := make(map[string]int)
	for _, c := range subscribers {
		d := s.resolver.Evaluate(c, ev, aff)
		if !d.Accept {
			rejected[d.Reason]++
			continue
		}
		agg.add(c, entity.OriginSettings)
	}

	// 同组路径：同组成员总是接收，不受类别与半径限制
	groupCount := 0
	if ev.ReporterId != nil {
		peers, err := s.users.FindGroupPeers(ctx, *ev.ReporterId)
		if err != nil {
			return nil, fmt.Errorf("find group peers: %w", err)
		}
		for _, c := range peers {
			if c.UserId == *ev.ReporterId {
				continue
			}
			agg.add(c, entity.OriginGroup)
			groupCount++
		}
	}

	zlog.Debug("candidates aggregated",
		zap.String("category", ev.Category.String()),
		zap.Int("subscribers", len(subscribers)),
		zap.Int("group_peers", groupCount),
		zap.Int("recipients", agg.Len()),
		zap.Any("rejected", rejected),
	)
	return agg, nil
}

func needsAffinity(cs []entity.Candidate) bool {
	for _, c := range cs {
		if c.Setting != nil && c.Setting.GroupOnly {
			return true
		}
	}
	return false
}

// prefilterKm SQL 预过滤半径：请求上限，否则取个人半径的最大可能值
func prefilterKm(maxDistanceKm *float64) float64 {
	if maxDistanceKm != nil && *maxDistanceKm > 0 {
		return *maxDistanceKm
	}
	return entity.MaxRadiusKm
}
