package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
	"NeighborGuard/internal/modules/notification/domain/repository"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func strPtr(v string) *string       { return &v }

// pushable 有 email 与 token 的候选人
func pushable(id int64, s *entity.UserSetting) entity.Candidate {
	return entity.Candidate{
		UserId:            id,
		Email:             strPtr(fmt.Sprintf("user%d@example.com", id)),
		NotificationToken: strPtr("tok"),
		Setting:           s,
	}
}

func furto(radius float64) *entity.UserSetting {
	return &entity.UserSetting{RadiusKm: float64Ptr(radius), Category: entity.CategorySet{entity.CategoryFurto}}
}

type fakeUserDirectory struct {
	subscribers []entity.Candidate
	peers       map[int64][]entity.Candidate
	byID        map[int64]entity.Candidate
	nearby      []entity.Candidate
	err         error

	lastQuery repository.SubscriberQuery
}

func (f *fakeUserDirectory) FindUsersWithinRadius(ctx context.Context, origin geo.Point, radiusKm float64, excludeIDs []int64) ([]entity.Candidate, error) {
	return f.nearby, f.err
}

func (f *fakeUserDirectory) FindCategorySubscribers(ctx context.Context, q repository.SubscriberQuery) ([]entity.Candidate, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.Candidate, 0, len(f.subscribers))
	for _, c := range f.subscribers {
		if c.Setting == nil || !c.Setting.Category.Contains(q.Category) {
			continue
		}
		if q.ExcludeUserId != nil && c.UserId == *q.ExcludeUserId {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeUserDirectory) FindGroupPeers(ctx context.Context, reporterID int64) ([]entity.Candidate, error) {
	return f.peers[reporterID], f.err
}

func (f *fakeUserDirectory) GetCandidates(ctx context.Context, userIDs []int64) ([]entity.Candidate, error) {
	var out []entity.Candidate
	for _, id := range userIDs {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, f.err
}

type fakeGroupRepo struct {
	groups map[int64][]int64
	calls  int
}

func (f *fakeGroupRepo) shares(a, b int64) bool {
	for _, ga := range f.groups[a] {
		for _, gb := range f.groups[b] {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

func (f *fakeGroupRepo) SharedGroup(ctx context.Context, a, b int64) (bool, error) {
	f.calls++
	return f.shares(a, b), nil
}

func (f *fakeGroupRepo) SharedWith(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	f.calls++
	out := make(map[int64]bool)
	for _, id := range ids {
		if f.shares(userID, id) {
			out[id] = true
		}
	}
	return out, nil
}

type recipientKey struct{ nid, uid int64 }

type fakeNotificationRepo struct {
	mu            sync.Mutex
	nextID        int64
	notifications map[int64]*entity.Notification
	locations     map[int64]geo.Point
	recipients    map[recipientKey]*entity.NotificationRecipient

	createErr    error
	insertCalls  int
	failInsertAt map[int]bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[int64]*entity.Notification),
		locations:     make(map[int64]geo.Point),
		recipients:    make(map[recipientKey]*entity.NotificationRecipient),
		failInsertAt:  make(map[int]bool),
	}
}

func (f *fakeNotificationRepo) CreateNotification(ctx context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	n.NotificationId = f.nextID
	cp := *n
	f.notifications[n.NotificationId] = &cp
	return nil
}

func (f *fakeNotificationRepo) SetLocation(ctx context.Context, id int64, p geo.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations[id] = p
	return nil
}

func (f *fakeNotificationRepo) InsertRecipients(ctx context.Context, rows []entity.NotificationRecipient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failInsertAt[f.insertCalls] {
		return errors.New("deadlock found when trying to get lock")
	}
	for i := range rows {
		r := rows[i]
		k := recipientKey{r.NotificationId, r.UserId}
		if _, ok := f.recipients[k]; ok {
			continue
		}
		f.recipients[k] = &r
	}
	return nil
}

func (f *fakeNotificationRepo) MarkAsRead(ctx context.Context, nid, uid int64, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipients[recipientKey{nid, uid}]
	if !ok {
		return 0, nil
	}
	r.Read = true
	r.ReadAt = &at
	return 1, nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, uid int64, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, r := range f.recipients {
		if k.uid == uid && !r.Read {
			r.Read = true
			r.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, uid int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, r := range f.recipients {
		if k.uid == uid && !r.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotificationRepo) ListForUser(ctx context.Context, uid int64, limit, offset int) ([]entity.NotificationView, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var views []entity.NotificationView
	for k, r := range f.recipients {
		if k.uid != uid {
			continue
		}
		n := f.notifications[k.nid]
		views = append(views, entity.NotificationView{
			NotificationId: n.NotificationId,
			Type:           n.Type,
			Message:        n.Message,
			CreatedAt:      n.CreatedAt,
			Read:           r.Read,
			ReadAt:         r.ReadAt,
			IncidentId:     n.IncidentId,
			CameraId:       n.CameraId,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].NotificationId > views[j].NotificationId })
	total := int64(len(views))
	if offset >= len(views) {
		return []entity.NotificationView{}, total, nil
	}
	end := offset + limit
	if end > len(views) {
		end = len(views)
	}
	return views[offset:end], total, nil
}

func (f *fakeNotificationRepo) recipientIDs(nid int64) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for k := range f.recipients {
		if k.nid == nid {
			ids = append(ids, k.uid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type fakeUoW struct {
	repo *fakeNotificationRepo
}

func (u fakeUoW) Transaction(ctx context.Context, fn func(repo repository.NotificationRepository) error) error {
	return fn(u.repo)
}

type fakeUnread struct {
	counts      map[int64]int64
	versions    map[int64]int64
	invalidated []int64
}

func newFakeUnread() *fakeUnread {
	return &fakeUnread{counts: make(map[int64]int64), versions: make(map[int64]int64)}
}

func (f *fakeUnread) Get(ctx context.Context, uid int64) (int64, bool) {
	n, ok := f.counts[uid]
	return n, ok
}

func (f *fakeUnread) Version(ctx context.Context, uid int64) (int64, bool) {
	return f.versions[uid], true
}

func (f *fakeUnread) Set(ctx context.Context, uid int64, n int64, version int64) {
	if f.versions[uid] != version {
		return
	}
	f.counts[uid] = n
}

func (f *fakeUnread) Invalidate(ctx context.Context, uids ...int64) {
	for _, id := range uids {
		delete(f.counts, id)
		f.versions[id]++
	}
	f.invalidated = append(f.invalidated, uids...)
}

type fakeSender struct {
	mu      sync.Mutex
	batches []entity.PushMessage
	failOn  map[int]bool
}

func (f *fakeSender) Send(ctx context.Context, msg entity.PushMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, msg)
	if f.failOn[len(f.batches)] {
		return errors.New("onesignal returned 502")
	}
	return nil
}

// syncQueue 同步执行 processor，便于断言
type syncQueue struct {
	processor DispatchProcessor
	jobs      []*entity.DispatchJob
	reports   []DispatchReport
	err       error
}

func (q *syncQueue) Enqueue(ctx context.Context, job *entity.DispatchJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	if q.processor != nil {
		q.reports = append(q.reports, q.processor.Process(ctx, job))
	}
	return nil
}

type fakeRealtime struct {
	users  []int64
	events []interface{}
}

func (f *fakeRealtime) PublishToUsers(userIDs []int64, event interface{}) int {
	f.users = append(f.users, userIDs...)
	f.events = append(f.events, event)
	return len(userIDs)
}
