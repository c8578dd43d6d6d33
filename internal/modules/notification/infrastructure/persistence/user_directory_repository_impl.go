package persistence

import (
	"context"
	"strings"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
	"NeighborGuard/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
)

type userDirectoryRepositoryImpl struct {
	db *gorm.DB
}

func NewUserDirectoryRepository(db *gorm.DB) repository.UserDirectoryRepository {
	return &userDirectoryRepositoryImpl{db: db}
}

// candidateRow 用户 + 可选偏好 + 可选距离的扁平结果
type candidateRow struct {
	UserId            int64    `gorm:"column:user_id"`
	Email             *string  `gorm:"column:email"`
	NotificationToken *string  `gorm:"column:notification_token"`
	Latitude          *float64 `gorm:"column:latitude"`
	Longitude         *float64 `gorm:"column:longitude"`
	DistanceKm        *float64 `gorm:"column:distance_km"`

	SettingId   *int64             `gorm:"column:setting_id"`
	RadiusKm    *float64           `gorm:"column:radius_km"`
	Category    entity.CategorySet `gorm:"column:category"`
	PeriodStart *string            `gorm:"column:period_start"`
	PeriodEnd   *string            `gorm:"column:period_end"`
	GroupOnly   *bool              `gorm:"column:group_only"`
}

func (r candidateRow) toCandidate() entity.Candidate {
	c := entity.Candidate{
		UserId:            r.UserId,
		Email:             r.Email,
		NotificationToken: r.NotificationToken,
		DistanceKm:        r.DistanceKm,
	}
	if r.Latitude != nil && r.Longitude != nil {
		c.Location = geo.NewPoint(*r.Latitude, *r.Longitude)
	}
	if r.SettingId != nil {
		s := &entity.UserSetting{
			SettingId:   *r.SettingId,
			UserId:      r.UserId,
			RadiusKm:    r.RadiusKm,
			Category:    r.Category,
			PeriodStart: r.PeriodStart,
			PeriodEnd:   r.PeriodEnd,
		}
		if r.GroupOnly != nil {
			s.GroupOnly = *r.GroupOnly
		}
		c.Setting = s
	}
	return c
}

func toCandidates(rows []candidateRow) []entity.Candidate {
	seen := make(map[int64]struct{}, len(rows))
	out := make([]entity.Candidate, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.UserId]; ok {
			continue
		}
		seen[row.UserId] = struct{}{}
		out = append(out, row.toCandidate())
	}
	return out
}

var userColumns = []string{
	"u.user_id",
	"u.email",
	"u.notification_token",
	latitudeOfUser,
	longitudeOfUser,
}

var settingColumns = []string{
	"s.setting_id",
	"s.radius_km",
	"s.category",
	"s.period_start",
	"s.period_end",
	"s.group_only",
}

func (r *userDirectoryRepositoryImpl) FindUsersWithinRadius(ctx context.Context, origin geo.Point, radiusKm float64, excludeIDs []int64) ([]entity.Candidate, error) {
	cols := append(append([]string{}, userColumns...), distanceMetersTo+" / 1000 AS distance_km")

	q := r.db.WithContext(ctx).
		Table("users AS u").
		Select(strings.Join(cols, ", "), origin.Lat, origin.Lng).
		Where("u.location IS NOT NULL").
		Where(distanceMetersTo+" <= ?", origin.Lat, origin.Lng, radiusKm*1000)
	if len(excludeIDs) > 0 {
		q = q.Where("u.user_id NOT IN ?", excludeIDs)
	}

	var rows []candidateRow
	if err := q.Order("distance_km ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}

func (r *userDirectoryRepositoryImpl) FindCategorySubscribers(ctx context.Context, sq repository.SubscriberQuery) ([]entity.Candidate, error) {
	cols := append(append([]string{}, userColumns...), settingColumns...)
	var args []interface{}
	if sq.Origin != nil {
		cols = append(cols, distanceMetersTo+" / 1000 AS distance_km")
		args = append(args, sq.Origin.Lat, sq.Origin.Lng)
	}

	q := r.db.WithContext(ctx).
		Table("user_settings AS s").
		Select(strings.Join(cols, ", "), args...).
		Joins("JOIN users AS u ON u.user_id = s.user_id").
		Where("FIND_IN_SET(?, s.category) > 0", string(sq.Category))
	if sq.ExcludeUserId != nil {
		q = q.Where("u.user_id <> ?", *sq.ExcludeUserId)
	}
	if sq.Origin != nil && sq.WithinKm > 0 {
		q = q.Where("u.location IS NOT NULL").
			Where(distanceMetersTo+" <= ?", sq.Origin.Lat, sq.Origin.Lng, sq.WithinKm*1000)
	}

	var rows []candidateRow
	if err := q.Order("u.user_id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}

func (r *userDirectoryRepositoryImpl) FindGroupPeers(ctx context.Context, reporterID int64) ([]entity.Candidate, error) {
	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT u.user_id, u.email, u.notification_token, `+latitudeOfUser+`, `+longitudeOfUser+`
FROM user_security_groups AS usg1
JOIN user_security_groups AS usg2 ON usg1.group_id = usg2.group_id
JOIN users AS u ON u.user_id = usg2.user_id
WHERE usg1.user_id = ? AND usg2.user_id <> ?
ORDER BY u.user_id ASC`, reporterID, reporterID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}

func (r *userDirectoryRepositoryImpl) GetCandidates(ctx context.Context, userIDs []int64) ([]entity.Candidate, error) {
	if len(userIDs) == 0 {
		return []entity.Candidate{}, nil
	}
	cols := append(append([]string{}, userColumns...), settingColumns...)

	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Table("users AS u").
		Select(strings.Join(cols, ", ")).
		Joins("LEFT JOIN user_settings AS s ON s.user_id = u.user_id").
		Where("u.user_id IN ?", userIDs).
		Order("u.user_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}
