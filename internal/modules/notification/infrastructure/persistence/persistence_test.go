package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"NeighborGuard/internal/modules/notification/domain/entity"
	"NeighborGuard/internal/modules/notification/domain/geo"
	"NeighborGuard/internal/modules/notification/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestFindUsersWithinRadius_BindsCoordinatesAndOrdersNearestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserDirectoryRepository(db)
	origin := geo.Point{Lat: -23.55, Lng: -46.63}

	rows := sqlmock.NewRows([]string{"user_id", "email", "notification_token", "latitude", "longitude", "distance_km"}).
		AddRow(4, "a@x.com", "tok-a", -23.551, -46.631, 0.14).
		AddRow(5, nil, nil, -23.56, -46.64, 1.4)

	mock.ExpectQuery(`SELECT u\.user_id, u\.email, u\.notification_token, ST_Latitude\(u\.location\) AS latitude, ST_Longitude\(u\.location\) AS longitude, ST_Distance_Sphere\(u\.location, ST_SRID\(POINT\(\?, \?\), 4326\)\) / 1000 AS distance_km FROM users AS u WHERE u\.location IS NOT NULL AND ST_Distance_Sphere\(u\.location, ST_SRID\(POINT\(\?, \?\), 4326\)\) <= \? AND u\.user_id NOT IN \(\?\) ORDER BY distance_km ASC`).
		WithArgs(origin.Lat, origin.Lng, origin.Lat, origin.Lng, 5000.0, int64(9)).
		WillReturnRows(rows)

	got, err := repo.FindUsersWithinRadius(context.Background(), origin, 5, []int64{9})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(4), got[0].UserId)
	require.NotNil(t, got[0].Location)
	assert.Equal(t, -23.551, got[0].Location.Lat)
	require.NotNil(t, got[0].DistanceKm)
	assert.Equal(t, 0.14, *got[0].DistanceKm)
	assert.Nil(t, got[0].Setting)

	ext, ok := got[0].ExternalID()
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", ext)

	_, ok = got[1].ExternalID()
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCategorySubscribers_WithOriginPrefilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserDirectoryRepository(db)
	origin := geo.Point{Lat: 1, Lng: 2}
	reporter := int64(1)

	cols := []string{"user_id", "email", "notification_token", "latitude", "longitude",
		"setting_id", "radius_km", "category", "period_start", "period_end", "group_only", "distance_km"}
	rows := sqlmock.NewRows(cols).
		AddRow(2, "b@x.com", "tok", 1.01, 2.0, 11, 5.0, "Furto,roubo", nil, nil, false, 1.1).
		AddRow(2, "b@x.com", "tok", 1.01, 2.0, 12, 9.0, "furto", nil, nil, true, 1.1).
		AddRow(3, nil, nil, nil, nil, 13, nil, "furto", "08:00:00", "18:00:00", true, nil)

	mock.ExpectQuery(`FROM user_settings AS s JOIN users AS u ON u\.user_id = s\.user_id WHERE FIND_IN_SET\(\?, s\.category\) > 0 AND u\.user_id <> \? AND u\.location IS NOT NULL AND ST_Distance_Sphere`).
		WithArgs(1.0, 2.0, "furto", int64(1), 1.0, 2.0, sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.FindCategorySubscribers(context.Background(), repository.SubscriberQuery{
		Category:      entity.CategoryFurto,
		Origin:        &origin,
		WithinKm:      entity.MaxRadiusKm,
		ExcludeUserId: &reporter,
	})
	require.NoError(t, err)
	require.Len(t, got, 2, "duplicate setting rows collapse to one candidate")

	first := got[0]
	require.NotNil(t, first.Setting)
	assert.Equal(t, int64(11), first.Setting.SettingId)
	assert.True(t, first.Setting.Category.Contains(entity.CategoryFurto))
	assert.True(t, first.Setting.Category.Contains(entity.CategoryRoubo))
	assert.Equal(t, 5.0, *first.Setting.RadiusKm)

	second := got[1]
	assert.Nil(t, second.Location)
	require.NotNil(t, second.Setting)
	assert.True(t, second.Setting.GroupOnly)
	assert.Equal(t, "08:00:00", *second.Setting.PeriodStart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindGroupPeers_ExcludesReporter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserDirectoryRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT u\.user_id, .* FROM user_security_groups AS usg1 JOIN user_security_groups AS usg2 ON usg1\.group_id = usg2\.group_id JOIN users AS u ON u\.user_id = usg2\.user_id WHERE usg1\.user_id = \? AND usg2\.user_id <> \?`).
		WithArgs(int64(7), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "notification_token", "latitude", "longitude"}).
			AddRow(8, "c@x.com", "tok", nil, nil))

	got, err := repo.FindGroupPeers(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(8), got[0].UserId)
	assert.Nil(t, got[0].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCandidates_EmptyInputSkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserDirectoryRepository(db)

	got, err := repo.GetCandidates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharedGroup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupMembershipRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_security_groups AS a JOIN user_security_groups AS b ON a\.group_id = b\.group_id WHERE a\.user_id = \? AND b\.user_id = \?`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_security_groups`).
		WithArgs(int64(1), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := repo.SharedGroup(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SharedGroup(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharedWith_BatchesCandidates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupMembershipRepository(db)

	ids := make([]int64, inClauseChunk+1)
	for i := range ids {
		ids[i] = int64(i + 100)
	}

	mock.ExpectQuery(`SELECT DISTINCT a\.user_id FROM user_security_groups AS a JOIN user_security_groups AS b ON a\.group_id = b\.group_id WHERE b\.user_id = \? AND a\.user_id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(100).AddRow(150))
	mock.ExpectQuery(`SELECT DISTINCT a\.user_id FROM user_security_groups`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(ids[inClauseChunk]))

	got, err := repo.SharedWith(context.Background(), 1, ids)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{100: true, 150: true, ids[inClauseChunk]: true}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharedWith_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupMembershipRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT a\.user_id`).WillReturnError(errors.New("boom"))

	_, err := repo.SharedWith(context.Background(), 1, []int64{2})
	assert.Error(t, err)
}

func TestNotificationUnitOfWork_CreatesAndLocates(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewNotificationUnitOfWork(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `Notifications`").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`UPDATE Notifications SET location = ST_SRID\(POINT\(\?, \?\), 4326\) WHERE notification_id = \?`).
		WithArgs(-23.5, -46.6, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n := &entity.Notification{Type: "furto", Message: "bike stolen"}
	err := uow.Transaction(context.Background(), func(repo repository.NotificationRepository) error {
		if err := repo.CreateNotification(context.Background(), n); err != nil {
			return err
		}
		return repo.SetLocation(context.Background(), n.NotificationId, geo.Point{Lat: -23.5, Lng: -46.6})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.NotificationId)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationUnitOfWork_RollsBackOnLocationFailure(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewNotificationUnitOfWork(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `Notifications`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("UPDATE Notifications SET location").WillReturnError(errors.New("spatial error"))
	mock.ExpectRollback()

	err := uow.Transaction(context.Background(), func(repo repository.NotificationRepository) error {
		n := &entity.Notification{Type: "roubo"}
		if err := repo.CreateNotification(context.Background(), n); err != nil {
			return err
		}
		return repo.SetLocation(context.Background(), n.NotificationId, geo.Point{})
	})
	assert.EqualError(t, err, "spatial error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRecipients(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	require.NoError(t, repo.InsertRecipients(context.Background(), nil))

	mock.ExpectExec("INSERT IGNORE INTO `NotificationRecipients`").
		WillReturnResult(sqlmock.NewResult(0, 2))

	now := time.Now()
	err := repo.InsertRecipients(context.Background(), []entity.NotificationRecipient{
		{NotificationId: 1, UserId: 2, CreatedAt: now},
		{NotificationId: 1, UserId: 3, CreatedAt: now},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAsRead_OnlyOwningRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec("UPDATE `NotificationRecipients` SET `read`=\\?,`read_at`=\\? WHERE notification_id = \\? AND user_id = \\?").
		WithArgs(true, at, int64(10), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.MarkAsRead(context.Background(), 10, 2, at)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAllAsRead_OnlyUnread(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec("UPDATE `NotificationRecipients` SET `read`=\\?,`read_at`=\\? WHERE user_id = \\? AND `read` = \\?").
		WithArgs(true, at, int64(2), false).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkAllAsRead(context.Background(), 2, at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUnread(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `NotificationRecipients` WHERE user_id = \\? AND `read` = \\?").
		WithArgs(int64(2), false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountUnread(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `NotificationRecipients` WHERE user_id = \\?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cols := []string{"notification_id", "type", "message", "report_type", "created_at", "latitude", "longitude",
		"read", "read_at", "incident_id", "incident_type", "incident_description", "camera_id", "camera_description"}
	mock.ExpectQuery(`FROM Notifications AS n JOIN NotificationRecipients AS r ON r\.notification_id = n\.notification_id AND r\.user_id = \? LEFT JOIN Incidents AS i .* ORDER BY n\.created_at DESC, n\.notification_id DESC LIMIT \?`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(9, "furto", "bike", "incident", created, -23.5, -46.6, false, nil, 3, "furto", "bike", nil, nil))

	views, total, err := repo.ListForUser(context.Background(), 2, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, int64(9), views[0].NotificationId)
	assert.Equal(t, "incident", *views[0].ReportType)
	assert.False(t, views[0].Read)
	assert.Equal(t, -23.5, *views[0].Latitude)
	assert.Equal(t, int64(3), *views[0].IncidentId)
	assert.Nil(t, views[0].CameraId)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser_NoRowsSkipsSelect(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("SELECT count").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	views, total, err := repo.ListForUser(context.Background(), 2, 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, views)
	assert.NoError(t, mock.ExpectationsWereMet())
}
