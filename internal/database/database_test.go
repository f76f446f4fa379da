package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"circle/internal/config"
	"circle/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("db", "5432", "u", "p", "circle", "")
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=circle sslmode=disable", dsn)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		env         string
		destructive bool
		wantSQL     bool
		wantAuto    bool
		wantErr     bool
	}{
		{"hybrid dev", "", "development", false, true, true, false},
		{"hybrid prod", "hybrid", "production", false, true, false, false},
		{"sql", "sql", "development", false, true, false, false},
		{"auto dev", "auto", "development", false, false, true, false},
		{"auto prod refused", "auto", "production", false, false, false, true},
		{"auto prod allowed", "auto", "production", true, false, true, false},
		{"unknown", "weird", "development", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DBSchemaMode: tt.mode, Env: tt.env, DBAutoMigrateAllowDestructive: tt.destructive}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestParseMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_b.up.sql":   {Data: []byte("B up")},
		"m/000002_b.down.sql": {Data: []byte("B down")},
		"m/000001_a.up.sql":   {Data: []byte("A up")},
		"m/000001_a.down.sql": {Data: []byte("A down")},
		"m/README.md":         {Data: []byte("ignored")},
	}

	got, err := parseMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "A down", got[0].DownScript)
	assert.Equal(t, "000002_b", got[1].String())
}

func TestParseMigrationsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("A up")}}
	_, err := parseMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreSequential(t *testing.T) {
	all, err := GetMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for i, m := range all {
		assert.Equal(t, i+1, m.Version, m.String())
		assert.NotEmpty(t, m.DownScript)
	}
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions([]int{1}, registered))
	assert.Error(t, validateAppliedVersions([]int{1, 7}, registered))
}

func TestGetAppliedMigrationsWithSQLMock(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT "version" FROM "migration_logs" ORDER BY version ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(2))

	versions, err := NewMigrationStore(db).GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckGuards(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"name"})
	for _, g := range relationshipGuards {
		if g.Name != "idx_friend_requests_pending_pair" {
			rows.AddRow(g.Name)
		}
	}
	rows.AddRow("idx_users_username")
	mock.ExpectQuery(`SELECT conname AS name FROM pg_constraint`).WillReturnRows(rows)

	guards, err := CheckGuards(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, guards, len(relationshipGuards))

	missing := MissingGuards(guards)
	require.Len(t, missing, 1)
	assert.Equal(t, "idx_friend_requests_pending_pair", missing[0].Name)
	assert.Equal(t, "one pending request per pair", missing[0].Protects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrationsDeclareGuards(t *testing.T) {
	migrations, err := GetMigrations()
	require.NoError(t, err)
	var up strings.Builder
	for _, m := range migrations {
		up.WriteString(m.UpScript)
	}
	for _, g := range relationshipGuards {
		assert.Contains(t, up.String(), g.Name)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: friend_requests.user_low")))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
}

func TestAutoMigrateEnforcesConstraints(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.Create(&[]models.User{{Username: "a"}, {Username: "b"}}).Error)

	t.Run("friendship order check", func(t *testing.T) {
		err := db.Create(&models.Friendship{UserID1: 2, UserID2: 1}).Error
		assert.Error(t, err)
	})

	t.Run("one pending request per pair", func(t *testing.T) {
		require.NoError(t, db.Create(&models.FriendRequest{SenderID: 1, ReceiverID: 2, Status: models.FriendRequestPending}).Error)
		err := db.Create(&models.FriendRequest{SenderID: 2, ReceiverID: 1, Status: models.FriendRequestPending}).Error
		assert.True(t, IsUniqueViolation(err), "got %v", err)

		// non-pending rows for the same pair are history and do not collide
		require.NoError(t, db.Create(&models.FriendRequest{SenderID: 2, ReceiverID: 1, Status: models.FriendRequestRejected}).Error)
	})

	t.Run("read state check", func(t *testing.T) {
		now := time.Now()
		err := db.Create(&models.Notification{UserID: 1, Type: models.NotificationMessageSent, Message: "x", ReadAt: &now}).Error
		assert.Error(t, err)
	})

	t.Run("no self notification", func(t *testing.T) {
		self := uint(1)
		err := db.Create(&models.Notification{UserID: 1, FromUserID: &self, Type: models.NotificationMessageSent, Message: "x"}).Error
		assert.Error(t, err)
	})
}
