package rls

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/snowflake"
	"github.com/coderjoher/Project-Managment-Tool-sub000/pkg/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const setConfigSQL = "SELECT set_config($1, $2, true)"

func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return conn, mock
}

func TestWithActorSetsCurrentUser(t *testing.T) {
	conn, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(setConfigSQL)).
		WithArgs(SettingCurrentUserID, "42").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, WithActor(conn, snowflake.ID(42), false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithActorSuperadminIsPrivileged(t *testing.T) {
	conn, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(setConfigSQL)).
		WithArgs(SettingCurrentUserID, "7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setConfigSQL)).
		WithArgs(SettingPrivileged, "on").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, WithActor(conn, snowflake.ID(7), true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHelpersAreNoopOutsidePostgres(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, WithActor(conn, snowflake.ID(1), true))
	require.NoError(t, Privileged(conn))
}
