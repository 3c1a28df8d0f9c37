package database

import (
	"context"
	"errors"
	"testing"

	"campus-engage/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Ordered(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "001_users.sql", migrations[0].Name)
	assert.Equal(t, "002_profiles.sql", migrations[1].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, migrations[1].SQL, "CREATE TABLE IF NOT EXISTS profiles")
}

func TestMigrate(t *testing.T) {
	t.Run("applies all files in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS profiles").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := Migrate(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, []string{"001_users.sql", "002_profiles.sql"}, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		_, err = Migrate(context.Background(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "001_users.sql")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	client := &PostgresClient{DB: db}
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed")

	mock.ExpectClose()
	assert.NoError(t, client.Close())
}
