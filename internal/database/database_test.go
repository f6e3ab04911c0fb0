package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/taskboard-be/internal/config"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", MaxConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Migrate(context.Background()))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
	assert.Equal(t, []string{"events", "tasks", "users"}, tables)
}

func TestSQLiteSingleConnection(t *testing.T) {
	db := openMemory(t)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	assert.Equal(t, "sqlite", db.Driver())
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	insert := `INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, 'user', ?)`

	_, err := db.ExecContext(ctx, insert, "u1", "alice", "alice@example.com", "x", time.Now())
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "u2", "alice2", "alice@example.com", "x", time.Now())
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openMemory(t)
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO tasks (id, user_id, title, created_at, updated_at) VALUES ('t1', 'missing', 'x', ?, ?)`,
		time.Now(), time.Now())
	require.Error(t, err)
	assert.False(t, IsUniqueViolation(err))
}

func TestIsUniqueViolationOtherDrivers(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestBuilderPlaceholders(t *testing.T) {
	pg := &DB{dialect: dialects["postgres"]}
	query, _, err := pg.Builder().Select("id").From("tasks").Where("user_id = ?", "u").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM tasks WHERE user_id = $1", query)

	my := &DB{dialect: dialects["mysql"]}
	query, _, err = my.Builder().Select("id").From("tasks").Where("user_id = ?", "u").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM tasks WHERE user_id = ?", query)
}

func TestMySQLDataSourceName(t *testing.T) {
	dsn, err := dataSourceName(config.DatabaseConfig{
		Driver:        "mysql",
		MySQLHost:     "db",
		MySQLPort:     3307,
		MySQLUser:     "app",
		MySQLPassword: "pw",
		MySQLDatabase: "tasks",
	})
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3307", parsed.Addr)
	assert.Equal(t, "tasks", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)
}
