package database

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/taskboard-be/internal/config"
)

// DB is the shared connection pool plus the dialect it speaks.
type DB struct {
	*sqlx.DB
	dialect dialect
}

// New opens the backend selected by cfg.Driver and verifies the connection.
func New(cfg config.DatabaseConfig) (*DB, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// A single connection serializes every statement, which is what SQLite
		// wants for writes. It also keeps ":memory:" databases alive.
		conn.SetMaxOpenConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
	} else {
		conn.SetMaxOpenConns(cfg.MaxConns)
		conn.SetMaxIdleConns(cfg.MaxConns)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}

	log.Info().Str("driver", cfg.Driver).Int("max_conns", conn.Stats().MaxOpenConnections).Msg("Database connected")
	return &DB{DB: conn, dialect: d}, nil
}

// Wrap adopts an existing handle, e.g. one backed by sqlmock in tests.
func Wrap(conn *sqlx.DB, driver string) *DB {
	return &DB{DB: conn, dialect: dialects[driver]}
}

// Driver returns the configured backend name.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Builder returns a squirrel statement builder using the dialect's placeholders.
func (db *DB) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(db.dialect.placeholder)
}

// Migrate runs the SQL statements to set up the database schema.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range db.dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func dataSourceName(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "sqlite":
		return cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", nil
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.MySQLUser
		mc.Passwd = cfg.MySQLPassword
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.MySQLHost, cfg.MySQLPort)
		mc.DBName = cfg.MySQLDatabase
		mc.ParseTime = true
		mc.Loc = time.UTC
		// Report matched rather than changed rows so owner-scoped updates
		// that write identical values are not mistaken for misses.
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	case "postgres":
		return cfg.URL, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
