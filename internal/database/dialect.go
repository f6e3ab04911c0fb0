package database

import sq "github.com/Masterminds/squirrel"

type dialect struct {
	name        string
	driverName  string
	placeholder sq.PlaceholderFormat
	schema      []string
}

var dialects = map[string]dialect{
	"sqlite": {
		name:        "sqlite",
		driverName:  "sqlite",
		placeholder: sq.Question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT NOT NULL PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'user',
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id TEXT NOT NULL PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				priority TEXT NOT NULL DEFAULT 'medium',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS events (
				id TEXT NOT NULL PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				task_id TEXT,
				type TEXT NOT NULL,
				level TEXT NOT NULL,
				message TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_user_created ON events (user_id, created_at)`,
		},
	},
	"mysql": {
		name:        "mysql",
		driverName:  "mysql",
		placeholder: sq.Question,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(36) NOT NULL PRIMARY KEY,
				username VARCHAR(255) NOT NULL UNIQUE,
				email VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'user',
				created_at DATETIME(6) NOT NULL
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id VARCHAR(36) NOT NULL PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				priority VARCHAR(50) NOT NULL DEFAULT 'medium',
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				INDEX idx_tasks_user_created (user_id, created_at),
				CONSTRAINT fk_tasks_users FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
			`CREATE TABLE IF NOT EXISTS events (
				id VARCHAR(36) NOT NULL PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL,
				task_id VARCHAR(36) NULL,
				type VARCHAR(50) NOT NULL,
				level VARCHAR(20) NOT NULL,
				message TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_events_user_created (user_id, created_at),
				CONSTRAINT fk_events_users FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
		},
	},
	"postgres": {
		name:        "postgres",
		driverName:  "pgx",
		placeholder: sq.Dollar,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'user',
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				priority TEXT NOT NULL DEFAULT 'medium',
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				task_id TEXT,
				type TEXT NOT NULL,
				level TEXT NOT NULL,
				message TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_user_created ON events (user_id, created_at)`,
		},
	},
}
