package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"selfiebooth/internal/config"
)

// Open connects the session store on either backend. Both drivers sit behind
// database/sql with identical ?-placeholder queries; only the DSN and the
// CREATE TABLE dialect differ.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver := cfg.Resolve()

	var dsn string
	switch driver {
	case "sqlite":
		dsn = cfg.Path
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := CreateSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CreateSchema bootstraps the sessions table. Safe to call repeatedly.
func CreateSchema(ctx context.Context, db *sql.DB, driver string) error {
	schema := sqliteSchema
	if driver == "mysql" {
		schema = mysqlSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id        TEXT PRIMARY KEY,
    first_name        TEXT NOT NULL,
    phone             TEXT NOT NULL,
    email             TEXT NOT NULL DEFAULT '',
    verification_code TEXT NOT NULL,
    state             TEXT NOT NULL DEFAULT 'pending'
                      CHECK (state IN ('pending', 'verified', 'photo_ready')),
    photo_data        TEXT NOT NULL DEFAULT '',
    tablet_id         TEXT NOT NULL DEFAULT '',
    location          TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMP NOT NULL,
    verified_at       TIMESTAMP,
    expires_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_tablet_state ON sessions(tablet_id, state, created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id        VARCHAR(64) PRIMARY KEY,
    first_name        VARCHAR(100) NOT NULL,
    phone             VARCHAR(20) NOT NULL,
    email             VARCHAR(255) NOT NULL DEFAULT '',
    verification_code VARCHAR(6) NOT NULL,
    state             VARCHAR(16) NOT NULL DEFAULT 'pending',
    photo_data        LONGTEXT,
    tablet_id         VARCHAR(100) NOT NULL DEFAULT '',
    location          VARCHAR(100) NOT NULL DEFAULT '',
    created_at        DATETIME NOT NULL,
    verified_at       DATETIME NULL,
    expires_at        DATETIME NOT NULL,
    INDEX idx_sessions_tablet_state (tablet_id, state, created_at),
    INDEX idx_sessions_expires_at (expires_at)
)
`
