package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"g2-yoyodex/internal/logger"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{`
	CREATE TABLE IF NOT EXISTS kv_store (
		k TEXT PRIMARY KEY,
		v BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv_store(expires_at);
	`},
	upsert: `
		INSERT INTO kv_store (k, v, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(k) DO UPDATE SET
			v = excluded.v,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
	serialize: true,
	sizeQuery: "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath.
// Thread-safe with WAL mode for concurrent reads.
func NewSQLiteStore(dbPath string, log *logger.Logger) (*SQLStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	s, err := newSQLStore(db, sqliteDialect, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info("initialized", "path", dbPath)
	return s, nil
}
