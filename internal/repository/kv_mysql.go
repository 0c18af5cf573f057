package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"g2-yoyodex/internal/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var mysqlDialect = dialect{
	name: "mysql",
	// MySQL runs one statement per Exec unless multiStatements is set.
	schema: []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
			k VARCHAR(512) NOT NULL PRIMARY KEY,
			v LONGBLOB NOT NULL,
			expires_at BIGINT NOT NULL DEFAULT 0,
			updated_at BIGINT NOT NULL DEFAULT 0,
			INDEX idx_kv_expires_at (expires_at)
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`,
	},
	upsert: `
		INSERT INTO kv_store (k, v, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			v = VALUES(v),
			expires_at = VALUES(expires_at),
			updated_at = VALUES(updated_at)`,
	sizeQuery: `SELECT data_length + index_length FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = 'kv_store'`,
}

// NewMySQLStore connects to MySQL.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStore(dsn string, log *logger.Logger) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s, err := newSQLStore(db, mysqlDialect, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info("initialized", "max_open", 25)
	return s, nil
}
