package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"g2-yoyodex/internal/cache"
	"g2-yoyodex/internal/logger"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name      string
	schema    []string
	upsert    string
	dollar    bool // $1 placeholders instead of ?
	serialize bool // single writer
	sizeQuery string
}

// SQLStore implements cache.Store on a kv_store table.
// Expiry is stored as unix milliseconds; 0 means the row never expires.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	mu  sync.RWMutex
	now func() time.Time
	log *logger.Logger
}

func newSQLStore(db *sql.DB, d dialect, log *logger.Logger) (*SQLStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return &SQLStore{
		db:  db,
		d:   d,
		now: time.Now,
		log: logger.OrNop(log).Component(d.name + "_store"),
	}, nil
}

// rebind rewrites ? placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if !s.d.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) lockRead() func() {
	if !s.d.serialize {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *SQLStore) lockWrite() func() {
	if !s.d.serialize {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *SQLStore) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Get retrieves a live value by key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer s.lockRead()()

	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT v, expires_at FROM kv_store WHERE k = ?`), key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if expiresAt != 0 && expiresAt <= s.nowMillis() {
		return nil, cache.ErrCacheMiss
	}
	return value, nil
}

// Set inserts or updates a value.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer s.lockWrite()()

	now := s.nowMillis()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now + ttl.Milliseconds()
	}
	if value == nil {
		value = []byte{}
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(s.d.upsert), key, value, expiresAt, now); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value by key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	defer s.lockWrite()()

	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM kv_store WHERE k = ?`), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists checks if a live key exists.
func (s *SQLStore) Exists(ctx context.Context, key string) (bool, error) {
	defer s.lockRead()()

	var n int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM kv_store WHERE k = ? AND (expires_at = 0 OR expires_at > ?)`),
		key, s.nowMillis()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

// Keys lists live keys starting with prefix.
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	defer s.lockRead()()

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT k FROM kv_store WHERE k LIKE ? ESCAPE '!' AND (expires_at = 0 OR expires_at > ?) ORDER BY k`),
		escapeLike(prefix)+"%", s.nowMillis())
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		// LIKE may be case-insensitive depending on collation
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

// Clear removes every row.
func (s *SQLStore) Clear(ctx context.Context) error {
	defer s.lockWrite()()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store`); err != nil {
		return fmt.Errorf("failed to clear: %w", err)
	}
	return nil
}

// Sweep deletes rows whose expiry has passed.
func (s *SQLStore) Sweep(ctx context.Context) (int64, error) {
	defer s.lockWrite()()

	result, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM kv_store WHERE expires_at <> 0 AND expires_at <= ?`), s.nowMillis())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rows: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("cleaned up expired rows", "deleted", deleted)
	}
	return deleted, nil
}

// GetStats returns statistics about the key-value table.
func (s *SQLStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	defer s.lockRead()()

	stats := map[string]interface{}{"driver": s.d.name}

	var total, expired int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&total); err != nil {
		return nil, err
	}
	stats["total_keys"] = total

	if err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT COUNT(*) FROM kv_store WHERE expires_at <> 0 AND expires_at <= ?"), s.nowMillis()).Scan(&expired); err == nil {
		stats["expired_keys"] = expired
	}

	var lastWrite sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM kv_store").Scan(&lastWrite); err == nil && lastWrite.Valid {
		stats["last_write"] = time.UnixMilli(lastWrite.Int64).UTC()
	}

	if s.d.sizeQuery != "" {
		var size sql.NullInt64
		if err := s.db.QueryRowContext(ctx, s.d.sizeQuery).Scan(&size); err == nil && size.Valid {
			stats["db_size_bytes"] = size.Int64
		}
	}

	return stats, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// Ensure SQLStore implements KVRepository
var _ KVRepository = (*SQLStore)(nil)
