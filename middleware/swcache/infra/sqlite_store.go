package infra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"image-gateway/middleware/swcache/domain"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS responses (
	generation TEXT NOT NULL,
	method     TEXT NOT NULL,
	url        TEXT NOT NULL,
	status     INTEGER NOT NULL,
	type       TEXT NOT NULL,
	header     TEXT NOT NULL,
	body       BLOB,
	stored_at  INTEGER NOT NULL,
	PRIMARY KEY (generation, method, url)
)`

// SQLiteStore persiste snapshots num arquivo SQLite local.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLiteStore abre (ou cria) o arquivo e garante o schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Match(ctx context.Context, gen string, key domain.RequestKey) (domain.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, false, err
	}
	var (
		status   int
		typ      string
		header   string
		body     []byte
		storedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT status, type, header, body, stored_at FROM responses
		 WHERE generation = ? AND method = ? AND url = ?`,
		gen, key.Method, key.URL,
	).Scan(&status, &typ, &header, &body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("match response: %w", err)
	}

	snap := domain.Snapshot{
		Status:   status,
		Type:     domain.ResponseType(typ),
		Body:     body,
		StoredAt: time.UnixMilli(storedAt).UTC(),
	}
	if header != "" {
		if err := json.Unmarshal([]byte(header), &snap.Header); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("decode header: %w", err)
		}
	}
	return snap, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, gen string, key domain.RequestKey, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	header, err := json.Marshal(snap.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	storedAt := snap.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO responses (generation, method, url, status, type, header, body, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (generation, method, url) DO UPDATE SET
		   status = excluded.status,
		   type = excluded.type,
		   header = excluded.header,
		   body = excluded.body,
		   stored_at = excluded.stored_at`,
		gen, key.Method, key.URL, snap.Status, string(snap.Type), string(header), snap.Body, storedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put response: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Generations(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT DISTINCT generation FROM responses ORDER BY generation`)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteGeneration(ctx context.Context, gen string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE generation = ?`, gen); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete generation: %w", err)
	}
	return tx.Commit()
}
