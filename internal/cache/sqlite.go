package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS findings_cache (
	content_hash     TEXT NOT NULL,
	detector_version TEXT NOT NULL,
	payload          BLOB NOT NULL,
	created_at       TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (content_hash, detector_version)
);
`

// SQLite persists findings across scan processes in a single database
// file, WAL mode for concurrent workers. The on-disk format is internal:
// a corrupt or incompatible file is discarded and rebuilt empty rather
// than failing the scan.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the cache database at path. If the file
// exists but cannot serve the schema, it is removed and recreated once.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := openSQLiteFile(path)
	if err != nil {
		slog.Warn("findings cache unusable, rebuilding empty", "path", path, "error", err)
		removeSQLiteFiles(path)
		db, err = openSQLiteFile(path)
		if err != nil {
			return nil, fmt.Errorf("rebuilding findings cache: %w", err)
		}
	}

	return &SQLite{db: db, path: path}, nil
}

func openSQLiteFile(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening findings cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging findings cache: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return db, nil
}

// removeSQLiteFiles deletes the database plus its WAL sidecars.
func removeSQLiteFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not remove stale cache file", "path", p, "error", err)
		}
	}
}

func (s *SQLite) Get(ctx context.Context, contentHash, detectorVersion string) ([]findings.Finding, bool) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM findings_cache WHERE content_hash = ? AND detector_version = ?`,
		contentHash, detectorVersion,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Warn("findings cache read failed", "error", err)
		return nil, false
	}

	var items []findings.Finding
	if err := json.Unmarshal(payload, &items); err != nil {
		slog.Warn("discarding undecodable cache entry", "contentHash", contentHash, "error", err)
		return nil, false
	}
	return items, true
}

func (s *SQLite) Put(ctx context.Context, contentHash, detectorVersion string, items []findings.Finding) {
	payload, err := json.Marshal(items)
	if err != nil {
		slog.Warn("findings cache encode failed", "error", err)
		return
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO findings_cache (content_hash, detector_version, payload) VALUES (?, ?, ?)`,
		contentHash, detectorVersion, payload,
	)
	if err != nil {
		slog.Warn("findings cache write failed", "error", err)
	}
}

// Prune drops entries recorded under any other detector-set version.
// Content hashes are shared across versions, so after a detector or
// profile change the old rows can never hit again.
func (s *SQLite) Prune(ctx context.Context, keepVersion string) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM findings_cache WHERE detector_version != ?`, keepVersion)
	if err != nil {
		slog.Warn("findings cache prune failed", "error", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("pruned stale cache entries", "removed", n)
	}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
