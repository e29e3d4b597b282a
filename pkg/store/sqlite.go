package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nebula-nodeconf/pkg/model"
)

const schema = `CREATE TABLE IF NOT EXISTS runs(
	id TEXT PRIMARY KEY,
	cidr TEXT,
	role TEXT,
	ports TEXT,
	output_path TEXT,
	status TEXT,
	detail TEXT,
	started_at INTEGER,
	finished_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`

// SQLiteStore records runs in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the history database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRun(r model.Run) error {
	ports, err := json.Marshal(r.Ports)
	if err != nil {
		return fmt.Errorf("marshal ports: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs(id, cidr, role, ports, output_path, status, detail, started_at, finished_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		r.ID, r.CIDR, r.Role, string(ports), r.OutputPath, r.Status, r.Detail, unixNano(r.StartedAt), unixNano(r.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cidr, role, ports, output_path, status, detail, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		var (
			r              model.Run
			ports          string
			started, ended int64
		)
		if err := rows.Scan(&r.ID, &r.CIDR, &r.Role, &ports, &r.OutputPath, &r.Status, &r.Detail, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ports != "" && ports != "null" {
			if err := json.Unmarshal([]byte(ports), &r.Ports); err != nil {
				return nil, fmt.Errorf("decode ports of run %s: %w", r.ID, err)
			}
		}
		r.StartedAt = fromUnixNano(started)
		r.FinishedAt = fromUnixNano(ended)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
