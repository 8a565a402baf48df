//go:build sqlite
// +build sqlite

package state

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "watchtower/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("state.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context, targetID string) (TargetState, error) {
	var seenJSON, lastRun string
	err := s.db.QueryRowContext(ctx,
		`SELECT seen_ids, last_run FROM target_state WHERE id = ?`, targetID,
	).Scan(&seenJSON, &lastRun)
	if errors.Is(err, sql.ErrNoRows) {
		return TargetState{}, nil
	}
	if err != nil {
		return TargetState{}, err
	}

	var st TargetState
	if err := json.Unmarshal([]byte(seenJSON), &st.SeenIDs); err != nil {
		return TargetState{}, err
	}
	st.LastRun = lastRun
	return st, nil
}

func (s *sqliteStore) Save(ctx context.Context, targetID string, st TargetState) error {
	seenJSON, err := json.Marshal(st.SeenIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO target_state(id, seen_ids, last_run, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET seen_ids=excluded.seen_ids, last_run=excluded.last_run, updated_at=excluded.updated_at`,
		targetID, string(seenJSON), st.LastRun, time.Now().Format(time.RFC3339Nano),
	)
	return err
}
