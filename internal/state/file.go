package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logx "watchtower/pkg/logx"
)

// fileStore keeps one JSON record per target id under a state directory.
// File naming is stable across runs: <dir>/<target id>.json.
type fileStore struct {
	dir string
	log logx.Logger
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		return nil, errors.New("state.path is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{dir: dir, log: log}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) path(targetID string) string {
	return filepath.Join(s.dir, targetID+".json")
}

func (s *fileStore) Load(ctx context.Context, targetID string) (TargetState, error) {
	_ = ctx
	b, err := os.ReadFile(s.path(targetID))
	if err != nil {
		if os.IsNotExist(err) {
			return TargetState{}, nil
		}
		return TargetState{}, err
	}
	var st TargetState
	if err := json.Unmarshal(b, &st); err != nil {
		return TargetState{}, fmt.Errorf("state record for %q: %w", targetID, err)
	}
	return st, nil
}

// Save writes to a temp file in the same directory, syncs, then renames over
// the record. A crash mid-write leaves the previous valid record intact.
func (s *fileStore) Save(ctx context.Context, targetID string, st TargetState) error {
	_ = ctx
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}

	path := s.path(targetID)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
