package state

import (
	"context"
	"errors"
	"strings"

	logx "watchtower/pkg/logx"
)

// MaxSeenIDs bounds every persisted seen-id list. Old ids age out once they
// fall past this position; freshly fetched ids are never evicted in the
// cycle that added them.
const MaxSeenIDs = 300

// TargetState is the persisted record for one target id.
//
// SeenIDs is most-recent-first: the order reflects when an id was last
// observed, not when it was first seen. LastRun is only rewritten by cycles
// that found new items.
type TargetState struct {
	SeenIDs []string `json:"seen_ids"`
	LastRun string   `json:"last_run,omitempty"`
}

// SeenSet returns the seen ids as a lookup set.
func (s TargetState) SeenSet() map[string]bool {
	set := make(map[string]bool, len(s.SeenIDs))
	for _, id := range s.SeenIDs {
		set[id] = true
	}
	return set
}

// MergeSeen builds the next seen list after a cycle that fetched the given
// ids: fetched ids first (fetch order), then prior ids not already present,
// truncated to MaxSeenIDs keeping first occurrence. Fetched ids therefore
// survive even when the upstream feed shrank below the cap.
func MergeSeen(fetched, prior []string) []string {
	out := make([]string, 0, len(fetched)+len(prior))
	seen := make(map[string]bool, len(fetched)+len(prior))
	for _, lists := range [][]string{fetched, prior} {
		for _, id := range lists {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			if len(out) == MaxSeenIDs {
				return out
			}
		}
	}
	return out
}

// Store loads and saves per-target state.
//
// Load never fails for a target that has no record yet; it returns the empty
// state. Save must be atomic with respect to a process crash: a partial
// write must not clobber the previous valid record.
type Store interface {
	Load(ctx context.Context, targetID string) (TargetState, error)
	Save(ctx context.Context, targetID string, st TargetState) error
	Close() error
}

// Config selects and configures the store driver.
type Config struct {
	Driver string
	Path   string
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown state driver: " + cfg.Driver)
	}
}
