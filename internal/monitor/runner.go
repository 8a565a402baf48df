// Package monitor runs polling cycles: fetch, dedup against persisted
// state, classify, persist, dispatch.
package monitor

import (
	"context"
	"sync"
	"time"

	"watchtower/internal/classify"
	"watchtower/internal/config"
	"watchtower/internal/notify"
	"watchtower/internal/source"
	"watchtower/internal/state"
	logx "watchtower/pkg/logx"
)

// Entry pairs a target with its resolved adapter.
type Entry struct {
	Target config.Target
	Source source.Source
}

// Runner executes one polling pass over all targets. Targets are
// independent units: each one's fetch→filter→classify→persist→dispatch
// sequence runs on a single goroutine, and a failure in one never aborts
// the others.
type Runner struct {
	log      logx.Logger
	entries  []Entry
	store    state.Store
	notifier *notify.Service
	workers  int
	loc      *time.Location

	// now is swappable for tests.
	now func() time.Time
}

func NewRunner(entries []Entry, store state.Store, notifier *notify.Service, workers int, loc *time.Location, log logx.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		log:      log,
		entries:  entries,
		store:    store,
		notifier: notifier,
		workers:  workers,
		loc:      loc,
		now:      time.Now,
	}
}

// RunOnce is the unit of work: one full pass over all configured targets.
// With workers > 1, targets are processed by a bounded pool; notification
// ordering across different targets is not guaranteed either way.
func (r *Runner) RunOnce(ctx context.Context) {
	start := r.now()
	r.log.Info("cycle start", logx.Int("targets", len(r.entries)))

	if r.workers <= 1 {
		for _, e := range r.entries {
			if ctx.Err() != nil {
				break
			}
			r.processTarget(ctx, e)
		}
	} else {
		sem := make(chan struct{}, r.workers)
		var wg sync.WaitGroup
		for _, e := range r.entries {
			if ctx.Err() != nil {
				break
			}
			e := e
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				r.processTarget(ctx, e)
			}()
		}
		wg.Wait()
	}

	r.log.Info("cycle end", logx.Duration("dur", r.now().Sub(start)))
}

func (r *Runner) processTarget(ctx context.Context, e Entry) {
	t := e.Target
	log := r.log.With(logx.String("target", t.ID))

	items, err := e.Source.Fetch(ctx, t)
	if err != nil {
		// One error notification per failed target; state stays untouched.
		log.Error("fetch failed", logx.String("kind", string(t.Kind)), logx.Err(err))
		r.notifier.Send(ctx, errorMessage(t, r.now().In(r.loc), err))
		return
	}

	st, err := r.store.Load(ctx, t.ID)
	if err != nil {
		// Unreadable state degrades to "first run" rather than failing the
		// target; the bounded seen list caps the duplicate fallout.
		log.Warn("state unreadable; treating as first run", logx.Err(err))
		st = state.TargetState{}
	}

	seen := st.SeenSet()
	newItems := items[:0:0]
	for _, it := range items {
		if !seen[it.ID] {
			newItems = append(newItems, it)
		}
	}
	if len(newItems) == 0 {
		log.Debug("no changes")
		return
	}

	fetchedIDs := make([]string, len(items))
	for i, it := range items {
		fetchedIDs[i] = it.ID
	}
	next := state.TargetState{
		SeenIDs: state.MergeSeen(fetchedIDs, st.SeenIDs),
		LastRun: r.now().In(r.loc).Format(timestampFormat),
	}
	if err := r.store.Save(ctx, t.ID, next); err != nil {
		// Notifications still go out; the next cycle may repeat them, which
		// is the accepted at-least-once degradation.
		log.Error("state save failed", logx.Err(err))
	}

	top := newItems
	if len(top) > maxItemMessages {
		top = top[:maxItemMessages]
	}
	for _, it := range top {
		level, comment := classify.Classify(it, t)
		r.notifier.Send(ctx, itemMessage(t, it, level, comment))
	}
	if remaining := len(newItems) - maxItemMessages; remaining > 0 {
		r.notifier.Send(ctx, overflowMessage(t, remaining))
	}

	log.Info("notified changes", logx.Int("new_items", len(newItems)), logx.Int("fetched", len(items)))
}
