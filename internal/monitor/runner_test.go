package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"watchtower/internal/config"
	"watchtower/internal/notify"
	"watchtower/internal/source"
	"watchtower/internal/state"
	logx "watchtower/pkg/logx"
)

type fakeSource struct {
	items []source.Item
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context, t config.Target) ([]source.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type captureSink struct {
	mu  sync.Mutex
	got []notify.Message
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Send(ctx context.Context, m notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, m)
	return nil
}

func (c *captureSink) messages() []notify.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Message(nil), c.got...)
}

func (c *captureSink) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = nil
}

func testItem(id, title string) source.Item {
	return source.Item{
		ID:        id,
		Title:     title,
		Summary:   "summary of " + title,
		URL:       "https://example.com/" + id,
		Published: "2026-08-31",
		Source:    "test feed",
	}
}

func testTarget(id string) config.Target {
	return config.Target{ID: id, Kind: config.KindFeed, Title: "Target " + id, URL: "https://example.com/feed"}
}

type harness struct {
	runner *Runner
	sink   *captureSink
	store  state.Store
	dir    string
}

func newHarness(t *testing.T, entries []Entry) *harness {
	t.Helper()
	dir := t.TempDir()
	store, err := state.Open(state.Config{Driver: "file", Path: dir}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sink := &captureSink{}
	svc := notify.NewService([]notify.Sink{sink}, 1000, logx.Nop())
	r := NewRunner(entries, store, svc, 1, time.UTC, logx.Nop())
	r.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return &harness{runner: r, sink: sink, store: store, dir: dir}
}

func (h *harness) seenIDs(t *testing.T, targetID string) []string {
	t.Helper()
	st, err := h.store.Load(context.Background(), targetID)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return st.SeenIDs
}

func TestRunOnceFirstRunNotifiesAll(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: []source.Item{testItem("x", "X"), testItem("y", "Y"), testItem("z", "Z")}}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	h.runner.RunOnce(context.Background())

	msgs := h.sink.messages()
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	for i, want := range []string{"X", "Y", "Z"} {
		if !strings.Contains(msgs[i].Body, "Title: "+want) {
			t.Fatalf("message %d does not mention %s: %q", i, want, msgs[i].Body)
		}
		if !strings.HasPrefix(msgs[i].Headline, "🚨") {
			t.Fatalf("item headline %q missing alert prefix", msgs[i].Headline)
		}
	}
	st, err := h.store.Load(context.Background(), "t1")
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if !reflect.DeepEqual(st.SeenIDs, []string{"x", "y", "z"}) {
		t.Fatalf("seen ids = %v", st.SeenIDs)
	}
	if st.LastRun != "2026-08-31 12:00:00 UTC" {
		t.Fatalf("last run = %q", st.LastRun)
	}
}

func TestRunOnceOnlyNewItemsNotify(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: []source.Item{testItem("x", "X"), testItem("y", "Y")}}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	err := h.store.Save(context.Background(), "t1", state.TargetState{SeenIDs: []string{"x"}})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}

	h.runner.RunOnce(context.Background())

	msgs := h.sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if !strings.Contains(msgs[0].Body, "Title: Y") {
		t.Fatalf("unexpected message: %q", msgs[0].Body)
	}
	if got := h.seenIDs(t, "t1"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("seen ids = %v", got)
	}
}

func TestRunOnceIdempotent(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: []source.Item{testItem("x", "X"), testItem("y", "Y")}}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	h.runner.RunOnce(context.Background())
	after, err := os.ReadFile(filepath.Join(h.dir, "t1.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}

	h.sink.reset()
	h.runner.RunOnce(context.Background())

	if msgs := h.sink.messages(); len(msgs) != 0 {
		t.Fatalf("second identical run sent %d messages, want 0", len(msgs))
	}
	again, err := os.ReadFile(filepath.Join(h.dir, "t1.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if string(after) != string(again) {
		t.Fatal("no-change cycle rewrote the state file")
	}
}

func TestRunOnceOverflow(t *testing.T) {
	t.Parallel()
	var items []source.Item
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("n%d", i)
		items = append(items, testItem(id, "Item "+id))
	}
	src := &fakeSource{items: items}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	h.runner.RunOnce(context.Background())

	msgs := h.sink.messages()
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 3 items + 1 overflow", len(msgs))
	}
	last := msgs[3]
	if !strings.HasPrefix(last.Headline, "📌") {
		t.Fatalf("overflow headline = %q", last.Headline)
	}
	if !strings.Contains(last.Body, "2 more") {
		t.Fatalf("overflow body = %q, want mention of 2 remaining", last.Body)
	}
	// All five still recorded as seen even though only three were itemized.
	if got := h.seenIDs(t, "t1"); len(got) != 5 {
		t.Fatalf("seen ids = %v, want all 5", got)
	}
}

func TestRunOnceExactlyThreeNoOverflow(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: []source.Item{testItem("a", "A"), testItem("b", "B"), testItem("c", "C")}}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	h.runner.RunOnce(context.Background())

	msgs := h.sink.messages()
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3 and no overflow", len(msgs))
	}
	for _, m := range msgs {
		if strings.HasPrefix(m.Headline, "📌") {
			t.Fatalf("unexpected overflow message: %q", m.Headline)
		}
	}
}

func TestRunOnceFetchErrorIsolated(t *testing.T) {
	t.Parallel()
	broken := &fakeSource{err: fmt.Errorf("%w: connection refused", source.ErrTransport)}
	healthy := &fakeSource{items: []source.Item{testItem("x", "X")}}
	h := newHarness(t, []Entry{
		{Target: testTarget("bad"), Source: broken},
		{Target: testTarget("good"), Source: healthy},
	})

	err := h.store.Save(context.Background(), "bad", state.TargetState{SeenIDs: []string{"old"}})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(h.dir, "bad.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}

	h.runner.RunOnce(context.Background())

	msgs := h.sink.messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want error + item", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].Headline, "⚠️") {
		t.Fatalf("first message = %q, want fetch-failure alert", msgs[0].Headline)
	}
	if !strings.Contains(msgs[0].Body, "connection refused") {
		t.Fatalf("error body = %q", msgs[0].Body)
	}
	if !strings.Contains(msgs[1].Body, "Title: X") {
		t.Fatalf("healthy target not processed: %q", msgs[1].Body)
	}

	after, err := os.ReadFile(filepath.Join(h.dir, "bad.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("failed fetch must leave the target's state untouched")
	}
}

func TestRunOnceCorruptStateDegradesToFirstRun(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: []source.Item{testItem("x", "X")}}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	err := os.WriteFile(filepath.Join(h.dir, "t1.json"), []byte("{not json"), 0o644)
	if err != nil {
		t.Fatalf("write corrupt state: %v", err)
	}

	h.runner.RunOnce(context.Background())

	if msgs := h.sink.messages(); len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if got := h.seenIDs(t, "t1"); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("seen ids = %v", got)
	}
}

func TestRunOnceWorkerPoolCoversAllTargets(t *testing.T) {
	t.Parallel()
	var entries []Entry
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("t%d", i)
		entries = append(entries, Entry{
			Target: testTarget(id),
			Source: &fakeSource{items: []source.Item{testItem(id+"-item", "Item "+id)}},
		})
	}
	h := newHarness(t, entries)
	h.runner.workers = 3

	h.runner.RunOnce(context.Background())

	if msgs := h.sink.messages(); len(msgs) != 6 {
		t.Fatalf("messages = %d, want one per target", len(msgs))
	}
	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("t%d", i)
		if got := h.seenIDs(t, id); !reflect.DeepEqual(got, []string{id + "-item"}) {
			t.Fatalf("target %s seen ids = %v", id, got)
		}
	}
}

func TestRunOnceCancelledContextStops(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: []source.Item{testItem("x", "X")}}
	h := newHarness(t, []Entry{{Target: testTarget("t1"), Source: src}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.runner.RunOnce(ctx)

	if msgs := h.sink.messages(); len(msgs) != 0 {
		t.Fatalf("cancelled run sent %d messages", len(msgs))
	}
}

func TestErrorMessageMentionsKindAndTime(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	m := errorMessage(testTarget("t1"), at, errors.New("boom"))
	if !strings.Contains(m.Body, "2026-08-31 12:00:00 UTC") {
		t.Fatalf("body missing timestamp: %q", m.Body)
	}
	if !strings.Contains(m.Body, "Kind: feed") {
		t.Fatalf("body missing kind: %q", m.Body)
	}
}
