package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
watch:
  interval: 10m
  timezone: Asia/Tokyo
notifiers:
  slack: true
  discord: false
targets:
  - id: security-feed
    kind: rss
    title: Security advisories
    url: https://example.com/feed.xml
  - id: law-watch
    kind: law-updates
    important_keywords: [labor, invoice]
  - id: grants-watch
    kind: grants
    keywords: [IT, DX]
`

func TestLoadValid(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(cfg.Targets); got != 3 {
		t.Fatalf("targets = %d, want 3", got)
	}
	if cfg.Targets[0].Kind != KindFeed {
		t.Fatalf("kind rss should normalize to %q, got %q", KindFeed, cfg.Targets[0].Kind)
	}
	if cfg.Targets[1].Kind != KindLawUpdates || cfg.Targets[2].Kind != KindGrants {
		t.Fatalf("unexpected kinds: %q %q", cfg.Targets[1].Kind, cfg.Targets[2].Kind)
	}

	d, err := cfg.IntervalDuration()
	if err != nil || d != 10*time.Minute {
		t.Fatalf("interval = %v (%v), want 10m", d, err)
	}

	// Defaults.
	if cfg.Targets[0].MaxItems != DefaultMaxItems {
		t.Fatalf("max_items default = %d, want %d", cfg.Targets[0].MaxItems, DefaultMaxItems)
	}
	g := cfg.Targets[2]
	if g.Acceptance != DefaultAcceptance || g.Sort != DefaultSort || g.Order != DefaultOrder {
		t.Fatalf("grants defaults not applied: %+v", g)
	}
	if cfg.Watch.Workers != 1 {
		t.Fatalf("workers default = %d, want 1", cfg.Watch.Workers)
	}
	if cfg.State.Driver != "file" || cfg.State.Path != DefaultStatePath {
		t.Fatalf("state defaults not applied: %+v", cfg.State)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "targets:\n  - id: a\n    kind: feed\n    url: https://x\n    bogus: 1\n",
			want: "bogus",
		},
		{
			name: "unknown kind",
			body: "targets:\n  - id: a\n    kind: funding\n",
			want: "unknown target kind",
		},
		{
			name: "duplicate id",
			body: "targets:\n  - id: a\n    kind: law-updates\n  - id: a\n    kind: law-updates\n",
			want: "duplicate target id",
		},
		{
			name: "feed without url",
			body: "targets:\n  - id: a\n    kind: feed\n",
			want: "url is required",
		},
		{
			name: "grants without keywords",
			body: "targets:\n  - id: a\n    kind: grants\n",
			want: "keywords are required",
		},
		{
			name: "no targets",
			body: "notifiers:\n  slack: true\n",
			want: "at least one target",
		},
		{
			name: "bad interval",
			body: "watch:\n  interval: every5m\ntargets:\n  - id: a\n    kind: law-updates\n",
			want: "watch.interval",
		},
		{
			name: "zero interval",
			body: "watch:\n  interval: 0s\ntargets:\n  - id: a\n    kind: law-updates\n",
			want: "must be > 0",
		},
		{
			name: "id unsafe for filenames",
			body: "targets:\n  - id: \"a/b\"\n    kind: law-updates\n",
			want: "must match",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDurationOrDefault(t *testing.T) {
	t.Parallel()
	if d, err := durationOrDefault("f", "", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("empty field = %v (%v), want default 1m", d, err)
	}
	if d, err := durationOrDefault("f", " 90s ", time.Minute); err != nil || d != 90*time.Second {
		t.Fatalf("padded field = %v (%v), want 90s", d, err)
	}
	if _, err := durationOrDefault("f", "-5m", time.Minute); err == nil {
		t.Fatal("negative duration accepted")
	}
}

func TestLocationDefault(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Fatalf("timezone = %s, want %s", loc, DefaultTimezone)
	}
}
