package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Watch     WatchConfig     `json:"watch"`
	Notifiers NotifiersConfig `json:"notifiers"`
	State     StateConfig     `json:"state,omitempty"`
	Targets   []Target        `json:"targets"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// WatchConfig controls the continuous polling loop.
//
// Interval is a Go duration string (e.g. "5m", "300s"). Timezone is an IANA
// name and also defines the calendar day used by the law-updates adapter;
// it defaults to Asia/Tokyo because that is where the monitored registries
// publish. Workers bounds how many targets are polled concurrently within
// one cycle (1 = sequential).
type WatchConfig struct {
	Interval string `json:"interval,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Workers  int    `json:"workers,omitempty"`
}

// NotifiersConfig toggles destinations. Endpoint secrets come from the
// environment; an enabled destination without its secret is skipped.
type NotifiersConfig struct {
	Slack      bool `json:"slack"`
	Discord    bool `json:"discord"`
	Telegram   bool `json:"telegram,omitempty"`
	RatePerSec int  `json:"rate_per_sec,omitempty"`
}

// StateConfig controls the persisted seen-id store.
//
// Driver values:
//   - "file" (default): one JSON record per target id under Path
//   - "sqlite": single database file at Path (requires the sqlite build tag)
type StateConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Kind is the closed set of source kinds. It is resolved from the config
// string during Load so everything downstream switches on a typed value.
type Kind string

const (
	KindFeed       Kind = "feed"
	KindLawUpdates Kind = "law-updates"
	KindGrants     Kind = "grants"
)

// UnmarshalJSON resolves and validates the kind while the config is decoded,
// so an unknown kind is a load-time error rather than a skipped target.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "feed", "rss":
		return KindFeed, nil
	case "law-updates", "law_updates":
		return KindLawUpdates, nil
	case "grants":
		return KindGrants, nil
	default:
		return "", fmt.Errorf("unknown target kind %q", s)
	}
}

// Target is one monitored source. Kind-specific fields:
//   - feed: URL
//   - grants: Keywords (required), Acceptance/Sort/Order (defaulted)
//   - law-updates: ImportantKeywords (optional classifier boost)
type Target struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Title    string `json:"title,omitempty"`
	MaxItems int    `json:"max_items,omitempty"`

	URL string `json:"url,omitempty"`

	Keywords   []string `json:"keywords,omitempty"`
	Acceptance string   `json:"acceptance,omitempty"`
	Sort       string   `json:"sort,omitempty"`
	Order      string   `json:"order,omitempty"`

	ImportantKeywords []string `json:"important_keywords,omitempty"`
}

// DisplayTitle is what notifications embed; falls back to the target id.
func (t Target) DisplayTitle() string {
	if strings.TrimSpace(t.Title) != "" {
		return t.Title
	}
	return t.ID
}
