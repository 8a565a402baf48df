package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

var targetIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Defaults applied by Load when the corresponding field is omitted.
const (
	DefaultInterval   = 5 * time.Minute
	DefaultTimezone   = "Asia/Tokyo"
	DefaultMaxItems   = 20
	DefaultStatePath  = "./.state"
	DefaultAcceptance = "1"
	DefaultSort       = "acceptance_end_datetime"
	DefaultOrder      = "ASC"
)

// Load reads, strictly decodes, validates, and defaults the config file.
// Any error here is fatal at startup; nothing re-reads the file afterwards.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := configToJSON(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// IntervalDuration resolves watch.interval, falling back to the default.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return durationOrDefault("watch.interval", c.Watch.Interval, DefaultInterval)
}

// Location resolves watch.timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Watch.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("watch.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("config: at least one target is required")
	}
	if _, err := c.IntervalDuration(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	seen := map[string]bool{}
	for i, t := range c.Targets {
		at := fmt.Sprintf("targets[%d]", i)
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return fmt.Errorf("%s: id is required", at)
		}
		// Target ids name state records on disk.
		if !targetIDPattern.MatchString(id) {
			return fmt.Errorf("%s: id %q must match %s", at, id, targetIDPattern)
		}
		if seen[id] {
			return fmt.Errorf("%s: duplicate target id %q", at, id)
		}
		seen[id] = true
		if t.MaxItems < 0 {
			return fmt.Errorf("%s: max_items must be >= 0", at)
		}

		switch t.Kind {
		case KindFeed:
			if strings.TrimSpace(t.URL) == "" {
				return fmt.Errorf("%s: url is required for feed targets", at)
			}
		case KindGrants:
			if len(t.Keywords) == 0 {
				return fmt.Errorf("%s: keywords are required for grants targets", at)
			}
		case KindLawUpdates:
			// no required parameters
		default:
			return fmt.Errorf("%s: unknown kind %q", at, t.Kind)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Watch.Workers <= 0 {
		c.Watch.Workers = 1
	}
	if c.Notifiers.RatePerSec <= 0 {
		c.Notifiers.RatePerSec = 3
	}
	if strings.TrimSpace(c.State.Driver) == "" {
		c.State.Driver = "file"
	}
	if strings.TrimSpace(c.State.Path) == "" {
		c.State.Path = DefaultStatePath
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.MaxItems == 0 {
			t.MaxItems = DefaultMaxItems
		}
		if t.Kind == KindGrants {
			if strings.TrimSpace(t.Acceptance) == "" {
				t.Acceptance = DefaultAcceptance
			}
			if strings.TrimSpace(t.Sort) == "" {
				t.Sort = DefaultSort
			}
			if strings.TrimSpace(t.Order) == "" {
				t.Order = DefaultOrder
			}
		}
	}
}
