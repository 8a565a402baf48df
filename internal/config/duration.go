package config

import (
	"fmt"
	"strings"
	"time"
)

// durationOrDefault parses a Go duration string from config, returning def
// when the field is empty. Zero and negative durations are rejected: a
// monitor polling "every 0s" is a misconfiguration, not a valid schedule.
func durationOrDefault(field, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be > 0", field)
	}
	return d, nil
}
