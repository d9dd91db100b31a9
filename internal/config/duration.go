package config

import (
	"fmt"
	"strings"
	"time"
)

// Durations in the config file are Go duration strings ("500ms", "10s",
// "1m"). Empty means unset; callers decide whether unset maps to zero or a
// default. Negative values are always rejected.

// ParseDurationField parses one duration field. path names the field in the
// config tree ("history.retention") so validation errors point at it.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with unset (or zero) falling
// back to def.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
