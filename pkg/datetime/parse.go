// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the short form accepted for timestamps in plan files.
	DateLayout = "2006-01-02"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, DateLayout}

// ParseTimestamp parses an RFC 3339 timestamp or a bare YYYY-MM-DD date,
// which is taken as midnight UTC.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, expected RFC 3339 or %s", value, DateLayout)
}

// ParseOptionalTimestamp returns nil for an empty value and otherwise the
// parsed timestamp.
func ParseOptionalTimestamp(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}
