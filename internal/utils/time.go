package utils

import (
	"fmt"
	"strings"
	"time"
)

const layoutMinute = "2006-01-02 15:04"

// Layouts accepted from the storefront, the admin forms and the API.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses an ISO-like datetime. Values without an offset are read as UTC.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

// CanonicalMinute renders a datetime as "YYYY-MM-DD HH:MM" on its own wall
// clock, dropping seconds and the zone. Unparseable input is returned trimmed.
func CanonicalMinute(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return s
	}
	return t.Format(layoutMinute)
}
