package resolve

import (
	"strconv"
	"strings"
	"time"
)

var afterLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseAfter parses the "after" query value. It accepts RFC 3339 timestamps,
// date and date-time prefixes of them (read as UTC) and integer epoch
// milliseconds. ok is false for empty or unparseable input, which callers
// treat as "no filter".
func ParseAfter(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && len(raw) > 4 {
		return time.UnixMilli(ms).UTC(), true
	}
	return parseTime(raw)
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range afterLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
