package util

import (
	"strconv"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
}

// ParseTime tries the known layouts, then unix seconds or milliseconds.
// Values without an offset are returned in UTC with their wall clock intact.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return FromUnix(ts), true
	}
	return time.Time{}, false
}

// FromUnix accepts seconds or milliseconds.
func FromUnix(ts int64) time.Time {
	if ts > 1e11 { // ms
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}
