package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// parseDate resolves a --date value to local midnight of that day. It accepts
// ISO dates and expressions such as "yesterday" or "last friday", which are
// read as pointing into the past. Empty means today.
func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return startOfDay(now), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}

	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	if t.Equal(now) && !strings.EqualFold(s, "now") && !strings.EqualFold(s, "today") {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return startOfDay(t.In(now.Location())), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// activityDay trims a server timestamp such as 2024-03-05T00:00:00.000Z to
// its date.
func activityDay(s string) string {
	if len(s) >= len("2006-01-02") {
		return s[:len("2006-01-02")]
	}
	return s
}
