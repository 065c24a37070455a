package timeutil

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Relative formats t relative to now.
func Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// SinceAt formats an RFC 3339 timestamp relative to now. Values that do
// not parse are returned unchanged; an empty value renders as "-".
func SinceAt(ts string, now time.Time) string {
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return Relative(t, now)
}

// Since formats an RFC 3339 timestamp relative to the current time.
func Since(ts string) string {
	return SinceAt(ts, time.Now())
}
