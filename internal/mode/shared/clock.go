// Package shared provides helpers common to the screens.
package shared

import (
	"fmt"
	"time"
)

// Clock provides the current time. Tests pass a FixedClock.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Added renders a backend creation timestamp relative to clock.
// Missing or unparseable timestamps render as "-".
func Added(createdAt *string, clock Clock) string {
	if createdAt == nil || *createdAt == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, *createdAt)
	if err != nil {
		return "-"
	}
	return FormatRelativeTimeFrom(t, clock.Now())
}

// FormatRelativeTimeFrom returns a short relative timestamp such as "now",
// "5m ago", "3h ago", "2d ago", "1w ago", "3mo ago" or "1y ago".
func FormatRelativeTimeFrom(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		// Future timestamps from a skewed backend clock land here too
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 4*7*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy ago", int(d.Hours()/(24*365)))
	}
}
