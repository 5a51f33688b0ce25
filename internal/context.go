package internal

import (
	"context"
	"time"
)

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FirstDayOfMonth returns midnight of the first day of t's month.
func FirstDayOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// LastDayOfMonth returns the day number of the last day in t's month.
func LastDayOfMonth(t time.Time) int {
	return FirstDayOfMonth(t).AddDate(0, 1, -1).Day()
}

// NextDayStart returns midnight of the day after t.
func NextDayStart(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
