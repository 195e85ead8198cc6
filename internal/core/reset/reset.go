// Package reset computes the recurring weekly reset boundary
// The boundary is a fixed weekday and hour in UTC; weekly progress counters
// conceptually restart at that instant
package reset

import "time"

// Default window: Wednesday 07:00 UTC (EU region lockout)
const (
	DefaultWeekday = time.Wednesday
	DefaultHour    = 7
)

// Window describes the weekly cutover instant
type Window struct {
	Weekday time.Weekday
	Hour    int
}

// Default returns the default reset window
func Default() Window { return Window{Weekday: DefaultWeekday, Hour: DefaultHour} }

// Boundary returns the most recent occurrence of the window's weekday/hour
// at or before now. If now falls on the reset weekday but before the hour,
// the boundary is the previous week's occurrence. Pure and deterministic
func (w Window) Boundary(now time.Time) time.Time {
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), w.Hour, 0, 0, 0, time.UTC)
	daysBack := int(now.Weekday() - w.Weekday)
	if daysBack < 0 {
		daysBack += 7
	}
	candidate = candidate.AddDate(0, 0, -daysBack)
	if candidate.After(now) {
		candidate = candidate.AddDate(0, 0, -7)
	}
	return candidate
}
