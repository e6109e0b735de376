package models

import "time"

// TimerState is the process-wide countdown state. Remaining time is always
// derived from the wall clock against StartedAt, never stored.
type TimerState struct {
	TotalSeconds int       `json:"total_seconds"`
	StartedAt    time.Time `json:"started_at"`
	Running      bool      `json:"running"`
}

// Remaining returns the seconds left at the given instant, floored at zero.
// When the timer is not running TotalSeconds is the frozen remainder.
func (s TimerState) Remaining(now time.Time) int {
	if !s.Running {
		return s.TotalSeconds
	}
	elapsed := int(now.Sub(s.StartedAt) / time.Second)
	remaining := s.TotalSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
