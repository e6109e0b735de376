package events

import (
	"time"

	"github.com/munchkineatter/DDrum/internal/models"
)

// PlanSavedPayload is published when a plan is created or overwritten.
type PlanSavedPayload struct {
	Plan models.Plan `json:"plan"`
}

// PlanDeletedPayload is published when a plan is removed.
type PlanDeletedPayload struct {
	PlanName  string `json:"plan_name"`
	WasActive bool   `json:"was_active"`
}

// PlanActivatedPayload is published when the active-plan pointer moves.
type PlanActivatedPayload struct {
	Plan models.Plan `json:"plan"`
}

// SessionCreatedPayload is published for each session added to a plan,
// including bulk creation.
type SessionCreatedPayload struct {
	PlanName string         `json:"plan_name"`
	Session  models.Session `json:"session"`
}

// SessionRemovedPayload is published when a session is removed in planning.
type SessionRemovedPayload struct {
	PlanName  string `json:"plan_name"`
	SessionID string `json:"session_id"`
}

// SessionActivatedPayload is published when a session goes live.
type SessionActivatedPayload struct {
	PlanName string         `json:"plan_name"`
	Session  models.Session `json:"session"`
}

// SessionEndedPayload is published when the input view ends the active
// session. The session record itself survives.
type SessionEndedPayload struct {
	PlanName    string    `json:"plan_name"`
	SessionID   string    `json:"session_id"`
	WinnerCount int       `json:"winner_count"`
	EndedAt     time.Time `json:"ended_at"`
}

// WinnerRecordedPayload is published when a new winner entry is recorded.
type WinnerRecordedPayload struct {
	Winner models.Winner `json:"winner"`
}

// WinnerStatusChangedPayload is published on claim, disqualify and reset.
type WinnerStatusChangedPayload struct {
	Winner models.Winner `json:"winner"`
}

// WinnerRemovedPayload is published when a winner is permanently deleted.
type WinnerRemovedPayload struct {
	WinnerID string `json:"winner_id"`
}

// WinnersClearedPayload is published when the whole registry is wiped.
type WinnersClearedPayload struct {
	ClearedAt time.Time `json:"cleared_at"`
}

// PrizeAllocatedPayload is published when the allocator hands out a prize.
type PrizeAllocatedPayload struct {
	PlanName string       `json:"plan_name"`
	Prize    models.Prize `json:"prize"`
}

// PrizesResetPayload is published when a plan's pool is reset.
type PrizesResetPayload struct {
	PlanName string `json:"plan_name"`
}

// TimerStartedPayload is published when a countdown begins.
type TimerStartedPayload struct {
	TotalSeconds int       `json:"total_seconds"`
	StartedAt    time.Time `json:"started_at"`
}

// TimerPausedPayload is published when a countdown freezes.
type TimerPausedPayload struct {
	RemainingSeconds int `json:"remaining_seconds"`
}

// TimerResetPayload is published when the countdown is reset without
// starting.
type TimerResetPayload struct {
	TotalSeconds int `json:"total_seconds"`
}

// TimerTickPayload carries the once-per-second countdown update. Display is
// the formatted "MM:SS" string the views render verbatim.
type TimerTickPayload struct {
	RemainingSeconds int       `json:"remaining_seconds"`
	Display          string    `json:"display"`
	TickedAt         time.Time `json:"ticked_at"`
}

// TimerFinishedPayload is published exactly once when the countdown reaches
// zero.
type TimerFinishedPayload struct {
	FinishedAt time.Time `json:"finished_at"`
}
