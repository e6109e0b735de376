package models

import "time"

// WinnerStatus defines the lifecycle status of a recorded winner.
type WinnerStatus string

const (
	WinnerStatusActive       WinnerStatus = "Active"
	WinnerStatusClaimed      WinnerStatus = "Claimed"
	WinnerStatusDisqualified WinnerStatus = "Disqualified"
)

// Winner is a recorded drawing result. Name, PlayerID, Prize and SessionID
// are fixed at creation; only Status changes afterwards.
type Winner struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	PlayerID  string       `json:"player_id,omitempty"`
	Prize     string       `json:"prize,omitempty"`
	SessionID string       `json:"session_id"`
	CreatedAt time.Time    `json:"created_at"`
	Status    WinnerStatus `json:"status"`
}
