package winners

// RecordWinnerRequest carries one winner entry submitted by the input view.
// SessionID may be empty, in which case the currently active session is
// used; when set it must match the active session.
type RecordWinnerRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
	PlayerID  string `json:"player_id,omitempty"`
	Prize     string `json:"prize,omitempty"`
}
