package models

// Prize is an entry in a plan's prize pool. Once Assigned is set the
// allocator will not offer it again until the pool is reset.
type Prize struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Assigned bool   `json:"assigned"`
}

// Session is a scheduled drawing window within a plan. Times are clock
// times ("HH:MM"); Number is display-only ordinal.
type Session struct {
	ID          string   `json:"id"`
	Number      int      `json:"number"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	WinnerQuota int      `json:"winner_quota"`
	Prizes      []string `json:"prizes,omitempty"`
}

// Plan is a named promotional event definition. Name is the unique key.
// At most one session within a plan is active at a time.
type Plan struct {
	Name               string    `json:"name"`
	Date               string    `json:"date"`
	MasterTimerMinutes int       `json:"master_timer_minutes"`
	Prizes             []Prize   `json:"prizes"`
	Sessions           []Session `json:"sessions"`
	ActiveSessionID    string    `json:"active_session_id,omitempty"`
}

// SessionByID returns the session with the given id, or nil.
func (p *Plan) SessionByID(id string) *Session {
	for i := range p.Sessions {
		if p.Sessions[i].ID == id {
			return &p.Sessions[i]
		}
	}
	return nil
}

// ActiveSession returns the currently active session, or nil when none is
// active or the pointer dangles.
func (p *Plan) ActiveSession() *Session {
	if p.ActiveSessionID == "" {
		return nil
	}
	return p.SessionByID(p.ActiveSessionID)
}
