package plans

// CreateSessionRequest carries the fields for a single new session.
type CreateSessionRequest struct {
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	WinnerQuota int      `json:"winner_quota"`
	Prizes      []string `json:"prizes,omitempty"`
}

// BulkCreateSessionsRequest partitions a time range into consecutive
// sessions of IntervalMinutes each; the last interval is clipped to EndTime.
// Replace acknowledges that any existing sessions will be discarded.
type BulkCreateSessionsRequest struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	IntervalMinutes int    `json:"interval_minutes"`
	WinnerQuota     int    `json:"winner_quota"`
	Replace         bool   `json:"replace"`
}
