package gateway

import (
	"context"
	"fmt"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
	"github.com/munchkineatter/DDrum/internal/timeutil"
)

// PlanSource resolves the active plan. The plans App implements it.
type PlanSource interface {
	ActivePlan(ctx context.Context) (*models.Plan, error)
}

// WinnerLister lists active winners, optionally scoped to one session. The
// winners App implements it.
type WinnerLister interface {
	ListActive(ctx context.Context, sessionID string) ([]models.Winner, error)
}

// TimerSource exposes the countdown state. The timer Engine implements it.
type TimerSource interface {
	State() models.TimerState
	Remaining() int
}

// TimerSnapshot is the countdown portion of a state snapshot, with the
// remaining seconds already resolved so clients need no clock math.
type TimerSnapshot struct {
	models.TimerState
	RemainingSec int    `json:"remaining_sec"`
	Display      string `json:"display"`
}

// StateSnapshot is the full current state of the drawing, sent to every
// WebSocket client on attach and served at GET /api/state. A client that
// missed events rebuilds its view entirely from this.
type StateSnapshot struct {
	Type          string          `json:"type"`
	ActivePlan    *models.Plan    `json:"active_plan"`
	ActiveSession *models.Session `json:"active_session"`
	SessionWindow string          `json:"session_window,omitempty"`
	ActiveWinners []models.Winner `json:"active_winners"`
	Timer         TimerSnapshot   `json:"timer"`
}

// SnapshotProvider assembles state snapshots from the plan, winner and
// timer components.
type SnapshotProvider struct {
	plans   PlanSource
	winners WinnerLister
	timer   TimerSource
}

// NewSnapshotProvider creates a snapshot provider.
func NewSnapshotProvider(plans PlanSource, winners WinnerLister, timer TimerSource) *SnapshotProvider {
	return &SnapshotProvider{plans: plans, winners: winners, timer: timer}
}

// Snapshot builds the current state. A missing active plan or session is
// represented as null, not an error.
func (p *SnapshotProvider) Snapshot(ctx context.Context) (*StateSnapshot, error) {
	snapshot := &StateSnapshot{
		Type:          "state_snapshot",
		ActiveWinners: []models.Winner{},
	}

	plan, err := p.plans.ActivePlan(ctx)
	switch {
	case err == nil:
		snapshot.ActivePlan = plan
		snapshot.ActiveSession = plan.ActiveSession()
	case errs.IsNotFound(err):
		// No active plan is a normal state before the event starts.
	default:
		return nil, fmt.Errorf("failed to load active plan: %w", err)
	}

	sessionID := ""
	if snapshot.ActiveSession != nil {
		sessionID = snapshot.ActiveSession.ID
		snapshot.SessionWindow = fmt.Sprintf("%s - %s",
			timeutil.FormatClock12(snapshot.ActiveSession.StartTime),
			timeutil.FormatClock12(snapshot.ActiveSession.EndTime))
	}
	winners, err := p.winners.ListActive(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active winners: %w", err)
	}
	if winners != nil {
		snapshot.ActiveWinners = winners
	}

	remaining := p.timer.Remaining()
	snapshot.Timer = TimerSnapshot{
		TimerState:   p.timer.State(),
		RemainingSec: remaining,
		Display:      timeutil.FormatSeconds(remaining),
	}
	return snapshot, nil
}
