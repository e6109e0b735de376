// Package winners is the registry of recorded drawing results and their
// lifecycle status machine: Active -> Claimed | Disqualified, Claimed and
// Disqualified mutually exclusive, reset back to Active, removal terminal.
// Status transitions are total functions, never used for control flow.
package winners

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/models"
)

// ActiveSessionSource resolves the currently active session id. The plans
// App implements it; Record refuses entries for any other session.
type ActiveSessionSource interface {
	ActiveSessionID(ctx context.Context) (string, error)
}

// App handles winner registry business logic.
type App struct {
	mu     sync.Mutex
	repo   Repository
	bus    events.Bus
	clock  clockwork.Clock
	active ActiveSessionSource
}

// NewApp creates a winners App.
func NewApp(repo Repository, bus events.Bus, clock clockwork.Clock, active ActiveSessionSource) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:   repo,
		bus:    bus,
		clock:  clock,
		active: active,
	}
}

// Record creates a winner entry for the active session with status Active.
// The name must be non-empty after trimming, and the request's session (when
// given) must be the active one; otherwise the operation aborts with no
// state change.
func (a *App) Record(ctx context.Context, req RecordWinnerRequest) (*models.Winner, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.Validation("name", "winner name is required")
	}

	activeID, err := a.active.ActiveSessionID(ctx)
	if err != nil {
		return nil, err
	}
	if req.SessionID != "" && req.SessionID != activeID {
		return nil, errs.Validation("session_id", "session is not the active session")
	}

	winner := models.Winner{
		ID:        uuid.New().String(),
		Name:      name,
		PlayerID:  strings.TrimSpace(req.PlayerID),
		Prize:     req.Prize,
		SessionID: activeID,
		CreatedAt: a.clock.Now().UTC(),
		Status:    models.WinnerStatusActive,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.CreateWinner(ctx, winner); err != nil {
		return nil, fmt.Errorf("failed to record winner: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypeWinnerRecorded, winner.ID, events.WinnerRecordedPayload{Winner: winner}))
	log.Info().Str("winner", winner.ID).Str("session", winner.SessionID).Msg("winner recorded")
	return &winner, nil
}

// Claim marks the winner's prize as claimed. Claiming an already-claimed
// winner is a no-op, not an error; claiming clears a disqualification.
func (a *App) Claim(ctx context.Context, id string) (*models.Winner, error) {
	return a.transition(ctx, id, models.WinnerStatusClaimed)
}

// Disqualify marks the winner as disqualified, clearing any claim.
func (a *App) Disqualify(ctx context.Context, id string) (*models.Winner, error) {
	return a.transition(ctx, id, models.WinnerStatusDisqualified)
}

// ResetStatus returns the winner to Active.
func (a *App) ResetStatus(ctx context.Context, id string) (*models.Winner, error) {
	return a.transition(ctx, id, models.WinnerStatusActive)
}

// transition applies the status machine. Every transition between the three
// states is legal, so the only failure mode is a missing winner; repeating a
// transition is idempotent and publishes no duplicate event.
func (a *App) transition(ctx context.Context, id string, status models.WinnerStatus) (*models.Winner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, err := a.repo.GetWinner(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	winner, err := a.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update winner status: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypeWinnerStatusChanged, id, events.WinnerStatusChangedPayload{Winner: *winner}))
	log.Info().Str("winner", id).Str("status", string(status)).Msg("winner status changed")
	return winner, nil
}

// Remove deletes the winner permanently. Operator confirmation happens
// upstream.
func (a *App) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.DeleteWinner(ctx, id); err != nil {
		return err
	}

	a.bus.Publish(events.New(events.EventTypeWinnerRemoved, id, events.WinnerRemovedPayload{WinnerID: id}))
	log.Info().Str("winner", id).Msg("winner removed")
	return nil
}

// ListActive returns winners with status Active, optionally filtered to one
// session. This is the query the display view renders.
func (a *App) ListActive(ctx context.Context, sessionID string) ([]models.Winner, error) {
	all, err := a.repo.ListWinners(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Winner, 0, len(all))
	for _, winner := range all {
		if winner.Status != models.WinnerStatusActive {
			continue
		}
		if sessionID != "" && winner.SessionID != sessionID {
			continue
		}
		out = append(out, winner)
	}
	return out, nil
}

// ListBySession returns every winner recorded under the session regardless
// of status, in insertion order.
func (a *App) ListBySession(ctx context.Context, sessionID string) ([]models.Winner, error) {
	all, err := a.repo.ListWinners(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Winner, 0, len(all))
	for _, winner := range all {
		if winner.SessionID == sessionID {
			out = append(out, winner)
		}
	}
	return out, nil
}

// ExportAll returns every winner regardless of status in insertion order,
// for CSV export and audit.
func (a *App) ExportAll(ctx context.Context) ([]models.Winner, error) {
	return a.repo.ListWinners(ctx)
}

// AppendBatch appends externally supplied winner records, backing the REST
// append endpoint. Missing ids, timestamps and statuses are filled in. The
// whole batch is validated before anything is written: a rejected batch
// leaves no stored records and publishes no events.
func (a *App) AppendBatch(ctx context.Context, batch []models.Winner) ([]models.Winner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]models.Winner, 0, len(batch))
	for _, winner := range batch {
		if strings.TrimSpace(winner.Name) == "" {
			return nil, errs.Validation("name", "winner name is required")
		}
		if winner.ID == "" {
			winner.ID = uuid.New().String()
		}
		if winner.CreatedAt.IsZero() {
			winner.CreatedAt = a.clock.Now().UTC()
		}
		if winner.Status == "" {
			winner.Status = models.WinnerStatusActive
		}
		out = append(out, winner)
	}

	for _, winner := range out {
		if err := a.repo.CreateWinner(ctx, winner); err != nil {
			return nil, fmt.Errorf("failed to append winner: %w", err)
		}
	}
	for _, winner := range out {
		a.bus.Publish(events.New(events.EventTypeWinnerRecorded, winner.ID, events.WinnerRecordedPayload{Winner: winner}))
	}
	return out, nil
}

// Clear wipes the registry. Operator confirmation happens upstream.
func (a *App) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.Clear(ctx); err != nil {
		return err
	}

	a.bus.Publish(events.New(events.EventTypeWinnersCleared, "winners", events.WinnersClearedPayload{
		ClearedAt: a.clock.Now().UTC(),
	}))
	log.Info().Msg("all winners cleared")
	return nil
}
