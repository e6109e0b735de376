// Package plans owns the promotion plan aggregate: the named plan store with
// its single active-plan pointer, session scheduling within a plan, and the
// prize pool wiring. All mutations go through App and are published on the
// synchronization bus.
package plans

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
	"github.com/munchkineatter/DDrum/internal/prizes"
	"github.com/munchkineatter/DDrum/internal/timeutil"
)

const defaultMasterTimerMinutes = 5

// WinnerSource is what ending a session needs from the winner registry.
type WinnerSource interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Winner, error)
}

// SessionExporter snapshots a session's winners when the session ends. CSV
// formatting and delivery are the collaborator's concern.
type SessionExporter interface {
	ExportSession(ctx context.Context, session models.Session, winners []models.Winner) error
}

// App handles plan, session and prize-pool business logic. A single mutex
// serializes mutations: the operator model is one logical writer, the mutex
// makes that safe under a concurrent HTTP server.
type App struct {
	mu       sync.Mutex
	repo     Repository
	bus      events.Bus
	clock    clockwork.Clock
	winners  WinnerSource
	exporter SessionExporter
}

// NewApp creates a plans App.
func NewApp(repo Repository, bus events.Bus, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:  repo,
		bus:   bus,
		clock: clock,
	}
}

// SetWinnerSource wires the winner registry in after construction; the
// registry also depends on this App for active-session validation.
func (a *App) SetWinnerSource(src WinnerSource) {
	a.winners = src
}

// SetExporter wires the session export collaborator.
func (a *App) SetExporter(exporter SessionExporter) {
	a.exporter = exporter
}

// SavePlan upserts a plan by name. Overwriting an existing plan is refused
// with errs.ErrPlanExists unless force is set; the confirmation prompt
// itself is the caller's concern. Sessions without ids get one here.
func (a *App) SavePlan(ctx context.Context, plan models.Plan, force bool) (*models.Plan, error) {
	plan.Name = strings.TrimSpace(plan.Name)
	if plan.Name == "" {
		return nil, errs.Validation("name", "plan name is required")
	}
	if plan.MasterTimerMinutes <= 0 {
		plan.MasterTimerMinutes = defaultMasterTimerMinutes
	}
	for i := range plan.Sessions {
		if plan.Sessions[i].ID == "" {
			plan.Sessions[i].ID = uuid.New().String()
		}
		if plan.Sessions[i].Number == 0 {
			plan.Sessions[i].Number = i + 1
		}
		if plan.Sessions[i].WinnerQuota <= 0 {
			plan.Sessions[i].WinnerQuota = 1
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.repo.GetPlan(ctx, plan.Name)
	if err != nil && !errs.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check existing plan: %w", err)
	}
	if existing != nil && !force {
		return nil, errs.ErrPlanExists
	}

	if err := a.repo.SavePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypePlanSaved, plan.Name, events.PlanSavedPayload{Plan: plan}))
	log.Info().Str("plan", plan.Name).Int("sessions", len(plan.Sessions)).Msg("plan saved")
	return &plan, nil
}

// GetPlan retrieves a plan by name.
func (a *App) GetPlan(ctx context.Context, name string) (*models.Plan, error) {
	return a.repo.GetPlan(ctx, name)
}

// ListPlans returns all saved plans, order not guaranteed.
func (a *App) ListPlans(ctx context.Context) ([]models.Plan, error) {
	return a.repo.ListPlans(ctx)
}

// DeletePlan removes a plan. Deleting the active plan clears the
// active-plan pointer so ActivePlan never returns a stale reference.
func (a *App) DeletePlan(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	active, err := a.repo.GetActivePlanName(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active plan pointer: %w", err)
	}
	wasActive := active == name

	if err := a.repo.DeletePlan(ctx, name); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if wasActive {
		if err := a.repo.SetActivePlan(ctx, ""); err != nil {
			return fmt.Errorf("failed to clear active plan pointer: %w", err)
		}
	}

	a.bus.Publish(events.New(events.EventTypePlanDeleted, name, events.PlanDeletedPayload{
		PlanName:  name,
		WasActive: wasActive,
	}))
	log.Info().Str("plan", name).Bool("was_active", wasActive).Msg("plan deleted")
	return nil
}

// SetActivePlan points the process-wide active-plan pointer at an existing
// plan.
func (a *App) SetActivePlan(ctx context.Context, name string) (*models.Plan, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := a.repo.SetActivePlan(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to set active plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypePlanActivated, name, events.PlanActivatedPayload{Plan: *plan}))
	log.Info().Str("plan", name).Msg("plan activated")
	return plan, nil
}

// ActivePlan dereferences the active-plan pointer. It fails soft with a
// not-found error when no plan is active or the pointed-to plan was deleted.
func (a *App) ActivePlan(ctx context.Context) (*models.Plan, error) {
	name, err := a.repo.GetActivePlanName(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read active plan pointer: %w", err)
	}
	if name == "" {
		return nil, errs.NotFound("active plan", "")
	}
	return a.repo.GetPlan(ctx, name)
}

// ActiveSessionID returns the id of the currently active session of the
// active plan, or errs.ErrNoActiveSession. The winner registry validates
// recordings against this.
func (a *App) ActiveSessionID(ctx context.Context) (string, error) {
	plan, err := a.ActivePlan(ctx)
	if err != nil {
		if errs.IsNotFound(err) {
			return "", errs.ErrNoActiveSession
		}
		return "", err
	}
	if plan.ActiveSessionID == "" {
		return "", errs.ErrNoActiveSession
	}
	return plan.ActiveSessionID, nil
}

// CreateSession appends one session to a plan. Overlap with other sessions
// is deliberately not validated.
func (a *App) CreateSession(ctx context.Context, planName string, req CreateSessionRequest) (*models.Session, error) {
	if err := validateSessionTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if req.WinnerQuota <= 0 {
		req.WinnerQuota = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		ID:          uuid.New().String(),
		Number:      len(plan.Sessions) + 1,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		WinnerQuota: req.WinnerQuota,
		Prizes:      req.Prizes,
	}
	plan.Sessions = append(plan.Sessions, session)

	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypeSessionCreated, planName, events.SessionCreatedPayload{
		PlanName: planName,
		Session:  session,
	}))
	return &session, nil
}

// BulkCreateSessions partitions [StartTime, EndTime) into consecutive,
// non-overlapping sessions of IntervalMinutes each, the last clipped to
// EndTime. It fails with errs.ErrInvalidRange when the range is empty and
// with errs.ErrSessionsExist when the plan already has sessions and Replace
// was not set.
func (a *App) BulkCreateSessions(ctx context.Context, planName string, req BulkCreateSessionsRequest) ([]models.Session, error) {
	startMinutes, err := timeutil.TimeToMinutes(req.StartTime)
	if err != nil {
		return nil, errs.Validation("start_time", err.Error())
	}
	endMinutes, err := timeutil.TimeToMinutes(req.EndTime)
	if err != nil {
		return nil, errs.Validation("end_time", err.Error())
	}
	if startMinutes >= endMinutes {
		return nil, errs.ErrInvalidRange
	}
	if req.IntervalMinutes <= 0 {
		return nil, errs.Validation("interval_minutes", "interval must be positive")
	}
	quota := req.WinnerQuota
	if quota <= 0 {
		quota = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return nil, err
	}
	if len(plan.Sessions) > 0 && !req.Replace {
		return nil, errs.ErrSessionsExist
	}

	var created []models.Session
	number := 1
	for current := startMinutes; current < endMinutes; current += req.IntervalMinutes {
		sessionEnd := current + req.IntervalMinutes
		if sessionEnd > endMinutes {
			sessionEnd = endMinutes
		}
		created = append(created, models.Session{
			ID:          uuid.New().String(),
			Number:      number,
			StartTime:   timeutil.MinutesToTime(current),
			EndTime:     timeutil.MinutesToTime(sessionEnd),
			WinnerQuota: quota,
		})
		number++
	}

	plan.Sessions = created
	plan.ActiveSessionID = ""
	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	for _, session := range created {
		a.bus.Publish(events.New(events.EventTypeSessionCreated, planName, events.SessionCreatedPayload{
			PlanName: planName,
			Session:  session,
		}))
	}
	log.Info().Str("plan", planName).Int("sessions", len(created)).Msg("bulk sessions created")
	return created, nil
}

// RemoveSession deletes one session from a plan. Recorded winners keep their
// sessionId; the session record is simply gone from planning.
func (a *App) RemoveSession(ctx context.Context, planName, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return err
	}

	idx := -1
	for i := range plan.Sessions {
		if plan.Sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errs.NotFound("session", sessionID)
	}

	plan.Sessions = append(plan.Sessions[:idx], plan.Sessions[idx+1:]...)
	if plan.ActiveSessionID == sessionID {
		plan.ActiveSessionID = ""
	}
	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypeSessionRemoved, planName, events.SessionRemovedPayload{
		PlanName:  planName,
		SessionID: sessionID,
	}))
	return nil
}

// ActivateSession marks one of the plan's sessions as the live one. At most
// one session is active within a plan at a time.
func (a *App) ActivateSession(ctx context.Context, planName, sessionID string) (*models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return nil, err
	}
	session := plan.SessionByID(sessionID)
	if session == nil {
		return nil, errs.NotFound("session", sessionID)
	}

	plan.ActiveSessionID = sessionID
	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypeSessionActivated, planName, events.SessionActivatedPayload{
		PlanName: planName,
		Session:  *session,
	}))
	log.Info().Str("plan", planName).Str("session", sessionID).Msg("session activated")
	return session, nil
}

// EndSession exports the active session's winners and clears the
// active-session pointer. The session record survives. A session with zero
// winners requires confirmEmpty; declining leaves the pointer unchanged.
func (a *App) EndSession(ctx context.Context, planName string, confirmEmpty bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return err
	}
	session := plan.ActiveSession()
	if session == nil {
		return errs.ErrNoActiveSession
	}

	var sessionWinners []models.Winner
	if a.winners != nil {
		sessionWinners, err = a.winners.ListBySession(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to list session winners: %w", err)
		}
	}
	if len(sessionWinners) == 0 && !confirmEmpty {
		return errs.ErrEmptySession
	}

	if a.exporter != nil && len(sessionWinners) > 0 {
		if err := a.exporter.ExportSession(ctx, *session, sessionWinners); err != nil {
			// Export failure must not keep the live event stuck in an
			// unfinishable session.
			log.Error().Err(err).Str("session", session.ID).Msg("session export failed")
		}
	}

	endedID := session.ID
	plan.ActiveSessionID = ""
	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypeSessionEnded, planName, events.SessionEndedPayload{
		PlanName:    planName,
		SessionID:   endedID,
		WinnerCount: len(sessionWinners),
		EndedAt:     a.clock.Now().UTC(),
	}))
	log.Info().Str("plan", planName).Str("session", endedID).Int("winners", len(sessionWinners)).Msg("session ended")
	return nil
}

// AssignPrizeToSession references one of the plan's pool prizes from a
// session's subset.
func (a *App) AssignPrizeToSession(ctx context.Context, planName, sessionID, prizeName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return err
	}
	session := plan.SessionByID(sessionID)
	if session == nil {
		return errs.NotFound("session", sessionID)
	}

	inPool := false
	for _, prize := range plan.Prizes {
		if prize.Name == prizeName {
			inPool = true
			break
		}
	}
	if !inPool {
		return errs.NotFound("prize", prizeName)
	}

	session.Prizes = append(session.Prizes, prizeName)
	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypePlanSaved, planName, events.PlanSavedPayload{Plan: *plan}))
	return nil
}

// AllocatePrize hands out the next unassigned prize for the plan. When the
// plan's active session references a prize subset, allocation is restricted
// to it. The assigned flag is persisted with the plan so the prize is never
// offered again before a reset.
func (a *App) AllocatePrize(ctx context.Context, planName string) (*models.Prize, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return nil, err
	}

	var allowed []string
	if session := plan.ActiveSession(); session != nil {
		allowed = session.Prizes
	}

	prize, err := prizes.AllocateNamed(plan.Prizes, allowed)
	if err != nil {
		return nil, err
	}

	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypePrizeAllocated, planName, events.PrizeAllocatedPayload{
		PlanName: planName,
		Prize:    *prize,
	}))
	return prize, nil
}

// ResetPrizes clears every assigned flag in the plan's pool, used when
// re-running a session.
func (a *App) ResetPrizes(ctx context.Context, planName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	plan, err := a.repo.GetPlan(ctx, planName)
	if err != nil {
		return err
	}

	prizes.Reset(plan.Prizes)
	if err := a.repo.SavePlan(ctx, *plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	a.bus.Publish(events.New(events.EventTypePrizesReset, planName, events.PrizesResetPayload{PlanName: planName}))
	return nil
}

func validateSessionTimes(start, end string) error {
	startMinutes, err := timeutil.TimeToMinutes(start)
	if err != nil {
		return errs.Validation("start_time", err.Error())
	}
	endMinutes, err := timeutil.TimeToMinutes(end)
	if err != nil {
		return errs.Validation("end_time", err.Error())
	}
	if endMinutes <= startMinutes {
		return errs.Validation("end_time", "end time must be after start time")
	}
	return nil
}
