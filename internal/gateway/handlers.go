package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/models"
	"github.com/munchkineatter/DDrum/internal/plans"
	"github.com/munchkineatter/DDrum/internal/timer"
	"github.com/munchkineatter/DDrum/internal/timeutil"
	"github.com/munchkineatter/DDrum/internal/winners"
)

// API serves the REST surface used by the admin and input views. All
// mutations go through the plan, winner and timer components so every
// change lands on the event bus.
type API struct {
	plans     *plans.App
	winners   *winners.App
	timer     *timer.Engine
	snapshots *SnapshotProvider
}

// NewAPI creates the REST handler set.
func NewAPI(plansApp *plans.App, winnersApp *winners.App, engine *timer.Engine, snapshots *SnapshotProvider) *API {
	return &API{
		plans:     plansApp,
		winners:   winnersApp,
		timer:     engine,
		snapshots: snapshots,
	}
}

// RegisterRoutes registers the REST routes with an HTTP mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", a.handleGetState)

	mux.HandleFunc("GET /api/winners", a.handleListWinners)
	mux.HandleFunc("POST /api/winners", a.handleAppendWinners)
	mux.HandleFunc("DELETE /api/winners", a.handleClearWinners)
	mux.HandleFunc("GET /api/winners/export", a.handleExportWinners)
	mux.HandleFunc("POST /api/winners/record", a.handleRecordWinner)
	mux.HandleFunc("POST /api/winners/{id}/claim", a.handleWinnerStatus(models.WinnerStatusClaimed))
	mux.HandleFunc("POST /api/winners/{id}/disqualify", a.handleWinnerStatus(models.WinnerStatusDisqualified))
	mux.HandleFunc("POST /api/winners/{id}/reset", a.handleWinnerStatus(models.WinnerStatusActive))
	mux.HandleFunc("DELETE /api/winners/{id}", a.handleRemoveWinner)

	mux.HandleFunc("GET /api/plans", a.handleListPlans)
	mux.HandleFunc("POST /api/plans", a.handleSavePlan)
	mux.HandleFunc("GET /api/plans/{name}", a.handleGetPlan)
	mux.HandleFunc("DELETE /api/plans/{name}", a.handleDeletePlan)
	mux.HandleFunc("POST /api/plans/{name}/activate", a.handleActivatePlan)
	mux.HandleFunc("POST /api/plans/{name}/sessions", a.handleCreateSession)
	mux.HandleFunc("POST /api/plans/{name}/sessions/bulk", a.handleBulkCreateSessions)
	mux.HandleFunc("DELETE /api/plans/{name}/sessions/{id}", a.handleRemoveSession)
	mux.HandleFunc("POST /api/plans/{name}/sessions/{id}/activate", a.handleActivateSession)
	mux.HandleFunc("POST /api/plans/{name}/sessions/{id}/prizes", a.handleAssignSessionPrize)
	mux.HandleFunc("POST /api/plans/{name}/end-session", a.handleEndSession)
	mux.HandleFunc("POST /api/plans/{name}/prizes/allocate", a.handleAllocatePrize)
	mux.HandleFunc("POST /api/plans/{name}/prizes/reset", a.handleResetPrizes)

	mux.HandleFunc("POST /api/timer/start", a.handleTimerStart)
	mux.HandleFunc("POST /api/timer/pause", a.handleTimerPause)
	mux.HandleFunc("POST /api/timer/reset", a.handleTimerReset)
}

func (a *API) handleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := a.snapshots.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *API) handleListWinners(w http.ResponseWriter, r *http.Request) {
	list, err := a.winners.ExportAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Winner{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleAppendWinners(w http.ResponseWriter, r *http.Request) {
	var batch []models.Winner
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil || batch == nil {
		// A JSON null decodes into a nil slice without error; it is not an
		// array either.
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "winners must be an array"})
		return
	}
	stored, err := a.winners.AppendBatch(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (a *API) handleClearWinners(w http.ResponseWriter, r *http.Request) {
	if err := a.winners.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (a *API) handleExportWinners(w http.ResponseWriter, r *http.Request) {
	list, err := a.winners.ExportAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="winners.csv"`)
	if err := winners.WriteCSV(w, list); err != nil {
		log.Error().Err(err).Msg("failed to stream winners csv")
	}
}

func (a *API) handleRecordWinner(w http.ResponseWriter, r *http.Request) {
	var req winners.RecordWinnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	winner, err := a.winners.Record(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, winner)
}

func (a *API) handleWinnerStatus(status models.WinnerStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var (
			winner *models.Winner
			err    error
		)
		switch status {
		case models.WinnerStatusClaimed:
			winner, err = a.winners.Claim(r.Context(), id)
		case models.WinnerStatusDisqualified:
			winner, err = a.winners.Disqualify(r.Context(), id)
		default:
			winner, err = a.winners.ResetStatus(r.Context(), id)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, winner)
	}
}

func (a *API) handleRemoveWinner(w http.ResponseWriter, r *http.Request) {
	if err := a.winners.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (a *API) handleListPlans(w http.ResponseWriter, r *http.Request) {
	list, err := a.plans.ListPlans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Plan{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	force := r.URL.Query().Get("force") == "true"
	saved, err := a.plans.SavePlan(r.Context(), plan, force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (a *API) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := a.plans.GetPlan(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (a *API) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := a.plans.DeletePlan(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleActivatePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := a.plans.SetActivePlan(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req plans.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	session, err := a.plans.CreateSession(r.Context(), r.PathValue("name"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) handleBulkCreateSessions(w http.ResponseWriter, r *http.Request) {
	var req plans.BulkCreateSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	sessions, err := a.plans.BulkCreateSessions(r.Context(), r.PathValue("name"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessions)
}

func (a *API) handleRemoveSession(w http.ResponseWriter, r *http.Request) {
	if err := a.plans.RemoveSession(r.Context(), r.PathValue("name"), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (a *API) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.plans.ActivateSession(r.Context(), r.PathValue("name"), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleAssignSessionPrize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PrizeName string `json:"prize_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := a.plans.AssignPrizeToSession(r.Context(), r.PathValue("name"), r.PathValue("id"), req.PrizeName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (a *API) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfirmEmpty bool `json:"confirm_empty"`
	}
	if r.Body != nil {
		// An empty body means no confirmation.
		json.NewDecoder(r.Body).Decode(&req)
	}
	if err := a.plans.EndSession(r.Context(), r.PathValue("name"), req.ConfirmEmpty); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (a *API) handleAllocatePrize(w http.ResponseWriter, r *http.Request) {
	prize, err := a.plans.AllocatePrize(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prize)
}

func (a *API) handleResetPrizes(w http.ResponseWriter, r *http.Request) {
	if err := a.plans.ResetPrizes(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

type timerRequest struct {
	Seconds int `json:"seconds"`
	Minutes int `json:"minutes"`
}

// resolveSeconds turns a timer request into a duration, falling back to the
// active plan's master timer when the request names none.
func (a *API) resolveSeconds(r *http.Request, req timerRequest) (int, error) {
	if req.Seconds > 0 {
		return req.Seconds, nil
	}
	if req.Minutes > 0 {
		return req.Minutes * 60, nil
	}
	plan, err := a.plans.ActivePlan(r.Context())
	if err != nil {
		if errs.IsNotFound(err) {
			return 0, errs.Validation("seconds", "timer duration is required when no plan is active")
		}
		return 0, err
	}
	return plan.MasterTimerMinutes * 60, nil
}

func (a *API) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	seconds, err := a.resolveSeconds(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.timer.Start(seconds); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.timerSnapshot())
}

func (a *API) handleTimerPause(w http.ResponseWriter, r *http.Request) {
	a.timer.Pause()
	writeJSON(w, http.StatusOK, a.timerSnapshot())
}

func (a *API) handleTimerReset(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	seconds, err := a.resolveSeconds(r, req)
	if err != nil {
		writeError(w, err)
		return
	}
	a.timer.Reset(seconds)
	writeJSON(w, http.StatusOK, a.timerSnapshot())
}

func (a *API) timerSnapshot() TimerSnapshot {
	remaining := a.timer.Remaining()
	return TimerSnapshot{
		TimerState:   a.timer.State(),
		RemainingSec: remaining,
		Display:      timeutil.FormatSeconds(remaining),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps component errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err), errors.Is(err, errs.ErrInvalidRange):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrPlanExists),
		errors.Is(err, errs.ErrSessionsExist),
		errors.Is(err, errs.ErrEmptySession),
		errors.Is(err, errs.ErrPrizeUnavailable),
		errors.Is(err, errs.ErrNoActiveSession):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
