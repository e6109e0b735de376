package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/models"
	"github.com/munchkineatter/DDrum/internal/plans"
	"github.com/munchkineatter/DDrum/internal/timer"
	"github.com/munchkineatter/DDrum/internal/winners"
)

type apiFixture struct {
	mux     *http.ServeMux
	plans   *plans.App
	winners *winners.App
	timer   *timer.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	bus := events.NewMemoryBus(256)
	t.Cleanup(bus.Close)
	clock := clockwork.NewFakeClock()

	plansApp := plans.NewApp(plans.NewMemoryRepository(), bus, clock)
	winnersApp := winners.NewApp(winners.NewMemoryRepository(), bus, clock, plansApp)
	plansApp.SetWinnerSource(winnersApp)
	engine := timer.NewEngine(bus, clock)

	snapshots := NewSnapshotProvider(plansApp, winnersApp, engine)
	api := NewAPI(plansApp, winnersApp, engine, snapshots)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	return &apiFixture{mux: mux, plans: plansApp, winners: winnersApp, timer: engine}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) activateSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	_, err := f.plans.SavePlan(ctx, models.Plan{
		Name:               "friday-night",
		MasterTimerMinutes: 5,
		Prizes:             []models.Prize{{Name: "Free Play $100"}},
	}, false)
	require.NoError(t, err)
	_, err = f.plans.SetActivePlan(ctx, "friday-night")
	require.NoError(t, err)
	session, err := f.plans.CreateSession(ctx, "friday-night", plans.CreateSessionRequest{
		StartTime: "18:00",
		EndTime:   "19:00",
	})
	require.NoError(t, err)
	_, err = f.plans.ActivateSession(ctx, "friday-night", session.ID)
	require.NoError(t, err)
	return session.ID
}

func TestGetWinnersReturnsArray(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/winners", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestPostWinnersAppendsArray(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/winners", []map[string]string{
		{"name": "Pat", "session_id": "session-1"},
		{"name": "Sam", "session_id": "session-1"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var stored []models.Winner
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.Len(t, stored, 2)
	require.NotEmpty(t, stored[0].ID)

	rec = f.do(t, http.MethodGet, "/api/winners", nil)
	var listed []models.Winner
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
}

func TestPostWinnersRejectsNonArray(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/winners", map[string]string{"name": "Pat"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "array")
}

func TestPostWinnersRejectsNullBody(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/winners", strings.NewReader("null"))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "array")

	rec = f.do(t, http.MethodGet, "/api/winners", nil)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestPostWinnersPersistsNothingOnMixedBatch(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/winners", []map[string]string{
		{"name": "Pat"},
		{"name": "   "},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/winners", nil)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestDeleteWinnersClears(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/winners", []map[string]string{{"name": "Pat"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/winners", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/winners", nil)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRecordAndClaimWinner(t *testing.T) {
	f := newAPIFixture(t)
	sessionID := f.activateSession(t)

	rec := f.do(t, http.MethodPost, "/api/winners/record", map[string]string{"name": "Pat"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var winner models.Winner
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &winner))
	require.Equal(t, sessionID, winner.SessionID)

	rec = f.do(t, http.MethodPost, "/api/winners/"+winner.ID+"/claim", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &winner))
	require.Equal(t, models.WinnerStatusClaimed, winner.Status)

	rec = f.do(t, http.MethodPost, "/api/winners/"+winner.ID+"/disqualify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &winner))
	require.Equal(t, models.WinnerStatusDisqualified, winner.Status)

	rec = f.do(t, http.MethodDelete, "/api/winners/"+winner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/winners/"+winner.ID+"/claim", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordWithoutActiveSessionConflicts(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/winners/record", map[string]string{"name": "Pat"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportWinnersServesCSV(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/winners", []map[string]string{{"name": "Pat"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/winners/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "Name,ID,Time,Session,Prize,Status"))
}

func TestSavePlanConflictAndForce(t *testing.T) {
	f := newAPIFixture(t)
	plan := map[string]any{"name": "friday-night", "master_timer_minutes": 5}

	rec := f.do(t, http.MethodPost, "/api/plans", plan)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/plans", plan)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/plans?force=true", plan)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestBulkSessionsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/plans", map[string]any{"name": "friday-night"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/plans/friday-night/sessions/bulk", map[string]any{
		"start_time":       "09:00",
		"end_time":         "10:00",
		"interval_minutes": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var sessions []models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)

	rec = f.do(t, http.MethodPost, "/api/plans/friday-night/sessions/bulk", map[string]any{
		"start_time":       "10:00",
		"end_time":         "09:00",
		"interval_minutes": 30,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndSessionEmptyConflict(t *testing.T) {
	f := newAPIFixture(t)
	f.activateSession(t)

	rec := f.do(t, http.MethodPost, "/api/plans/friday-night/end-session", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/plans/friday-night/end-session", map[string]any{"confirm_empty": true})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAllocatePrizeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.activateSession(t)

	rec := f.do(t, http.MethodPost, "/api/plans/friday-night/prizes/allocate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var prize models.Prize
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prize))
	require.Equal(t, "Free Play $100", prize.Name)

	rec = f.do(t, http.MethodPost, "/api/plans/friday-night/prizes/allocate", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/plans/friday-night/prizes/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTimerEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	// No duration and no active plan.
	rec := f.do(t, http.MethodPost, "/api/timer/start", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/timer/start", map[string]int{"seconds": 120})
	require.Equal(t, http.StatusOK, rec.Code)

	var snap TimerSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.True(t, snap.Running)
	require.Equal(t, 120, snap.RemainingSec)
	require.Equal(t, "02:00", snap.Display)

	rec = f.do(t, http.MethodPost, "/api/timer/pause", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.False(t, snap.Running)

	rec = f.do(t, http.MethodPost, "/api/timer/reset", map[string]int{"minutes": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, 180, snap.RemainingSec)
}

func TestTimerStartFallsBackToPlanMasterTimer(t *testing.T) {
	f := newAPIFixture(t)
	f.activateSession(t)

	rec := f.do(t, http.MethodPost, "/api/timer/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap TimerSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, 300, snap.RemainingSec)
}

func TestGetStateSnapshot(t *testing.T) {
	f := newAPIFixture(t)
	sessionID := f.activateSession(t)

	rec := f.do(t, http.MethodPost, "/api/winners/record", map[string]string{"name": "Pat"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot StateSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Equal(t, "state_snapshot", snapshot.Type)
	require.NotNil(t, snapshot.ActivePlan)
	require.Equal(t, "friday-night", snapshot.ActivePlan.Name)
	require.NotNil(t, snapshot.ActiveSession)
	require.Equal(t, sessionID, snapshot.ActiveSession.ID)
	require.Equal(t, "6:00 PM - 7:00 PM", snapshot.SessionWindow)
	require.Len(t, snapshot.ActiveWinners, 1)
	require.Equal(t, "Pat", snapshot.ActiveWinners[0].Name)
}

func TestGetStateWithoutActivePlan(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot StateSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Nil(t, snapshot.ActivePlan)
	require.Nil(t, snapshot.ActiveSession)
	require.Empty(t, snapshot.ActiveWinners)
}
