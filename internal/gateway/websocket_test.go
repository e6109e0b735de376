package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/models"
	"github.com/munchkineatter/DDrum/internal/plans"
	"github.com/munchkineatter/DDrum/internal/timer"
	"github.com/munchkineatter/DDrum/internal/winners"
)

func TestWebSocketAttachSnapshotAndBroadcast(t *testing.T) {
	bus := events.NewMemoryBus(64)
	defer bus.Close()
	clock := clockwork.NewFakeClock()

	plansApp := plans.NewApp(plans.NewMemoryRepository(), bus, clock)
	winnersApp := winners.NewApp(winners.NewMemoryRepository(), bus, clock, plansApp)
	plansApp.SetWinnerSource(winnersApp)
	engine := timer.NewEngine(bus, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cm := NewConnectionManager(DefaultConnectionConfig())
	go cm.Start(ctx)

	snapshots := NewSnapshotProvider(plansApp, winnersApp, engine)
	handler := NewWebSocketHandler(cm, snapshots)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?view=display"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame is the attach snapshot.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var snapshot StateSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Equal(t, "state_snapshot", snapshot.Type)
	require.Nil(t, snapshot.ActivePlan)

	// Subsequent frames are broadcast events.
	event := events.New(events.EventTypeWinnerRecorded, "w1", events.WinnerRecordedPayload{
		Winner: models.Winner{ID: "w1", Name: "Pat", Status: models.WinnerStatusActive},
	})
	cm.Broadcast(event)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)

	var received events.Event
	require.NoError(t, json.Unmarshal(data, &received))
	require.Equal(t, events.EventTypeWinnerRecorded, received.Type)
	require.Equal(t, "w1", received.Key)

	var payload events.WinnerRecordedPayload
	require.NoError(t, json.Unmarshal(received.Data, &payload))
	require.Equal(t, "Pat", payload.Winner.Name)
}

func TestWebSocketStatsEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewMemoryBus(64)
	defer bus.Close()
	clock := clockwork.NewFakeClock()

	plansApp := plans.NewApp(plans.NewMemoryRepository(), bus, clock)
	winnersApp := winners.NewApp(winners.NewMemoryRepository(), bus, clock, plansApp)
	engine := timer.NewEngine(bus, clock)

	cm := NewConnectionManager(DefaultConnectionConfig())
	go cm.Start(ctx)
	handler := NewWebSocketHandler(cm, NewSnapshotProvider(plansApp, winnersApp, engine))

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?view=admin"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Drain the attach snapshot so the connection is fully registered.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, 1, stats.TotalConnections)
	require.Equal(t, 1, stats.ViewConnections["admin"])
}
