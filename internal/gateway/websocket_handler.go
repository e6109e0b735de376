package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for drawing views.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	snapshots         *SnapshotProvider
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, snapshots *SnapshotProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		snapshots:         snapshots,
	}
}

// HandleConnection upgrades /ws requests. The view query parameter labels
// the client (display, input, admin); an unlabeled client is treated as a
// display.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if view == "" {
		view = "display"
	}

	var snapshotData []byte
	snapshot, err := h.snapshots.Snapshot(r.Context())
	if err != nil {
		// The client still gets the live stream; it can pull /api/state later.
		log.Error().Err(err).Msg("failed to build attach snapshot")
	} else if data, err := json.Marshal(snapshot); err == nil {
		snapshotData = data
	}

	if err := h.connectionManager.UpgradeConnection(w, r, view, snapshotData); err != nil {
		log.Error().Err(err).Str("view", view).Msg("failed to upgrade websocket connection")
		return
	}
}

// HandleConnectionStats serves /ws/stats.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.HandleConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
