package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/plans"
	"github.com/munchkineatter/DDrum/internal/timer"
	"github.com/munchkineatter/DDrum/internal/winners"
)

// Service bundles the WebSocket fan-out and the REST surface.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	bridge            *EventBridge
	api               *API
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the gateway.
func DefaultConfig() Config {
	return Config{ConnectionConfig: DefaultConnectionConfig()}
}

// NewService creates the gateway service.
func NewService(config Config, bus events.Bus, plansApp *plans.App, winnersApp *winners.App, engine *timer.Engine) *Service {
	cm := NewConnectionManager(config.ConnectionConfig)
	snapshots := NewSnapshotProvider(plansApp, winnersApp, engine)

	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, snapshots),
		bridge:            NewEventBridge(bus, cm),
		api:               NewAPI(plansApp, winnersApp, engine, snapshots),
	}
}

// Start runs the broadcast loop and the bus bridge until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting gateway service")
	go s.connectionManager.Start(ctx)
	go s.bridge.Run(ctx)
}

// RegisterRoutes registers the REST and WebSocket routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.api.RegisterRoutes(mux)
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}
