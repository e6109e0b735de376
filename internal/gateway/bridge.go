package gateway

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/events"
)

// EventBridge forwards bus events to the WebSocket connection manager. It
// is the only consumer that fans events out to browsers; everything else
// subscribes to the bus directly.
type EventBridge struct {
	bus events.Bus
	cm  *ConnectionManager
}

// NewEventBridge creates a bridge from the event bus to WebSocket clients.
func NewEventBridge(bus events.Bus, cm *ConnectionManager) *EventBridge {
	return &EventBridge{bus: bus, cm: cm}
}

// Run pumps events until the context is cancelled or the bus closes.
func (b *EventBridge) Run(ctx context.Context) {
	sub := b.bus.Subscribe()
	defer sub.Close()

	log.Info().Msg("event bridge started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event bridge shutting down")
			return
		case event, ok := <-sub.C():
			if !ok {
				log.Info().Msg("event bus closed, stopping bridge")
				return
			}
			b.cm.Broadcast(event)
		}
	}
}
