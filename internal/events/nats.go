package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const subjectPrefix = "drawing.events"

// NATSConfig holds connection settings for the NATS-backed bus.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns connection defaults: reconnect forever, two
// seconds between attempts.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSBus is the cross-process Bus. Mutations publish to
// "drawing.events.<type>"; subscribers receive everything under
// "drawing.events.>". Core NATS is deliberate: late-joining views reconcile
// by pulling full state, so durable replay is not needed.
type NATSBus struct {
	nc    *nats.Conn
	local *MemoryBus
	sub   *nats.Subscription
}

// NewNATSBus connects to NATS and bridges incoming events into an in-process
// fan-out so gateway subscribers share one NATS subscription.
func NewNATSBus(config NATSConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	b := &NATSBus{
		nc:    nc,
		local: NewMemoryBus(0),
	}

	sub, err := nc.Subscribe(subjectPrefix+".>", func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal bus event")
			return
		}
		b.local.Publish(event)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s.>: %w", subjectPrefix, err)
	}
	b.sub = sub

	log.Info().Str("url", config.URL).Msg("connected to NATS event bus")
	return b, nil
}

// Publish sends the event to NATS. Local subscribers receive it through the
// subscription loop, same as remote processes.
func (b *NATSBus) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to marshal bus event")
		return
	}
	subject := fmt.Sprintf("%s.%s", subjectPrefix, event.Type)
	if err := b.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish bus event")
	}
}

// Subscribe registers a local subscriber fed from the NATS subscription.
func (b *NATSBus) Subscribe() *Subscription {
	return b.local.Subscribe()
}

// Close drains the NATS connection and closes local subscribers.
func (b *NATSBus) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if err := b.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
	b.local.Close()
}
