// Package events defines the cross-view synchronization contract: every
// state mutation visible to other views is published as a typed event, and
// subscribers re-render by replacing their local copy of the affected entity.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of state mutation an event carries.
type EventType string

const (
	EventTypePlanSaved           EventType = "PlanSaved"
	EventTypePlanDeleted         EventType = "PlanDeleted"
	EventTypePlanActivated       EventType = "PlanActivated"
	EventTypeSessionCreated      EventType = "SessionCreated"
	EventTypeSessionRemoved      EventType = "SessionRemoved"
	EventTypeSessionActivated    EventType = "SessionActivated"
	EventTypeSessionEnded        EventType = "SessionEnded"
	EventTypeWinnerRecorded      EventType = "WinnerRecorded"
	EventTypeWinnerStatusChanged EventType = "WinnerStatusChanged"
	EventTypeWinnerRemoved       EventType = "WinnerRemoved"
	EventTypeWinnersCleared      EventType = "WinnersCleared"
	EventTypePrizeAllocated      EventType = "PrizeAllocated"
	EventTypePrizesReset         EventType = "PrizesReset"
	EventTypeTimerStarted        EventType = "TimerStarted"
	EventTypeTimerPaused         EventType = "TimerPaused"
	EventTypeTimerReset          EventType = "TimerReset"
	EventTypeTimerTick           EventType = "TimerTick"
	EventTypeTimerFinished       EventType = "TimerFinished"
)

// Event is the envelope published for every mutation. Key is the mutated
// entity's key (plan name, winner id, or "timer"); events for the same key
// are delivered to each subscriber in publish order.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Key       string          `json:"key"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New builds an event envelope with the payload marshaled to JSON. Payloads
// are plain structs from this package; a marshal failure is a programming
// error and yields an envelope with null data.
func New(eventType EventType, key string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Key:       key,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
