// Package timer is the resumable, drift-corrected countdown engine. There
// is one countdown process-wide; starting a new one implicitly replaces any
// running countdown. Remaining time is always derived from the wall clock
// against the recorded start instant, never by decrementing a counter, so a
// view that attaches mid-countdown or was suspended still shows the correct
// time.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/events"
	"github.com/munchkineatter/DDrum/internal/models"
	"github.com/munchkineatter/DDrum/internal/timeutil"
)

// timerKey is the bus entity key for all timer events.
const timerKey = "timer"

// Engine owns the process-wide TimerState.
type Engine struct {
	mu       sync.Mutex
	state    models.TimerState
	finished bool
	clock    clockwork.Clock
	bus      events.Bus
}

// NewEngine creates a timer engine with the given clock; a nil clock selects
// the real one.
func NewEngine(bus events.Bus, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		clock: clock,
		bus:   bus,
	}
}

// Start begins a countdown of totalSeconds, stopping any running one.
func (e *Engine) Start(totalSeconds int) error {
	if totalSeconds <= 0 {
		return errs.Validation("total_seconds", "countdown must be positive")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.state = models.TimerState{
		TotalSeconds: totalSeconds,
		StartedAt:    now,
		Running:      true,
	}
	e.finished = false

	e.bus.Publish(events.New(events.EventTypeTimerStarted, timerKey, events.TimerStartedPayload{
		TotalSeconds: totalSeconds,
		StartedAt:    now.UTC(),
	}))
	log.Info().Int("total_seconds", totalSeconds).Msg("timer started")
	return nil
}

// Pause freezes the countdown by persisting the remaining seconds at the
// instant of the pause. Pausing a stopped timer is a no-op.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Running {
		return
	}
	remaining := e.state.Remaining(e.clock.Now())
	e.state.TotalSeconds = remaining
	e.state.Running = false

	e.bus.Publish(events.New(events.EventTypeTimerPaused, timerKey, events.TimerPausedPayload{
		RemainingSeconds: remaining,
	}))
	log.Info().Int("remaining", remaining).Msg("timer paused")
}

// Reset stops the countdown and loads totalSeconds without starting it.
func (e *Engine) Reset(totalSeconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = models.TimerState{TotalSeconds: totalSeconds}
	e.finished = false

	e.bus.Publish(events.New(events.EventTypeTimerReset, timerKey, events.TimerResetPayload{
		TotalSeconds: totalSeconds,
	}))
	log.Info().Int("total_seconds", totalSeconds).Msg("timer reset")
}

// Tick recomputes the remaining time from the wall clock and broadcasts it.
// Reaching zero stops the countdown and emits the finished signal exactly
// once; later ticks are no-ops. Tick is driven on a one second cadence by
// Run, but correctness does not depend on how many ticks are delivered.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Running {
		return
	}

	now := e.clock.Now()
	remaining := e.state.Remaining(now)

	e.bus.Publish(events.New(events.EventTypeTimerTick, timerKey, events.TimerTickPayload{
		RemainingSeconds: remaining,
		Display:          timeutil.FormatSeconds(remaining),
		TickedAt:         now.UTC(),
	}))

	if remaining == 0 {
		e.state.Running = false
		e.state.TotalSeconds = 0
		if !e.finished {
			e.finished = true
			e.bus.Publish(events.New(events.EventTypeTimerFinished, timerKey, events.TimerFinishedPayload{
				FinishedAt: now.UTC(),
			}))
			log.Info().Msg("timer finished")
		}
	}
}

// Remaining returns the seconds left right now.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Remaining(e.clock.Now())
}

// State returns a snapshot of the timer state.
func (e *Engine) State() models.TimerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Run drives Tick on a one second cadence until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(time.Second)
	defer ticker.Stop()

	log.Info().Msg("timer engine started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("timer engine shutting down")
			return
		case <-ticker.Chan():
			e.Tick()
		}
	}
}
