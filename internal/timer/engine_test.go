package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/munchkineatter/DDrum/internal/errs"
	"github.com/munchkineatter/DDrum/internal/events"
)

func newTestEngine(t *testing.T) (*Engine, *clockwork.FakeClock, *events.Subscription) {
	t.Helper()
	bus := events.NewMemoryBus(64)
	t.Cleanup(bus.Close)
	clock := clockwork.NewFakeClock()
	sub := bus.Subscribe()
	return NewEngine(bus, clock), clock, sub
}

func drain(sub *events.Subscription) []events.Event {
	var out []events.Event
	for {
		select {
		case e := <-sub.C():
			out = append(out, e)
		default:
			return out
		}
	}
}

func countType(list []events.Event, eventType events.EventType) int {
	n := 0
	for _, e := range list {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestRemainingIsWallClockDerived(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	require.NoError(t, engine.Start(300))
	clock.Advance(10 * time.Second)

	// Exact regardless of how many ticks were actually delivered.
	require.Equal(t, 290, engine.Remaining())

	engine.Tick()
	engine.Tick()
	require.Equal(t, 290, engine.Remaining())
}

func TestStartRejectsNonPositive(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	require.True(t, errs.IsValidation(engine.Start(0)))
	require.True(t, errs.IsValidation(engine.Start(-30)))
}

func TestStartReplacesRunningCountdown(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	require.NoError(t, engine.Start(300))
	clock.Advance(30 * time.Second)
	require.NoError(t, engine.Start(60))

	require.Equal(t, 60, engine.Remaining())
	require.True(t, engine.State().Running)
}

func TestPauseFreezesRemaining(t *testing.T) {
	engine, clock, _ := newTestEngine(t)

	require.NoError(t, engine.Start(120))
	clock.Advance(45 * time.Second)
	engine.Pause()

	state := engine.State()
	require.False(t, state.Running)
	require.Equal(t, 75, state.TotalSeconds)

	// Time passing while paused changes nothing.
	clock.Advance(time.Hour)
	require.Equal(t, 75, engine.Remaining())
}

func TestFinishedEmittedExactlyOnce(t *testing.T) {
	engine, clock, sub := newTestEngine(t)

	require.NoError(t, engine.Start(5))
	clock.Advance(5 * time.Second)

	engine.Tick()
	engine.Tick()
	engine.Tick()

	got := drain(sub)
	require.Equal(t, 1, countType(got, events.EventTypeTimerFinished))
	// The zero tick is broadcast once; ticks after finish are no-ops.
	require.Equal(t, 1, countType(got, events.EventTypeTimerTick))
	require.False(t, engine.State().Running)
}

func TestTickBroadcastsFormattedRemaining(t *testing.T) {
	engine, clock, sub := newTestEngine(t)

	require.NoError(t, engine.Start(300))
	drain(sub)

	clock.Advance(61 * time.Second)
	engine.Tick()

	got := drain(sub)
	require.Len(t, got, 1)
	require.Equal(t, events.EventTypeTimerTick, got[0].Type)
	require.Contains(t, string(got[0].Data), `"03:59"`)
}

func TestResetLoadsWithoutStarting(t *testing.T) {
	engine, clock, sub := newTestEngine(t)

	require.NoError(t, engine.Start(300))
	clock.Advance(10 * time.Second)
	engine.Reset(600)

	state := engine.State()
	require.False(t, state.Running)
	require.Equal(t, 600, state.TotalSeconds)
	require.Equal(t, 600, engine.Remaining())

	got := drain(sub)
	require.Equal(t, 1, countType(got, events.EventTypeTimerReset))

	// A reset countdown can finish again later.
	require.NoError(t, engine.Start(1))
	clock.Advance(time.Second)
	engine.Tick()
	require.Equal(t, 1, countType(drain(sub), events.EventTypeTimerFinished))
}
