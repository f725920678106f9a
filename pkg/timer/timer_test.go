package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortCycle() Durations {
	return Durations{Work: 3 * time.Second, Break: 2 * time.Second}
}

func TestNewTimerIsIdleWithFullCycle(t *testing.T) {
	tm := New(DefaultDurations())
	s := tm.State()

	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, Work, s.Subphase)
	assert.Equal(t, 30*time.Minute, s.Remaining)
	assert.Equal(t, 25*time.Minute, s.SubphaseRemaining())
	assert.False(t, s.Completed())
	assert.Equal(t, 0.0, s.Progress())
}

func TestNewTimerFallsBackOnInvalidDurations(t *testing.T) {
	tm := New(Durations{Work: 0, Break: time.Minute})
	assert.Equal(t, DefaultDurations(), tm.State().Durations)
}

func TestTickOnlyCountsWhileRunning(t *testing.T) {
	tm := New(shortCycle())

	res := tm.Tick()
	assert.False(t, res.Counted)
	assert.Equal(t, 5*time.Second, tm.State().Remaining)

	tm.Start()
	tm.Pause()
	res = tm.Tick()
	assert.False(t, res.Counted)
	assert.Equal(t, 5*time.Second, tm.State().Remaining)
}

func TestFullCycle(t *testing.T) {
	tm := New(shortCycle())
	require.Equal(t, Running, tm.Start())

	var results []TickResult
	for i := 0; i < 5; i++ {
		results = append(results, tm.Tick())
	}

	subphases := []Subphase{}
	for _, r := range results {
		assert.True(t, r.Counted)
		subphases = append(subphases, r.Subphase)
	}
	assert.Equal(t, []Subphase{Work, Work, Work, Break, Break}, subphases)

	assert.True(t, results[2].BreakStarted, "break begins once the work seconds are consumed")
	for i, r := range results {
		if i != 2 {
			assert.False(t, r.BreakStarted, "tick %d", i)
		}
	}
	assert.True(t, results[4].Completed)

	s := tm.State()
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, time.Duration(0), s.Remaining)
	assert.True(t, s.Completed())

	// A tick after completion does nothing.
	assert.False(t, tm.Tick().Counted)

	// The next start reloads a full cycle.
	tm.Start()
	assert.Equal(t, 5*time.Second, tm.State().Remaining)
	assert.Equal(t, Running, tm.Phase())
}

func TestStartTogglesStop(t *testing.T) {
	tm := New(shortCycle())
	tm.Start()
	tm.Tick()

	assert.Equal(t, Idle, tm.Start())
	assert.Equal(t, 4*time.Second, tm.State().Remaining, "stopping keeps the remaining time")

	assert.Equal(t, Running, tm.Start())
	assert.Equal(t, 4*time.Second, tm.State().Remaining, "starting again continues")
}

func TestPauseResumePreservesRemaining(t *testing.T) {
	tm := New(shortCycle())
	tm.Start()
	tm.Tick()
	tm.Tick()

	assert.Equal(t, Paused, tm.Pause())
	before := tm.State().Remaining
	for i := 0; i < 10; i++ {
		tm.Tick()
	}
	assert.Equal(t, before, tm.State().Remaining)

	assert.Equal(t, Running, tm.Pause(), "pause toggles back to running")
	assert.Equal(t, before, tm.State().Remaining)

	tm.Pause()
	assert.Equal(t, Running, tm.Resume())
	assert.Equal(t, Running, tm.Resume(), "resume while running is a no-op")
}

func TestPauseWhileIdleIsNoop(t *testing.T) {
	tm := New(shortCycle())
	assert.Equal(t, Idle, tm.Pause())
	assert.Equal(t, Idle, tm.Resume())
}

func TestStartFromPausedResumes(t *testing.T) {
	tm := New(shortCycle())
	tm.Start()
	tm.Tick()
	tm.Pause()

	assert.Equal(t, Running, tm.Start())
	assert.Equal(t, 4*time.Second, tm.State().Remaining)
}

func TestReset(t *testing.T) {
	tm := New(shortCycle())
	tm.Start()
	tm.Tick()
	tm.Tick()
	tm.Tick()

	tm.Reset()
	s := tm.State()
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, 5*time.Second, s.Remaining)
	assert.Equal(t, Work, s.Subphase)
}

func TestSetDurationsWhileIdleRebases(t *testing.T) {
	tm := New(shortCycle())

	applied, err := tm.SetDurations(Durations{Work: 10 * time.Second, Break: 5 * time.Second})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 15*time.Second, tm.State().Remaining)
	assert.Nil(t, tm.State().Pending)
}

func TestSetDurationsWhileRunningIsDeferred(t *testing.T) {
	tm := New(shortCycle())
	tm.Start()
	tm.Tick()

	next := Durations{Work: 10 * time.Second, Break: 5 * time.Second}
	applied, err := tm.SetDurations(next)
	require.NoError(t, err)
	assert.False(t, applied)

	s := tm.State()
	assert.Equal(t, 4*time.Second, s.Remaining)
	assert.Equal(t, shortCycle(), s.Durations)
	require.NotNil(t, s.Pending)
	assert.Equal(t, next, *s.Pending)

	tm.Reset()
	s = tm.State()
	assert.Equal(t, next, s.Durations)
	assert.Equal(t, 15*time.Second, s.Remaining)
	assert.Nil(t, s.Pending)
}

func TestPendingDurationsApplyOnCompletion(t *testing.T) {
	tm := New(Durations{Work: time.Second, Break: 0})
	tm.Start()

	next := Durations{Work: 2 * time.Second, Break: time.Second}
	_, err := tm.SetDurations(next)
	require.NoError(t, err)

	res := tm.Tick()
	assert.True(t, res.Completed)
	assert.Equal(t, Work, res.Subphase)
	assert.Equal(t, next, tm.State().Durations)

	tm.Start()
	assert.Equal(t, 3*time.Second, tm.State().Remaining)
}

func TestSetDurationsRejectsInvalid(t *testing.T) {
	tm := New(shortCycle())

	_, err := tm.SetDurations(Durations{Work: 0, Break: time.Second})
	assert.ErrorIs(t, err, ErrInvalidDurations)

	_, err = tm.SetDurations(Durations{Work: time.Second, Break: -time.Second})
	assert.ErrorIs(t, err, ErrInvalidDurations)

	assert.Equal(t, shortCycle(), tm.State().Durations)
}

func TestZeroBreakNeverEntersBreak(t *testing.T) {
	tm := New(Durations{Work: 2 * time.Second})
	tm.Start()

	r1 := tm.Tick()
	r2 := tm.Tick()
	assert.Equal(t, Work, r1.Subphase)
	assert.Equal(t, Work, r2.Subphase)
	assert.False(t, r1.BreakStarted)
	assert.True(t, r2.Completed)
}

func TestProgress(t *testing.T) {
	tm := New(Durations{Work: 3 * time.Second, Break: time.Second})
	tm.Start()
	tm.Tick()
	assert.InDelta(t, 0.25, tm.State().Progress(), 1e-9)
	assert.Equal(t, time.Second, tm.State().Elapsed())
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "work", Work.String())
	assert.Equal(t, "break", Break.String())
}

func TestTickerCallsUntilStopped(t *testing.T) {
	var calls atomic.Int32
	tk := StartTicker(5*time.Millisecond, func() { calls.Add(1) })

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	tk.Stop()
	tk.Stop()
	time.Sleep(20 * time.Millisecond)
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestNilTickerStop(t *testing.T) {
	var tk *Ticker
	assert.NotPanics(t, func() { tk.Stop() })
}
