// Package timer implements the work/break countdown.
//
// One cycle is a single countdown of work+break seconds. The subphase is
// derived from what is left: Work while more than the break length remains,
// Break after that. Reaching zero ends the cycle and returns to Idle.
package timer

import (
	"errors"
	"fmt"
	"time"
)

// Phase is the run state of the countdown.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Subphase tells whether a second belongs to the work or the break portion.
type Subphase int

const (
	Work Subphase = iota
	Break
)

func (s Subphase) String() string {
	if s == Break {
		return "break"
	}
	return "work"
}

// Default durations.
const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

// ErrInvalidDurations is returned for a non-positive work or negative break length.
var ErrInvalidDurations = errors.New("work must be at least one second and break must not be negative")

// Durations configures one cycle.
type Durations struct {
	Work  time.Duration
	Break time.Duration
}

// DefaultDurations returns 25 minutes of work followed by a 5 minute break.
func DefaultDurations() Durations {
	return Durations{Work: DefaultWork, Break: DefaultBreak}
}

// Validate checks that the durations can form a cycle.
func (d Durations) Validate() error {
	if d.Work < time.Second || d.Break < 0 {
		return fmt.Errorf("work %s, break %s: %w", d.Work, d.Break, ErrInvalidDurations)
	}
	return nil
}

// Total is the length of a full cycle.
func (d Durations) Total() time.Duration {
	return d.Work + d.Break
}

func (d Durations) seconds() (work, brk int) {
	return int(d.Work / time.Second), int(d.Break / time.Second)
}

// TickResult describes what a Tick did.
type TickResult struct {
	// Counted is false when the timer was not running.
	Counted bool
	// Subphase is the subphase of the consumed second.
	Subphase Subphase
	// BreakStarted is set when this tick crossed from work into break.
	BreakStarted bool
	// Completed is set when this tick consumed the last second of the cycle.
	Completed bool
}

// State is a snapshot of the timer.
type State struct {
	Phase     Phase
	Subphase  Subphase
	Remaining time.Duration
	Durations Durations
	// Pending holds durations that take effect at the next reset or completion.
	Pending *Durations
}

// Total is the full cycle length for the active durations.
func (s State) Total() time.Duration {
	return s.Durations.Total()
}

// Elapsed is how far into the cycle the countdown is.
func (s State) Elapsed() time.Duration {
	return s.Total() - s.Remaining
}

// Progress returns the elapsed fraction of the cycle in [0, 1].
func (s State) Progress() float64 {
	total := s.Total()
	if total <= 0 {
		return 0
	}
	p := float64(s.Elapsed()) / float64(total)
	return min(1, max(0, p))
}

// SubphaseRemaining is the time left in the current subphase.
func (s State) SubphaseRemaining() time.Duration {
	if s.Subphase == Work {
		return s.Remaining - s.Durations.Break
	}
	return s.Remaining
}

// Completed reports whether the last cycle ran to zero and has not been restarted.
func (s State) Completed() bool {
	return s.Phase == Idle && s.Remaining == 0
}

// Timer is the countdown state machine. It is not safe for concurrent use.
type Timer struct {
	durations Durations
	pending   *Durations
	phase     Phase
	remaining int
}

// New creates an idle timer loaded with a full cycle. Invalid durations fall
// back to the defaults.
func New(d Durations) *Timer {
	if d.Validate() != nil {
		d = DefaultDurations()
	}
	t := &Timer{durations: d}
	t.reload()
	return t
}

func (t *Timer) reload() {
	work, brk := t.durations.seconds()
	t.remaining = work + brk
}

func (t *Timer) subphase() Subphase {
	_, brk := t.durations.seconds()
	if t.remaining > brk {
		return Work
	}
	return Break
}

func (t *Timer) applyPending() {
	if t.pending != nil {
		t.durations = *t.pending
		t.pending = nil
	}
}

// Phase returns the current phase.
func (t *Timer) Phase() Phase { return t.phase }

// State returns a snapshot.
func (t *Timer) State() State {
	s := State{
		Phase:     t.phase,
		Subphase:  t.subphase(),
		Remaining: time.Duration(t.remaining) * time.Second,
		Durations: t.durations,
	}
	if t.pending != nil {
		p := *t.pending
		s.Pending = &p
	}
	return s
}

// Start is the start/stop control. From Idle it starts a cycle, reloading the
// full duration if the previous one ran out. From Paused it resumes. From
// Running it stops and keeps the remaining time.
func (t *Timer) Start() Phase {
	switch t.phase {
	case Idle:
		if t.remaining == 0 {
			t.reload()
		}
		t.phase = Running
	case Paused:
		t.phase = Running
	case Running:
		t.phase = Idle
	}
	return t.phase
}

// Pause toggles between Running and Paused. It does nothing while Idle.
func (t *Timer) Pause() Phase {
	switch t.phase {
	case Running:
		t.phase = Paused
	case Paused:
		t.phase = Running
	}
	return t.phase
}

// Resume continues a paused countdown.
func (t *Timer) Resume() Phase {
	if t.phase == Paused {
		t.phase = Running
	}
	return t.phase
}

// Reset returns to Idle with a full cycle loaded.
func (t *Timer) Reset() {
	t.applyPending()
	t.phase = Idle
	t.reload()
}

// Tick consumes one second while Running.
func (t *Timer) Tick() TickResult {
	if t.phase != Running || t.remaining <= 0 {
		return TickResult{}
	}

	before := t.subphase()
	t.remaining--
	res := TickResult{Counted: true, Subphase: before}

	if t.remaining == 0 {
		res.Completed = true
		t.phase = Idle
		t.applyPending()
		return res
	}
	if before == Work && t.subphase() == Break {
		res.BreakStarted = true
	}
	return res
}

// SetDurations changes the cycle length. While Idle the countdown is rebased
// at once and applied is true; otherwise the change waits for the next reset
// or completion.
func (t *Timer) SetDurations(d Durations) (applied bool, err error) {
	if err := d.Validate(); err != nil {
		return false, err
	}
	if t.phase != Idle {
		t.pending = &d
		return false, nil
	}
	t.pending = nil
	t.durations = d
	t.reload()
	return true, nil
}
