package session

import (
	"time"

	"github.com/stefanpenner/pomo/pkg/timer"
)

// EventType defines the kind of controller event.
type EventType string

const (
	EventTick         EventType = "tick"
	EventPhase        EventType = "phase"
	EventBreakStarted EventType = "break_started"
	EventCompleted    EventType = "completed"
	EventSelection    EventType = "selection"
	EventTasks        EventType = "tasks"
	EventError        EventType = "error"
)

// Event is published to subscribers after a state change.
type Event struct {
	Type   EventType
	Timer  timer.State
	TaskID int
	Err    error
	At     time.Time
}
