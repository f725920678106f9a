package store

import (
	"strings"
	"time"

	"github.com/stefanpenner/pomo/pkg/budget"
)

// Status represents the lifecycle state of a task. Any transition is allowed.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next cycles todo → in-progress → completed → todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusTodo
	}
}

// ParseStatus accepts the wire names plus a few loose spellings
// ("done", "in_progress", "inprogress").
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do":
		return StatusTodo, nil
	case "in-progress", "in_progress", "inprogress", "doing":
		return StatusInProgress, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	}
	return "", &ValidationError{Field: "status", Message: "unknown status " + `"` + s + `"`}
}

// Task is a unit of work with a time budget.
type Task struct {
	ID        int           `json:"id"`
	Title     string        `json:"title"`
	Status    Status        `json:"status"`
	Budget    budget.Budget `json:"budget"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsCompleted returns true if the task is marked completed.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsInProgress returns true if the task is in progress.
func (t Task) IsInProgress() bool {
	return t.Status == StatusInProgress
}

// Statistics summarizes the task set.
type Statistics struct {
	TotalHoursSpent float64 `json:"total_hours_spent"`
	TotalTasks      int     `json:"total_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	InProgressTasks int     `json:"in_progress_tasks"`
	TodoTasks       int     `json:"todo_tasks"`
}

// Summarize computes statistics locally from a task list.
func Summarize(tasks []Task) Statistics {
	var st Statistics
	var spent float64
	for _, t := range tasks {
		st.TotalTasks++
		spent += t.Budget.SpentHours()
		switch t.Status {
		case StatusCompleted:
			st.CompletedTasks++
		case StatusInProgress:
			st.InProgressTasks++
		default:
			st.TodoTasks++
		}
	}
	st.TotalHoursSpent = roundTo(spent, 2)
	return st
}
