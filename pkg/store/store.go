package store

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/stefanpenner/pomo/pkg/budget"
)

// TaskStore is the persistence contract for tasks. Every call may block on
// I/O and honours ctx cancellation.
type TaskStore interface {
	List(ctx context.Context) ([]Task, error)
	// Create adds a task with status todo and nothing spent.
	Create(ctx context.Context, title string, allocatedHours float64) (Task, error)
	Search(ctx context.Context, query string) ([]Task, error)
	SetStatus(ctx context.Context, id int, status Status) (Task, error)
	// AddElapsedSeconds adds to the spent time server-side and returns the
	// authoritative record.
	AddElapsedSeconds(ctx context.Context, id int, seconds int) (Task, error)
	Delete(ctx context.Context, id int) error
}

// ValidateNewTask checks the inputs of Create.
func ValidateNewTask(title string, allocatedHours float64) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if math.IsNaN(allocatedHours) || math.IsInf(allocatedHours, 0) || allocatedHours <= 0 {
		return &ValidationError{Field: "allocated_hours", Message: "must be a positive number"}
	}
	return nil
}

func validateSeconds(seconds int) error {
	if seconds <= 0 {
		return &ValidationError{Field: "seconds", Message: "must be positive"}
	}
	return nil
}

func validateStatus(status Status) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Message: "unknown status " + `"` + string(status) + `"`}
	}
	return nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Memory is an in-process TaskStore. It mirrors the backend semantics:
// newest tasks first, case-insensitive title search, additive time updates.
type Memory struct {
	mu     sync.Mutex
	tasks  map[int]Task
	nextID int
	now    func() time.Time
}

// NewMemory creates a Memory store seeded with tasks. Seed IDs are kept;
// seeds without an ID get one assigned.
func NewMemory(seed ...Task) *Memory {
	m := &Memory{tasks: make(map[int]Task), nextID: 1, now: time.Now}
	for _, t := range seed {
		if t.ID == 0 {
			t.ID = m.nextID
		}
		if t.ID >= m.nextID {
			m.nextID = t.ID + 1
		}
		if t.Status == "" {
			t.Status = StatusTodo
		}
		m.tasks[t.ID] = t
	}
	return m
}

// DemoTasks returns a small task set for trying the app without a server.
func DemoTasks() []Task {
	now := time.Now()
	return []Task{
		{ID: 1, Title: "Math Homework", Status: StatusInProgress, Budget: budget.New(6, 7200), CreatedAt: now.Add(-4 * time.Hour), UpdatedAt: now},
		{ID: 2, Title: "Read Physics Chapter 5", Status: StatusTodo, Budget: budget.New(3, 0), CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now},
		{ID: 3, Title: "Write Essay", Status: StatusInProgress, Budget: budget.New(4, 5400), CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now},
		{ID: 4, Title: "Review Chemistry Notes", Status: StatusCompleted, Budget: budget.New(2, 7200), CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now},
	}
}

func (m *Memory) sortedLocked(keep func(Task) bool) []Task {
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if keep == nil || keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Task) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return b.ID - a.ID
	})
	return out
}

// List returns all tasks, newest first.
func (m *Memory) List(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: OpList, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(nil), nil
}

// Create adds a new todo task.
func (m *Memory) Create(ctx context.Context, title string, allocatedHours float64) (Task, error) {
	if err := ValidateNewTask(title, allocatedHours); err != nil {
		return Task{}, err
	}
	if err := ctx.Err(); err != nil {
		return Task{}, &StoreError{Op: OpCreate, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	t := Task{
		ID:        m.nextID,
		Title:     strings.TrimSpace(title),
		Status:    StatusTodo,
		Budget:    budget.New(allocatedHours, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.nextID++
	m.tasks[t.ID] = t
	return t, nil
}

// Search returns tasks whose title contains query, ignoring case.
func (m *Memory) Search(ctx context.Context, query string) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: OpSearch, Err: err}
	}
	q := strings.ToLower(query)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(func(t Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q)
	}), nil
}

// SetStatus changes a task's status.
func (m *Memory) SetStatus(ctx context.Context, id int, status Status) (Task, error) {
	if err := validateStatus(status); err != nil {
		return Task{}, err
	}
	return m.update(ctx, OpStatus, id, func(t *Task) { t.Status = status })
}

// AddElapsedSeconds adds seconds to a task's spent time.
func (m *Memory) AddElapsedSeconds(ctx context.Context, id int, seconds int) (Task, error) {
	if err := validateSeconds(seconds); err != nil {
		return Task{}, err
	}
	return m.update(ctx, OpAccrue, id, func(t *Task) { t.Budget = t.Budget.Add(float64(seconds)) })
}

// Delete removes a task.
func (m *Memory) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: OpDelete, TaskID: id, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return &StoreError{Op: OpDelete, TaskID: id, Err: ErrNotFound}
	}
	delete(m.tasks, id)
	return nil
}

// Statistics summarizes every task in the store.
func (m *Memory) Statistics(ctx context.Context) (Statistics, error) {
	tasks, err := m.List(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return Summarize(tasks), nil
}

func (m *Memory) update(ctx context.Context, op Op, id int, fn func(*Task)) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, &StoreError{Op: op, TaskID: id, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return Task{}, &StoreError{Op: op, TaskID: id, Err: ErrNotFound}
	}
	fn(&t)
	t.UpdatedAt = m.now()
	m.tasks[id] = t
	return t, nil
}
