// Package session ties the countdown to the task list. A Controller owns the
// timer, its ticker, the selected task and the cached task list, and turns
// every work second spent on the selected task into one store update.
package session

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stefanpenner/pomo/pkg/sound"
	"github.com/stefanpenner/pomo/pkg/store"
	"github.com/stefanpenner/pomo/pkg/timer"
)

// Options configures a Controller.
type Options struct {
	Durations    timer.Durations
	TickInterval time.Duration
	Notifier     sound.Notifier
	Logger       *log.Logger
	// Context bounds background store calls. Defaults to context.Background.
	Context context.Context
}

// State is a snapshot for rendering.
type State struct {
	Timer timer.State
	// Active is the selected task, nil when nothing is selected. When the
	// task is not in the cached list only its ID is known.
	Active   *store.Task
	ActiveID int
	Tasks    []store.Task
	// Query is the search the task list was filtered by, empty for all tasks.
	Query string
}

// HasActive reports whether a task is selected.
func (s State) HasActive() bool { return s.Active != nil }

// Controller coordinates the timer, the selected task and time accrual.
type Controller struct {
	mu       sync.Mutex
	store    store.TaskStore
	timer    *timer.Timer
	interval time.Duration
	notifier sound.Notifier
	logger   *log.Logger

	ticker  *timer.Ticker
	tickGen uint64

	tasks     []store.Task
	query     string
	listGen   uint64
	active    *store.Task
	activeID  int
	epoch     uint64
	selCtx    context.Context
	selCancel context.CancelFunc

	// accrualSeq numbers dispatched accruals; appliedSeq is the newest one
	// whose response has been merged.
	accrualSeq uint64
	appliedSeq uint64

	baseCtx    context.Context
	baseCancel context.CancelFunc
	accruals   sync.WaitGroup

	events []chan Event
	closed bool
}

// New creates a Controller with an idle timer and no selection.
func New(st store.TaskStore, opts Options) *Controller {
	if opts.Durations == (timer.Durations{}) {
		opts.Durations = timer.DefaultDurations()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = sound.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	c := &Controller{
		store:    st,
		timer:    timer.New(opts.Durations),
		interval: opts.TickInterval,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
	c.baseCtx, c.baseCancel = context.WithCancel(opts.Context)
	c.selCtx, c.selCancel = context.WithCancel(c.baseCtx)
	return c
}

// Subscribe registers an observer channel. Events are dropped for a
// subscriber whose buffer is full. Channels close on Close.
func (c *Controller) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch
	}
	c.events = append(c.events, ch)
	return ch
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Timer:    c.timer.State(),
		ActiveID: c.activeID,
		Tasks:    slices.Clone(c.tasks),
		Query:    c.query,
	}
	if c.active != nil {
		a := *c.active
		s.Active = &a
	}
	return s
}

// Start is the start/stop control: it starts a cycle from idle, resumes a
// paused one, or stops a running one keeping the remaining time.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	prev := c.timer.Phase()
	next := c.timer.Start()
	if next == timer.Running {
		c.startTickerLocked()
	} else {
		c.stopTickerLocked()
	}
	if prev == timer.Idle && next == timer.Running {
		c.playLocked(sound.Start)
	}
	c.logger.Debug("start toggled", "from", prev, "to", next)
	c.emitLocked(Event{Type: EventPhase})
}

// Pause toggles between running and paused. It does nothing while idle.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	prev := c.timer.Phase()
	next := c.timer.Pause()
	if prev == next {
		return
	}
	if next == timer.Running {
		c.startTickerLocked()
	} else {
		c.stopTickerLocked()
	}
	c.emitLocked(Event{Type: EventPhase})
}

// Reset stops the countdown and reloads a full cycle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.stopTickerLocked()
	c.timer.Reset()
	c.emitLocked(Event{Type: EventPhase})
}

// SetDurations changes the cycle length. It takes effect immediately while
// idle, otherwise at the next reset or completion.
func (c *Controller) SetDurations(d timer.Durations) (applied bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	applied, err = c.timer.SetDurations(d)
	if err != nil {
		return false, err
	}
	c.logger.Info("durations changed", "work", d.Work, "break", d.Break, "applied", applied)
	c.emitLocked(Event{Type: EventPhase})
	return applied, nil
}

// SelectTask makes id the active task. Choosing a different task resets the
// timer and abandons accruals still in flight for the previous one.
// Selecting the already active task does nothing.
func (c *Controller) SelectTask(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.active != nil && c.activeID == id) {
		return
	}
	c.selectLocked(id, true)
}

// ClearSelection deselects the active task and resets the timer.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.active == nil {
		return
	}
	c.selectLocked(0, false)
}

func (c *Controller) selectLocked(id int, ok bool) {
	c.selCancel()
	c.epoch++
	c.selCtx, c.selCancel = context.WithCancel(c.baseCtx)

	c.active = nil
	c.activeID = 0
	if ok {
		c.activeID = id
		c.active = &store.Task{ID: id}
		if t, found := c.findLocked(id); found {
			c.active = &t
		}
	}
	c.logger.Debug("selection changed", "task", id, "selected", ok)

	c.resetLocked()
	c.emitLocked(Event{Type: EventSelection, TaskID: id})
}

// Tick advances the countdown by one second. The ticker started by Start
// calls it; tests and embedders may drive it directly instead.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.tickLocked()
}

func (c *Controller) tickFromTicker(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A stopped ticker may still deliver one late call.
	if c.closed || gen != c.tickGen {
		return
	}
	c.tickLocked()
}

func (c *Controller) tickLocked() {
	res := c.timer.Tick()
	if !res.Counted {
		return
	}

	if res.Subphase == timer.Work && c.active != nil {
		c.dispatchAccrualLocked(c.activeID)
	}

	if res.BreakStarted {
		c.playLocked(sound.Break)
		c.emitLocked(Event{Type: EventBreakStarted})
	}
	if res.Completed {
		c.stopTickerLocked()
		c.playLocked(sound.Complete)
		c.logger.Info("cycle completed", "task", c.activeID)
		c.emitLocked(Event{Type: EventCompleted, TaskID: c.activeID})
	}
	c.emitLocked(Event{Type: EventTick})
}

// dispatchAccrualLocked records one elapsed second for id without waiting
// for the store. The result is applied only if the selection is unchanged
// and no later accrual has been applied first.
func (c *Controller) dispatchAccrualLocked(id int) {
	epoch := c.epoch
	ctx := c.selCtx
	c.accrualSeq++
	seq := c.accrualSeq

	c.accruals.Add(1)
	go func() {
		defer c.accruals.Done()
		task, err := c.store.AddElapsedSeconds(ctx, id, 1)
		c.reconcile(id, epoch, seq, task, err)
	}()
}

func (c *Controller) reconcile(id int, epoch, seq uint64, task store.Task, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if epoch != c.epoch || c.active == nil || c.activeID != id {
		c.logger.Debug("discarding stale accrual", "task", id, "err", err)
		return
	}
	if err != nil {
		c.logger.Warn("recording elapsed time failed", "task", id, "err", err)
		c.emitLocked(Event{Type: EventError, TaskID: id, Err: err})
		return
	}
	if seq <= c.appliedSeq {
		c.logger.Debug("discarding out-of-order accrual", "task", id, "seq", seq, "applied", c.appliedSeq)
		return
	}
	c.appliedSeq = seq
	if c.mergeLocked(task) {
		c.emitLocked(Event{Type: EventTasks, TaskID: id})
	}
}

// mergeLocked replaces the cached copies of t with the store's record.
func (c *Controller) mergeLocked(t store.Task) bool {
	changed := false
	if i := c.indexLocked(t.ID); i >= 0 {
		c.tasks[i] = t
		changed = true
	}
	if c.active != nil && c.activeID == t.ID {
		a := t
		c.active = &a
		changed = true
	}
	return changed
}

func (c *Controller) indexLocked(id int) int {
	return slices.IndexFunc(c.tasks, func(t store.Task) bool { return t.ID == id })
}

func (c *Controller) findLocked(id int) (store.Task, bool) {
	if i := c.indexLocked(id); i >= 0 {
		return c.tasks[i], true
	}
	return store.Task{}, false
}

// Refresh reloads the full task list and clears any search filter.
func (c *Controller) Refresh(ctx context.Context) error {
	gen := c.nextListGen()
	tasks, err := c.store.List(ctx)
	if err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceTasksLocked(gen, tasks, "")
	return nil
}

// Search filters the task list by title. An empty query reloads everything.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.Refresh(ctx)
	}
	gen := c.nextListGen()
	tasks, err := c.store.Search(ctx, query)
	if err != nil {
		return c.fail(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceTasksLocked(gen, tasks, query)
	return nil
}

// nextListGen starts a list read. Only the newest read is applied, and a
// local change to the list supersedes reads already in flight.
func (c *Controller) nextListGen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listGen++
	return c.listGen
}

func (c *Controller) replaceTasksLocked(gen uint64, tasks []store.Task, query string) {
	if gen != c.listGen {
		c.logger.Debug("discarding superseded task list", "gen", gen, "current", c.listGen)
		return
	}
	c.tasks = tasks
	c.query = query
	if c.active != nil {
		if t, ok := c.findLocked(c.activeID); ok {
			c.active = &t
		}
	}
	c.emitLocked(Event{Type: EventTasks})
}

// CreateTask adds a todo task and puts it at the top of the list.
func (c *Controller) CreateTask(ctx context.Context, title string, allocatedHours float64) (store.Task, error) {
	if err := store.ValidateNewTask(title, allocatedHours); err != nil {
		return store.Task{}, c.fail(err)
	}
	t, err := c.store.Create(ctx, title, allocatedHours)
	if err != nil {
		return store.Task{}, c.fail(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.listGen++
	if c.query == "" || strings.Contains(strings.ToLower(t.Title), strings.ToLower(c.query)) {
		c.tasks = append([]store.Task{t}, c.tasks...)
	}
	c.emitLocked(Event{Type: EventTasks, TaskID: t.ID})
	return t, nil
}

// SetStatus changes a task's status.
func (c *Controller) SetStatus(ctx context.Context, id int, status store.Status) (store.Task, error) {
	t, err := c.store.SetStatus(ctx, id, status)
	if err != nil {
		return store.Task{}, c.fail(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeLocked(t)
	c.emitLocked(Event{Type: EventTasks, TaskID: id})
	return t, nil
}

// CycleStatus moves a task to the next status (todo → in-progress → completed).
func (c *Controller) CycleStatus(ctx context.Context, id int) (store.Task, error) {
	c.mu.Lock()
	cur, ok := c.findLocked(id)
	c.mu.Unlock()
	if !ok {
		return store.Task{}, c.fail(&store.StoreError{Op: store.OpStatus, TaskID: id, Err: store.ErrNotFound})
	}
	return c.SetStatus(ctx, id, cur.Status.Next())
}

// DeleteTask removes a task. Deleting the active task clears the selection
// and resets the timer. A task the store no longer knows is dropped locally.
func (c *Controller) DeleteTask(ctx context.Context, id int) error {
	if err := c.store.Delete(ctx, id); err != nil && !store.IsNotFound(err) {
		return c.fail(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.listGen++
	if i := c.indexLocked(id); i >= 0 {
		c.tasks = slices.Delete(c.tasks, i, i+1)
	}
	if c.active != nil && c.activeID == id && !c.closed {
		c.selectLocked(0, false)
	}
	c.emitLocked(Event{Type: EventTasks, TaskID: id})
	return nil
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Warn("task operation failed", "err", err)
	c.emitLocked(Event{Type: EventError, Err: err})
	return err
}

// Close stops the ticker, cancels outstanding store calls, waits for them
// and closes every subscriber channel.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTickerLocked()
	c.selCancel()
	c.baseCancel()
	c.mu.Unlock()

	c.accruals.Wait()

	c.mu.Lock()
	events := c.events
	c.events = nil
	c.mu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

func (c *Controller) startTickerLocked() {
	c.stopTickerLocked()
	gen := c.tickGen
	c.ticker = timer.StartTicker(c.interval, func() { c.tickFromTicker(gen) })
}

func (c *Controller) stopTickerLocked() {
	c.ticker.Stop()
	c.ticker = nil
	c.tickGen++
}

func (c *Controller) playLocked(kind sound.Kind) {
	n := c.notifier
	go func() {
		if err := n.Play(kind); err != nil {
			c.logger.Debug("sound cue failed", "kind", kind, "err", err)
		}
	}()
}

func (c *Controller) emitLocked(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	ev.Timer = c.timer.State()
	for _, ch := range c.events {
		select {
		case ch <- ev:
		default:
		}
	}
}
