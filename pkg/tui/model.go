package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"

	"github.com/stefanpenner/pomo/pkg/budget"
	"github.com/stefanpenner/pomo/pkg/session"
	"github.com/stefanpenner/pomo/pkg/store"
	"github.com/stefanpenner/pomo/pkg/timer"
)

// statusTimeout is how long a status message stays in the header.
const statusTimeout = 5 * time.Second

// EventMsg carries a controller event into the program.
type EventMsg struct {
	Event session.Event
}

// ConfigChangedMsg is sent when the config file watcher detects changes.
type ConfigChangedMsg struct{}

// opDoneMsg reports a finished store call started from a key press.
type opDoneMsg struct {
	status string
	err    error
}

// clearStatusMsg expires the status message with the matching sequence.
type clearStatusMsg struct {
	seq int
}

type inputStage int

const (
	inputNone inputStage = iota
	inputTitle
	inputHours
)

// Options configures the TUI model.
type Options struct {
	// Server is shown in the header.
	Server string
	// ReloadDurations re-reads the configured cycle when the config file changes.
	ReloadDurations func() (timer.Durations, error)
	// NoColor renders the task detail without ANSI styling.
	NoColor bool
	Logger  *log.Logger
	// Context bounds store calls made from key presses.
	Context context.Context
}

// Model is the Bubble Tea model for the pomodoro TUI.
type Model struct {
	ctrl   *session.Controller
	opts   Options
	ctx    context.Context
	logger *log.Logger
	keys   KeyMap
	width  int
	height int

	state        session.State
	visibleItems []ListItem
	cursor       int

	// Modal state
	showHelpModal     bool
	showDeleteConfirm bool
	deleteTarget      store.Task

	// Add-task input: title first, then hours
	inputStage   inputStage
	textInput    textinput.Model
	pendingTitle string

	// Search state
	isSearching bool
	searchQuery string

	// Status message
	statusMsg   string
	statusIsErr bool
	statusSeq   int

	timerBar  progress.Model
	budgetBar progress.Model

	// Cached glamour renderer (expensive to create) and the rendered detail panel
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
	detail          string
}

// NewModel creates a new TUI model driving ctrl.
func NewModel(ctrl *session.Controller, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 200

	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	m := Model{
		ctrl:      ctrl,
		opts:      opts,
		ctx:       opts.Context,
		logger:    opts.Logger,
		keys:      DefaultKeyMap(),
		textInput: ti,
		timerBar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		budgetBar: progress.New(progress.WithSolidFill(string(ColorBlue)), progress.WithoutPercentage()),
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.WindowSize(), m.refreshCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, rightWidth := m.panelWidths()
		m.timerBar.Width = max(10, rightWidth-4)
		m.budgetBar.Width = max(10, rightWidth-4)
		m.getGlamourRenderer(rightWidth)
		m.sync()
		return m, tea.ClearScreen

	case EventMsg:
		return m.handleEvent(msg.Event)

	case ConfigChangedMsg:
		return m, m.reloadConfig()

	case opDoneMsg:
		m.sync()
		if msg.err != nil {
			return m, m.setError(msg.err)
		}
		if msg.status != "" {
			return m, m.setStatus(msg.status)
		}
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Keep the input cursor blinking.
	if m.inputStage != inputNone {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	m.sync()
	switch ev.Type {
	case session.EventError:
		if ev.Err != nil {
			return m, m.setError(ev.Err)
		}
	case session.EventBreakStarted:
		return m, m.setStatus("Break time")
	case session.EventCompleted:
		return m, m.setStatus("Cycle complete")
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Add-task input handling
	if m.inputStage != inputNone {
		return m.handleInput(msg)
	}

	// Search input mode handling
	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	// Help modal
	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	// Delete confirmation
	if m.showDeleteConfirm {
		switch msg.String() {
		case "y", "Y":
			m.showDeleteConfirm = false
			return m, m.deleteCmd(m.deleteTarget)
		case "n", "N", "esc":
			m.showDeleteConfirm = false
		}
		return m, nil
	}

	// Esc dismisses the status message first, then a search filter.
	if msg.Type == tea.KeyEsc {
		switch {
		case m.statusMsg != "":
			m.statusMsg = ""
		case m.state.Query != "":
			return m, m.refreshCmd()
		}
		return m, nil
	}

	// Normal mode
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.cursor = nextSelectable(m.visibleItems, m.cursor, -1)
		m.renderDetail()

	case key.Matches(msg, m.keys.Down):
		m.cursor = nextSelectable(m.visibleItems, m.cursor, 1)
		m.renderDetail()

	case key.Matches(msg, m.keys.Start):
		m.ctrl.Start()
		m.sync()

	case key.Matches(msg, m.keys.Pause):
		m.ctrl.Pause()
		m.sync()

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
		m.sync()

	case key.Matches(msg, m.keys.Select):
		t, ok := m.cursorTask()
		if !ok {
			return m, nil
		}
		if m.state.HasActive() && m.state.ActiveID == t.ID {
			m.ctrl.ClearSelection()
			m.sync()
			return m, m.setStatus("Stopped tracking " + displayName(&t))
		}
		m.ctrl.SelectTask(t.ID)
		m.sync()
		return m, m.setStatus("Tracking " + displayName(&t))

	case key.Matches(msg, m.keys.Clear):
		if m.state.HasActive() {
			m.ctrl.ClearSelection()
			m.sync()
		}

	case key.Matches(msg, m.keys.Add):
		m.inputStage = inputTitle
		m.textInput.Reset()
		m.textInput.Placeholder = "task title"
		m.textInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Status):
		if t, ok := m.cursorTask(); ok {
			return m, m.cycleStatusCmd(t.ID)
		}

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.cursorTask(); ok {
			m.deleteTarget = t
			m.showDeleteConfirm = true
		}

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.searchQuery = ""
		m.rebuildVisible()

	case key.Matches(msg, m.keys.Reload):
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = true
	}

	return m, nil
}

// handleInput handles the two-step add-task prompt.
func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputStage = inputNone
		m.textInput.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.textInput.Value())
		if m.inputStage == inputTitle {
			if value == "" {
				m.inputStage = inputNone
				m.textInput.Blur()
				return m, nil
			}
			m.pendingTitle = value
			m.inputStage = inputHours
			m.textInput.Reset()
			m.textInput.Placeholder = "hours"
			m.textInput.SetValue("1")
			m.textInput.CursorEnd()
			return m, nil
		}

		hours, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return m, m.setError(fmt.Errorf("invalid hours %q", value))
		}
		m.inputStage = inputNone
		m.textInput.Blur()
		return m, m.createCmd(m.pendingTitle, hours)

	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

// handleSearchInput handles key messages while typing in the search bar.
// Typing filters the loaded list; enter asks the server.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.searchQuery = ""
		m.rebuildVisible()
		if m.state.Query != "" {
			return m, m.refreshCmd()
		}
		return m, nil

	case tea.KeyEnter:
		m.isSearching = false
		query := strings.TrimSpace(m.searchQuery)
		m.searchQuery = ""
		return m, m.searchCmd(query)

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.rebuildVisible()
		return m, nil

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.searchQuery += string(msg.Runes)
			if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
				m.searchQuery += " "
			}
			m.rebuildVisible()
		}
		return m, nil
	}
}

// reloadConfig applies changed cycle durations from the config file.
func (m *Model) reloadConfig() tea.Cmd {
	if m.opts.ReloadDurations == nil {
		return nil
	}
	d, err := m.opts.ReloadDurations()
	if err != nil {
		m.logger.Warn("config reload failed", "err", err)
		return m.setError(fmt.Errorf("config: %w", err))
	}

	cur := m.state.Timer
	if d == cur.Durations && cur.Pending == nil {
		return nil
	}
	if cur.Pending != nil && d == *cur.Pending {
		return nil
	}

	applied, err := m.ctrl.SetDurations(d)
	m.sync()
	if err != nil {
		return m.setError(err)
	}
	label := formatDurations(d)
	if applied {
		return m.setStatus("Cycle set to " + label)
	}
	return m.setStatus("Cycle " + label + " starts at the next reset")
}

func (m Model) refreshCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: ctrl.Refresh(ctx)}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		if err := ctrl.Search(ctx, query); err != nil {
			return opDoneMsg{err: err}
		}
		if query == "" {
			return opDoneMsg{}
		}
		return opDoneMsg{status: "Search: " + query}
	}
}

func (m Model) createCmd(title string, hours float64) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		t, err := ctrl.CreateTask(ctx, title, hours)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Created #%d: %s (%s)", t.ID, t.Title, budget.MustFormat(t.Budget.AllocatedHours))}
	}
}

func (m Model) cycleStatusCmd(id int) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		t, err := ctrl.CycleStatus(ctx, id)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("%s → %s", displayName(&t), t.Status)}
	}
}

func (m Model) deleteCmd(t store.Task) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		if err := ctrl.DeleteTask(ctx, t.ID); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: "Deleted: " + displayName(&t)}
	}
}

// sync pulls a fresh snapshot from the controller and rebuilds derived state.
func (m *Model) sync() {
	m.state = m.ctrl.Snapshot()
	m.rebuildVisible()
}

// rebuildVisible regroups the task list, keeping the cursor on the same task.
func (m *Model) rebuildVisible() {
	var curID string
	if m.cursor >= 0 && m.cursor < len(m.visibleItems) {
		curID = m.visibleItems[m.cursor].ID
	}

	tasks := m.state.Tasks
	if m.isSearching && m.searchQuery != "" {
		q := strings.ToLower(m.searchQuery)
		var filtered []store.Task
		for _, t := range tasks {
			if strings.Contains(strings.ToLower(t.Title), q) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	m.visibleItems = FlattenWithStatusGroups(tasks)

	if i := indexOf(m.visibleItems, curID); i >= 0 {
		m.cursor = i
	} else {
		m.cursor = min(m.cursor, len(m.visibleItems)-1)
		if m.cursor < 0 || m.visibleItems[m.cursor].IsSectionHeader {
			m.cursor = firstSelectable(m.visibleItems)
		}
	}
	m.renderDetail()
}

// cursorTask returns the task under the cursor.
func (m Model) cursorTask() (store.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visibleItems) {
		return store.Task{}, false
	}
	item := m.visibleItems[m.cursor]
	if item.IsSectionHeader || item.Task == nil {
		return store.Task{}, false
	}
	return *item.Task, true
}

// renderDetail renders the markdown detail of the task under the cursor.
func (m *Model) renderDetail() {
	t, ok := m.cursorTask()
	if !ok {
		m.detail = ""
		return
	}
	md := taskMarkdown(t, m.state.HasActive() && m.state.ActiveID == t.ID)
	if m.glamourRenderer == nil {
		m.detail = md
		return
	}
	rendered, err := m.glamourRenderer.Render(md)
	if err != nil {
		m.detail = md
		return
	}
	m.detail = strings.TrimRight(rendered, "\n ")
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width has changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	style := "dark"
	if m.opts.NoColor {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Debug("glamour renderer unavailable", "err", err)
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

// setStatus shows msg in the header until it times out or esc is pressed.
func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusSeq++
	m.statusMsg = msg
	m.statusIsErr = false
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) setError(err error) tea.Cmd {
	cmd := m.setStatus("Error: " + err.Error())
	m.statusIsErr = true
	return cmd
}

// taskMarkdown builds the detail panel for a task.
func taskMarkdown(t store.Task, active bool) string {
	var md strings.Builder
	md.WriteString("# " + displayName(&t) + "\n\n")

	meta := []string{"**Status:** " + string(t.Status), "**Budget:** " + t.Budget.String()}
	if active {
		meta = append(meta, "**Tracking**")
	}
	md.WriteString(strings.Join(meta, " | ") + "\n\n")

	md.WriteString("- Spent: " + budget.MustFormat(t.Budget.SpentHours()) + "\n")
	md.WriteString("- Remaining: " + budget.MustFormat(t.Budget.RemainingHours()) + "\n")
	md.WriteString(fmt.Sprintf("- Used: %d%%\n", int(t.Budget.Percentage())))
	if t.Budget.Overrun() {
		over := (t.Budget.SpentSeconds - t.Budget.AllocatedSeconds()) / budget.SecondsPerHour
		md.WriteString("- Over budget by " + budget.MustFormat(over) + "\n")
	}
	if !t.CreatedAt.IsZero() {
		md.WriteString("- Created: " + t.CreatedAt.Format("2006-01-02 15:04") + "\n")
	}
	return md.String()
}

func formatDurations(d timer.Durations) string {
	return fmt.Sprintf("%s work / %s break", shortDuration(d.Work), shortDuration(d.Break))
}

// shortDuration renders whole minutes as "25m" and anything else as-is.
func shortDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		return strconv.Itoa(int(d/time.Minute)) + "m"
	}
	return d.String()
}

// formatClock renders a countdown as mm:ss, or h:mm:ss past an hour.
func formatClock(d time.Duration) string {
	secs := max(0, int(d/time.Second))
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
