package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/pomo/pkg/budget"
	"github.com/stefanpenner/pomo/pkg/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	// Status colors aligned with the TUI section headers.
	statusStyles = map[string]lipgloss.Style{
		string(store.StatusTodo):       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		string(store.StatusInProgress): lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(store.StatusCompleted):  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
)

// BarWidth is the width of the budget bar in table output.
const BarWidth = 10

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	overStyle = lipgloss.NewStyle()
	barStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
}

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []store.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}

	const pad = 2
	idW, statusW, titleW, budgetW := 4, 8, 5, 8
	for _, t := range tasks {
		idW = max(idW, len(strconv.Itoa(t.ID))+pad)
		statusW = max(statusW, len(t.Status)+pad)
		titleW = max(titleW, min(len(t.Title)+pad, 50)) //nolint:mnd // max title column width
		budgetW = max(budgetW, len(t.Budget.String())+pad)
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %s",
		idW, "ID", statusW, "STATUS", titleW, "TITLE", budgetW, "BUDGET", "USED")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, t := range tasks {
		title := t.Title
		const maxTitle = 48
		if len(title) > maxTitle {
			title = title[:maxTitle-3] + "..."
		}
		row := fmt.Sprintf("%-*d %s %s %s %s",
			idW, t.ID,
			padRight(styledValue(string(t.Status), statusStyles), statusW),
			padRight(title, titleW),
			padRight(t.Budget.String(), budgetW),
			usage(t.Budget))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail.
func TaskDetail(w io.Writer, t store.Task) {
	titleLine := fmt.Sprintf("Task #%d: %s", t.ID, t.Title)
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Status", styledValue(string(t.Status), statusStyles))
	printField(w, "Allocated", budget.MustFormat(t.Budget.AllocatedHours))
	printField(w, "Spent", budget.MustFormat(t.Budget.SpentHours()))
	printField(w, "Remaining", budget.MustFormat(t.Budget.RemainingHours()))
	printField(w, "Used", usage(t.Budget))
	if !t.CreatedAt.IsZero() {
		printField(w, "Created", t.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !t.UpdatedAt.IsZero() {
		printField(w, "Updated", t.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

// StatsTable renders task statistics as a small dashboard.
func StatsTable(w io.Writer, s store.Statistics) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Statistics"))
	fmt.Fprintf(w, "Total: %d tasks, %s spent\n\n", s.TotalTasks, budget.MustFormat(s.TotalHoursSpent))

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %6s", "STATUS", "COUNT")))
	const statusColW = 16
	for _, row := range []struct {
		status store.Status
		count  int
	}{
		{store.StatusTodo, s.TodoTasks},
		{store.StatusInProgress, s.InProgressTasks},
		{store.StatusCompleted, s.CompletedTasks},
	} {
		fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(string(row.status), statusStyles), statusColW), row.count)
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// Bar renders a fixed-width fill bar for a percentage in [0, 100].
func Bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// usage renders "███░░░░░░░ 30%", flagged when the budget is overrun.
func usage(b budget.Budget) string {
	s := barStyle.Render(Bar(b.Percentage(), BarWidth)) + " " + percent(b)
	if b.Overrun() {
		s += " " + overStyle.Render("over")
	}
	return s
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
