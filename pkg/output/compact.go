package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/stefanpenner/pomo/pkg/budget"
	"github.com/stefanpenner/pomo/pkg/store"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []store.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// StatsCompact renders statistics on a single line.
func StatsCompact(w io.Writer, s store.Statistics) {
	fmt.Fprintf(w, "tasks:%d todo:%d in-progress:%d completed:%d spent:%s\n",
		s.TotalTasks, s.TodoTasks, s.InProgressTasks, s.CompletedTasks,
		budget.MustFormat(s.TotalHoursSpent))
}

// formatTaskLine renders "#3 [in-progress] Write docs (1h 30m / 4h, 37%)".
func formatTaskLine(t store.Task) string {
	line := "#" + strconv.Itoa(t.ID) + " [" + string(t.Status) + "] " + t.Title +
		" (" + t.Budget.String() + ", " + percent(t.Budget) + ")"
	if t.Budget.Overrun() {
		line += " over"
	}
	return line
}

func percent(b budget.Budget) string {
	return strconv.Itoa(int(b.Percentage())) + "%"
}
