package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/pomo/pkg/budget"
	"github.com/stefanpenner/pomo/pkg/store"
)

func sampleTasks() []store.Task {
	return []store.Task{
		{ID: 1, Title: "Write docs", Status: store.StatusInProgress, Budget: budget.New(4, 5400)},
		{ID: 12, Title: "Ship it", Status: store.StatusCompleted, Budget: budget.New(1, 4500)},
	}
}

func TestDetect(t *testing.T) {
	t.Setenv(EnvVar, "")
	assert.Equal(t, FormatTable, Detect(false, false, false))
	assert.Equal(t, FormatJSON, Detect(true, true, true))
	assert.Equal(t, FormatCompact, Detect(false, true, true))
	assert.Equal(t, FormatTable, Detect(false, true, false))

	t.Setenv(EnvVar, "json")
	assert.Equal(t, FormatJSON, Detect(false, false, false))
	assert.Equal(t, FormatTable, Detect(false, true, false), "flags win over the environment")

	t.Setenv(EnvVar, "oneline")
	assert.Equal(t, FormatCompact, Detect(false, false, false))
}

func TestTaskTable(t *testing.T) {
	var buf bytes.Buffer
	TaskTable(&buf, sampleTasks())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "BUDGET")
	assert.Contains(t, lines[1], "Write docs")
	assert.Contains(t, lines[1], "1h 30m / 4h")
	assert.Contains(t, lines[1], "37%")
	assert.Contains(t, lines[2], "1h 15m / 1h")
	assert.Contains(t, lines[2], "over")
}

func TestTaskTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	TaskTable(&buf, nil)
	assert.Equal(t, "No tasks found.\n", buf.String())
}

func TestTaskCompact(t *testing.T) {
	var buf bytes.Buffer
	TaskCompact(&buf, sampleTasks())
	assert.Equal(t,
		"#1 [in-progress] Write docs (1h 30m / 4h, 37%)\n"+
			"#12 [completed] Ship it (1h 15m / 1h, 100%) over\n",
		buf.String())
}

func TestTaskDetail(t *testing.T) {
	var buf bytes.Buffer
	TaskDetail(&buf, sampleTasks()[0])
	out := buf.String()
	assert.Contains(t, out, "Task #1: Write docs")
	assert.Contains(t, out, "Remaining:")
	assert.Contains(t, out, "2h 30m")
}

func TestStats(t *testing.T) {
	s := store.Statistics{TotalHoursSpent: 2.75, TotalTasks: 3, CompletedTasks: 1, InProgressTasks: 1, TodoTasks: 1}

	var buf bytes.Buffer
	StatsTable(&buf, s)
	assert.Contains(t, buf.String(), "Total: 3 tasks, 2h 45m spent")

	buf.Reset()
	StatsCompact(&buf, s)
	assert.Equal(t, "tasks:3 todo:1 in-progress:1 completed:1 spent:2h 45m\n", buf.String())
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░", Bar(0, 4))
	assert.Equal(t, "██░░", Bar(50, 4))
	assert.Equal(t, "████", Bar(100, 4))
	assert.Equal(t, "████", Bar(250, 4))
}

func TestJSONError(t *testing.T) {
	var buf bytes.Buffer
	JSONError(&buf, "TASK_NOT_FOUND", "task #3 not found", map[string]any{"id": 3})

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "TASK_NOT_FOUND", resp.Code)
	assert.Equal(t, "task #3 not found", resp.Error)
	assert.EqualValues(t, 3, resp.Details["id"])
}
