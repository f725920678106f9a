package tui

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/pomo/pkg/session"
)

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) all() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}

func TestWatcherReportsConfigWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	rec := &recorder{}

	cleanup, err := StartWatcher(path, rec)
	require.NoError(t, err)
	defer cleanup()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pomo.log"), []byte("x"), 0o600))
	time.Sleep(2 * debounce)
	assert.Zero(t, rec.count())

	// A burst of writes is reported once.
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("work_minutes: 30\n"), 0o600))
	}
	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(2 * debounce)
	assert.Equal(t, 1, rec.count())
	assert.IsType(t, ConfigChangedMsg{}, rec.all()[0])
}

func TestWatcherCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cleanup, err := StartWatcher(path, &recorder{})
	require.NoError(t, err)
	cleanup()

	assert.DirExists(t, filepath.Dir(path))
}

func TestEventBridge(t *testing.T) {
	events := make(chan session.Event, 2)
	rec := &recorder{}
	StartEventBridge(events, rec)

	events <- session.Event{Type: session.EventTick}
	events <- session.Event{Type: session.EventCompleted, TaskID: 3}
	close(events)

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 10*time.Millisecond)
	msgs := rec.all()
	assert.Equal(t, EventMsg{Event: session.Event{Type: session.EventTick}}, msgs[0])
	assert.Equal(t, EventMsg{Event: session.Event{Type: session.EventCompleted, TaskID: 3}}, msgs[1])
}
