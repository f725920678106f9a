package tui

import (
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/stefanpenner/pomo/pkg/session"
)

// debounce is how long the watcher waits after the last write before
// reporting a change. Editors often write a file in several steps.
const debounce = 200 * time.Millisecond

// Sender delivers messages into a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// StartWatcher watches the config file and sends ConfigChangedMsg when it
// changes. The directory is watched rather than the file so that editors
// which save by renaming a temp file are still seen.
func StartWatcher(configPath string, program Sender) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	name := filepath.Clean(configPath)
	done := make(chan struct{})

	go func() {
		var debounceTimer *time.Timer

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					program.Send(ConfigChangedMsg{})
				})

			case <-watcher.Errors:
				// Watcher errors are not fatal; the TUI works without live reload.

			case <-done:
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()

	cleanup := func() {
		close(done)
		watcher.Close()
	}

	return cleanup, nil
}

// StartEventBridge forwards controller events into the program until the
// controller closes the channel.
func StartEventBridge(events <-chan session.Event, program Sender) {
	go func() {
		for ev := range events {
			program.Send(EventMsg{Event: ev})
		}
	}()
}
