package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/pomo/pkg/clierr"
	"github.com/stefanpenner/pomo/pkg/config"
	"github.com/stefanpenner/pomo/pkg/session"
	"github.com/stefanpenner/pomo/pkg/sound"
	"github.com/stefanpenner/pomo/pkg/timer"
	"github.com/stefanpenner/pomo/pkg/tui"
)

// eventBuffer is the controller subscription size for the TUI.
const eventBuffer = 64

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := configPath()

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := openLogFile(cfg.LogFile(path))
	if err != nil {
		return clierr.New(clierr.ConfigError, err.Error())
	}
	defer logFile.Close()

	logger, err := newLogger(cfg, logFile)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	notifier, err := sound.New(cfg.Sound.Mode, cfg.Sound.Command, os.Stderr)
	if err != nil {
		return clierr.New(clierr.ConfigError, err.Error())
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ctrl := session.New(st, session.Options{
		Durations:    cfg.Durations(),
		TickInterval: cfg.TickInterval(),
		Notifier:     notifier,
		Logger:       logger,
		Context:      ctx,
	})
	defer ctrl.Close()

	server := cfg.Server.URL
	if flagDemo {
		server = "demo"
	}
	model := tui.NewModel(ctrl, tui.Options{
		Server:          server,
		ReloadDurations: reloadDurations(path),
		NoColor:         flagNoColor || os.Getenv("NO_COLOR") != "",
		Logger:          logger,
		Context:         ctx,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	tui.StartEventBridge(ctrl.Subscribe(eventBuffer), p)

	cleanup, err := tui.StartWatcher(path, p)
	if err != nil {
		logger.Warn("config watcher unavailable", "path", path, "err", err)
	} else {
		defer cleanup()
	}

	logger.Info("tui started", "server", server, "work", cfg.Durations().Work, "break", cfg.Durations().Break)
	_, err = p.Run()
	return err
}

// reloadDurations re-reads the cycle from the config file at path.
func reloadDurations(path string) func() (timer.Durations, error) {
	return func() (timer.Durations, error) {
		cfg, err := config.Load(path)
		if err != nil {
			return timer.Durations{}, err
		}
		if err := cfg.Validate(); err != nil {
			return timer.Durations{}, err
		}
		return cfg.Durations(), nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
