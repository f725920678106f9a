// Package cli implements the pomo command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/pomo/pkg/clierr"
	"github.com/stefanpenner/pomo/pkg/config"
	"github.com/stefanpenner/pomo/pkg/output"
	"github.com/stefanpenner/pomo/pkg/store"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagJSON     bool
	flagTable    bool
	flagCompact  bool
	flagNoColor  bool
	flagDemo     bool
	flagConfig   string
	flagServer   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pomo",
	Short: "Pomodoro timer that books focused time against your tasks",
	Long: `pomo runs a work/break countdown in the terminal. Select a task and every
second of work time is added to that task's budget on the task server.
Run pomo with no arguments to open the timer.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runTUI,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVar(&flagDemo, "demo", false, "use an in-memory demo task list instead of the server")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: $POMO_CONFIG or the OS config dir)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "task API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command tree for args and returns the exit code.
// Errors are written as a JSON envelope to stdout in JSON mode, as
// plain text to stderr otherwise.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	_, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	err = clierr.FromStore(err)

	if outputFormat() == output.FormatJSON {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			return cliErr.ExitCode()
		}
		output.JSONError(stdout, clierr.InternalError, err.Error(), nil)
		return 2 //nolint:mnd // exit code 2 for internal errors
	}

	fmt.Fprintln(stderr, "Error:", err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return cliErr.ExitCode()
	}
	return 1
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// configPath resolves the config file from --config, $POMO_CONFIG, or the OS default.
func configPath() string {
	return config.Path(flagConfig)
}

// loadConfig reads the config file and applies environment and flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, clierr.New(clierr.ConfigError, err.Error())
	}
	cfg.ApplyEnv()
	if flagServer != "" {
		cfg.Server.URL = flagServer
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, clierr.Newf(clierr.ConfigError, "invalid config %s: %v", configPath(), err)
	}
	return cfg, nil
}

// newLogger creates a logger writing to w at the configured level.
func newLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, clierr.Newf(clierr.ConfigError, "invalid log level %q", cfg.Log.Level)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "pomo",
		ReportTimestamp: true,
	}), nil
}

// taskStore is what the commands need from a backend.
type taskStore interface {
	store.TaskStore
	Statistics(ctx context.Context) (store.Statistics, error)
}

// openStore returns the demo store or an API client for the configured server.
func openStore(cfg *config.Config, logger *log.Logger) (taskStore, error) {
	if flagDemo {
		logger.Debug("using demo tasks")
		return store.NewMemory(store.DemoTasks()...), nil
	}

	cred, err := cfg.Credential()
	if err != nil {
		return nil, clierr.New(clierr.ConfigError, err.Error())
	}
	unit, err := store.ParseSpentUnit(cfg.Server.TimeSpentUnit)
	if err != nil {
		return nil, clierr.New(clierr.ConfigError, err.Error())
	}
	c, err := store.NewClient(cfg.Server.URL,
		store.WithCredential(cred),
		store.WithTimeout(cfg.Timeout()),
		store.WithSpentUnit(unit),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, clierr.New(clierr.ConfigError, err.Error())
	}
	logger.Debug("using task server", "url", c.BaseURL(), "unit", unit)
	return c, nil
}

// setup loads the config and opens the store for a CLI command, logging to
// the command's stderr.
func setup(cmd *cobra.Command) (taskStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return openStore(cfg, logger)
}

// parseID parses a positive task ID argument.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", s)
	}
	return id, nil
}
