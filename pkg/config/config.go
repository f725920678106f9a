// Package config loads pomo's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/stefanpenner/pomo/pkg/sound"
	"github.com/stefanpenner/pomo/pkg/store"
	"github.com/stefanpenner/pomo/pkg/timer"
)

const fileName = "config.yaml"

// Config is the on-disk configuration.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Auth   AuthConfig   `yaml:"auth" json:"auth"`
	Timer  TimerConfig  `yaml:"timer" json:"timer"`
	Sound  SoundConfig  `yaml:"sound" json:"sound"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// ServerConfig points at the task API.
type ServerConfig struct {
	URL            string `yaml:"url" json:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	// TimeSpentUnit is the unit of the API's time_spent field: hours or seconds.
	TimeSpentUnit string `yaml:"time_spent_unit" json:"time_spent_unit"`
}

// AuthConfig holds the credential sent with every request.
type AuthConfig struct {
	Scheme   string `yaml:"scheme" json:"scheme"`
	Token    string `yaml:"token,omitempty" json:"token,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// TimerConfig sets the cycle lengths.
type TimerConfig struct {
	WorkMinutes  int `yaml:"work_minutes" json:"work_minutes"`
	BreakMinutes int `yaml:"break_minutes" json:"break_minutes"`
	TickMillis   int `yaml:"tick_millis" json:"tick_millis"`
}

// SoundConfig selects how cues are played.
type SoundConfig struct {
	Mode    string `yaml:"mode" json:"mode"`
	Command string `yaml:"command,omitempty" json:"command,omitempty"`
}

// LogConfig controls the log level and, for the TUI, the log file.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Limits for the timer settings.
const (
	MaxWorkMinutes  = 60
	MaxBreakMinutes = 30
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            store.DefaultBaseURL,
			TimeoutSeconds: int(store.DefaultTimeout / time.Second),
			TimeSpentUnit:  string(store.SpentHours),
		},
		Auth:  AuthConfig{Scheme: store.SchemeBasic},
		Timer: TimerConfig{WorkMinutes: 25, BreakMinutes: 5, TickMillis: 1000},
		Sound: SoundConfig{Mode: sound.ModeBell},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads the config at path. A missing file yields the defaults.
// Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML. The file may hold a credential, so it is
// only readable by the owner.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with POMO_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("POMO_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("POMO_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("POMO_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("POMO_PASSWORD"); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv("POMO_AUTH_SCHEME"); v != "" {
		c.Auth.Scheme = v
	}
}

// Validate reports every problem in the config.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.url %q must be an http(s) URL", c.Server.URL))
	}
	if c.Server.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("server.timeout_seconds must not be negative"))
	}
	if _, err := store.ParseSpentUnit(c.Server.TimeSpentUnit); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if _, err := c.Credential(); err != nil {
		errs = append(errs, err)
	}
	if c.Timer.WorkMinutes < 1 || c.Timer.WorkMinutes > MaxWorkMinutes {
		errs = append(errs, fmt.Errorf("timer.work_minutes must be between 1 and %d", MaxWorkMinutes))
	}
	if c.Timer.BreakMinutes < 0 || c.Timer.BreakMinutes > MaxBreakMinutes {
		errs = append(errs, fmt.Errorf("timer.break_minutes must be between 0 and %d", MaxBreakMinutes))
	}
	if c.Timer.TickMillis < 0 {
		errs = append(errs, errors.New("timer.tick_millis must not be negative"))
	}
	switch strings.ToLower(c.Sound.Mode) {
	case sound.ModeBell, sound.ModeOff, "":
	case sound.ModeCommand:
		if strings.TrimSpace(c.Sound.Command) == "" {
			errs = append(errs, errors.New("sound.command is required when sound.mode is command"))
		}
	default:
		errs = append(errs, fmt.Errorf("sound.mode %q must be bell, command or off", c.Sound.Mode))
	}

	return errors.Join(errs...)
}

// Durations returns the configured cycle.
func (c *Config) Durations() timer.Durations {
	return timer.Durations{
		Work:  time.Duration(c.Timer.WorkMinutes) * time.Minute,
		Break: time.Duration(c.Timer.BreakMinutes) * time.Minute,
	}
}

// TickInterval returns how often the countdown advances.
func (c *Config) TickInterval() time.Duration {
	if c.Timer.TickMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.Timer.TickMillis) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.Server.TimeoutSeconds <= 0 {
		return store.DefaultTimeout
	}
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// Credential builds the token source for the configured auth, nil when none.
func (c *Config) Credential() (oauth2.TokenSource, error) {
	return store.NewCredential(c.Auth.Scheme, c.Auth.Token, c.Auth.Username, c.Auth.Password)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Auth.Token != "" {
		cp.Auth.Token = "********"
	}
	if cp.Auth.Password != "" {
		cp.Auth.Password = "********"
	}
	return &cp
}

// LogFile returns the TUI log path, defaulting next to the config file.
func (c *Config) LogFile(configPath string) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(configPath), AppName+".log")
}
