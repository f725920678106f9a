package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/pomo/pkg/store"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, 25*time.Minute, cfg.Durations().Work)
	assert.Equal(t, 5*time.Minute, cfg.Durations().Break)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, store.DefaultTimeout, cfg.Timeout())

	src, err := cfg.Credential()
	require.NoError(t, err)
	assert.Nil(t, src, "no credential is configured by default")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: https://tasks.example.com/api
auth:
  scheme: token
  token: abc
timer:
  work_minutes: 50
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://tasks.example.com/api", cfg.Server.URL)
	assert.Equal(t, 50, cfg.Timer.WorkMinutes)
	assert.Equal(t, 5, cfg.Timer.BreakMinutes)
	assert.Equal(t, "hours", cfg.Server.TimeSpentUnit)

	src, err := cfg.Credential()
	require.NoError(t, err)
	tok, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "Token", tok.Type())
	assert.Equal(t, "abc", tok.AccessToken)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timer: [unclosed"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Timer.BreakMinutes = 10
	cfg.Auth.Username = "admin"
	cfg.Auth.Password = "pw"

	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("POMO_SERVER_URL", "http://10.0.0.2:8000/api")
	t.Setenv("POMO_USERNAME", "alice")
	t.Setenv("POMO_PASSWORD", "secret")
	t.Setenv("POMO_TOKEN", "")
	t.Setenv("POMO_AUTH_SCHEME", "")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "http://10.0.0.2:8000/api", cfg.Server.URL)
	assert.Equal(t, "alice", cfg.Auth.Username)
	assert.Equal(t, "secret", cfg.Auth.Password)
	assert.Equal(t, store.SchemeBasic, cfg.Auth.Scheme)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Server.URL = "localhost:8000"
	cfg.Server.TimeSpentUnit = "minutes"
	cfg.Timer.WorkMinutes = 0
	cfg.Timer.BreakMinutes = 31
	cfg.Sound.Mode = "command"
	cfg.Auth.Scheme = "bearer"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"server.url",
		"time_spent_unit",
		"auth.token",
		"timer.work_minutes",
		"timer.break_minutes",
		"sound.command",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Auth.Token = "tok"
	cfg.Auth.Password = "pw"

	r := cfg.Redacted()
	assert.Equal(t, "********", r.Auth.Token)
	assert.Equal(t, "********", r.Auth.Password)
	assert.Equal(t, "tok", cfg.Auth.Token, "the original is untouched")
}

func TestLogFile(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/etc/pomo", "pomo.log"), cfg.LogFile("/etc/pomo/config.yaml"))

	cfg.Log.File = "/var/log/pomo.log"
	assert.Equal(t, "/var/log/pomo.log", cfg.LogFile("/etc/pomo/config.yaml"))
}
