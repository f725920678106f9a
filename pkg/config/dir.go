package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the config directory.
const AppName = "pomo"

// DefaultDir returns the OS-appropriate default config directory for pomo.
//
//   - macOS:   ~/Library/Application Support/pomo
//   - Linux:   $XDG_CONFIG_HOME/pomo (fallback ~/.config/pomo)
//   - Windows: %APPDATA%\pomo (fallback %LOCALAPPDATA%\pomo)
func DefaultDir() string {
	return defaultDirForOS(runtime.GOOS)
}

func defaultDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, AppName)
		}
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, AppName)
		}
		return filepath.Join(home, AppName)
	default: // linux, freebsd, etc.
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return filepath.Join(dir, AppName)
		}
		return filepath.Join(home, ".config", AppName)
	}
}

// Path resolves the config file: an explicit path wins, then $POMO_CONFIG,
// then config.yaml in DefaultDir.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("POMO_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), fileName)
}
