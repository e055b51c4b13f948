// Package paths resolves where the metastore tools keep configuration and
// data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user platform directories.
const appName = "metastore"

// CWD-relative directory names used when nothing else is configured.
const (
	DefaultConfigDirName = ".metastore"
	DefaultDataDirName   = ".metastore-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "METASTORE_CONFIG_DIR"
	EnvDataDir   = "METASTORE_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir returns $env/metastore, or home/fallback.../metastore when env is
// unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

func platformUserDir() (string, error) {
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/metastore (fallback ~/.config/metastore)
// macOS:   ~/Library/Application Support/metastore
// Windows: %APPDATA%/metastore
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	return platformUserDir()
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/metastore (fallback ~/.local/share/metastore)
// macOS and Windows: same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
	return platformUserDir()
}

// ResolveConfigDir returns the configuration directory: flag, then
// METASTORE_CONFIG_DIR, then ./.metastore.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Abs(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory: flag, then the config file
// value, then METASTORE_DATA_DIR, then ./.metastore-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return filepath.Abs(DefaultDataDirName)
}
