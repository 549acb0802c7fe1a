package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	databaseFileName = "runners.db"
	lockFileName     = "runnerdb.lock"
)

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/runnerdb/config.toml")
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, databaseFileName)
}

// LockPath returns the lock file guarding the data directory against a second owner.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, lockFileName)
}

// EnsureDirectories creates the data, log, and export directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ExportDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading "~" and returns an absolute, cleaned path.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	abs, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return abs, nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
