package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	ExportDir string `toml:"export_dir"`
}

// Similarity contains the duplicate and club misspelling scan weights.
type Similarity struct {
	// DefaultThreshold is used by scans that do not pass an explicit threshold (0-100).
	DefaultThreshold float64 `toml:"default_threshold"`
	// BirthYearBonus is added when both runners carry the same birth year.
	BirthYearBonus float64 `toml:"birth_year_bonus"`
	// ClubBonus is added when both runners name the same club.
	ClubBonus float64 `toml:"club_bonus"`
	// Blocking restricts comparisons to runners sharing a last-name initial or birth year.
	Blocking bool `toml:"blocking"`
	// ShortClubNameLength is the length at or below which only distance-1 club pairs are reported.
	ShortClubNameLength int `toml:"short_club_name_length"`
}

// Import contains bulk import settings.
type Import struct {
	DefaultNationality string `toml:"default_nationality"`
	ProgressInterval   int    `toml:"progress_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for runnerdb.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Similarity Similarity `toml:"similarity"`
	Import     Import     `toml:"import"`
	Logging    Logging    `toml:"logging"`
}

// ConfigEnv names a config file to use when no explicit path is given.
const ConfigEnv = "RUNNERDB_CONFIG"

// Load reads the config file at path, or the first existing file among
// $RUNNERDB_CONFIG, ~/.config/runnerdb/config.toml, and ./runnerdb.toml when
// path is empty. Missing files fall back to defaults. It returns the config,
// the file consulted, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	source, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		if err := decodeFile(source, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, source, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	dec := toml.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate picks the config file to read. An explicit path is used even when
// the file is missing so "config validate" can report where it looked.
func locate(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := expandPath("runnerdb.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		exists, err := isFile(candidate)
		if err != nil {
			return "", false, err
		}
		if exists {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}
