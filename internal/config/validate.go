package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSimilarity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSimilarity() error {
	s := c.Similarity
	if s.DefaultThreshold < 0 || s.DefaultThreshold > 100 {
		return errors.New("similarity.default_threshold must be between 0 and 100")
	}
	if s.BirthYearBonus < 0 {
		return errors.New("similarity.birth_year_bonus must be >= 0")
	}
	if s.ClubBonus < 0 {
		return errors.New("similarity.club_bonus must be >= 0")
	}
	if s.ShortClubNameLength < 0 {
		return errors.New("similarity.short_club_name_length must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
