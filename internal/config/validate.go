package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.RawRoot == "" {
		return errors.New("paths.raw_root must be set")
	}
	if c.Paths.DataRoot == "" {
		return errors.New("paths.data_root must be set")
	}
	if c.Paths.RawRoot == c.Paths.DataRoot {
		return errors.New("paths.raw_root and paths.data_root must differ")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.SettleSeconds < 0 {
		return errors.New("ingest.settle_seconds must not be negative")
	}
	if c.Ingest.QuarantineMaxPerDay < 0 {
		return errors.New("ingest.quarantine_max_per_day must not be negative")
	}
	if c.Ingest.Workers < 1 {
		return errors.New("ingest.workers must be at least 1")
	}
	if c.Ingest.ClockSkewToleranceSeconds < 0 {
		return errors.New("ingest.clock_skew_tolerance_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
