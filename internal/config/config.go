package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the two filesystem roots siphon works with. raw_root is
// producer-owned and read-only; data_root holds everything siphon writes.
type Paths struct {
	RawRoot  string `toml:"raw_root" env:"RAW_ROOT"`
	DataRoot string `toml:"data_root" env:"DATA_ROOT"`
}

// Ingest contains ingestion behaviour and safety limits.
type Ingest struct {
	// Files modified within this window are skipped to avoid reading mid-write.
	SettleSeconds int `toml:"settle_seconds" env:"SETTLE_SECONDS"`
	// Caps quarantine records per calendar day so a misconfigured producer
	// cannot fill the disk.
	QuarantineMaxPerDay int `toml:"quarantine_max_per_day" env:"QUARANTINE_MAX_PER_DAY"`
	// Number of files processed concurrently within one run.
	Workers int `toml:"workers" env:"WORKERS"`
	// Events timestamped further than this ahead of the wall clock are rejected.
	ClockSkewToleranceSeconds int `toml:"clock_skew_tolerance_seconds" env:"CLOCK_SKEW_TOLERANCE_SECONDS"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"`
}

// Config encapsulates all configuration values for siphon.
type Config struct {
	Paths   Paths   `toml:"paths" envPrefix:"PATHS__"`
	Ingest  Ingest  `toml:"ingest" envPrefix:"INGEST__"`
	Logging Logging `toml:"logging" envPrefix:"LOGGING__"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/siphon/config.toml")
}

// SampleConfig returns the annotated sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file, then applies
// SIPHON_* environment overrides. The returned config has all path fields
// expanded and normalized. The second return is the resolved config path and
// the third reports whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SIPHON_"}); err != nil {
		return nil, "", false, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("siphon.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WarehouseDir holds the canonical SQLite database.
func (c *Config) WarehouseDir() string {
	return filepath.Join(c.Paths.DataRoot, "warehouse")
}

// SilverDir holds the partitioned parquet dataset.
func (c *Config) SilverDir() string {
	return filepath.Join(c.Paths.DataRoot, "silver")
}

// StateDir holds the run lock.
func (c *Config) StateDir() string {
	return filepath.Join(c.Paths.DataRoot, "state")
}

// QuarantineDir holds rejected JSONL lines, partitioned by calendar day.
func (c *Config) QuarantineDir() string {
	return filepath.Join(c.Paths.DataRoot, "quarantine", "invalid_jsonl")
}

// RunLogsDir holds per-run structured log files.
func (c *Config) RunLogsDir() string {
	return filepath.Join(c.Paths.DataRoot, "run_logs")
}

// SettleWindow returns the settle window as a duration.
func (c *Config) SettleWindow() time.Duration {
	return time.Duration(c.Ingest.SettleSeconds) * time.Second
}

// ClockSkewTolerance returns the clock-skew rejection threshold as a duration.
func (c *Config) ClockSkewTolerance() time.Duration {
	return time.Duration(c.Ingest.ClockSkewToleranceSeconds) * time.Second
}

// EnsureDirectories creates every siphon-managed output directory. It never
// touches raw_root, which belongs to the producers.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.WarehouseDir(),
		c.SilverDir(),
		c.StateDir(),
		c.QuarantineDir(),
		c.RunLogsDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if pathValue[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
