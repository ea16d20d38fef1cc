package testsupport

import (
	"path/filepath"
	"testing"

	"siphon/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RawRoot = filepath.Join(base, "raw")
	cfg.Paths.DataRoot = filepath.Join(base, "data")
	cfg.Ingest.SettleSeconds = 0
	cfg.Ingest.Workers = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSettleSeconds overrides the settle window on the test config.
func WithSettleSeconds(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.SettleSeconds = seconds
	}
}

// WithWorkers overrides the ingest worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.Workers = workers
	}
}

// WithQuarantineCap overrides the per-day quarantine cap on the test config.
func WithQuarantineCap(max int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.QuarantineMaxPerDay = max
	}
}
