package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"siphon/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
raw_root = "`+filepath.Join(base, "raw")+`"
data_root = "`+filepath.Join(base, "data")+`"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected config file to be reported as existing at %s", resolved)
	}
	if cfg.Ingest.SettleSeconds != 120 {
		t.Errorf("settle_seconds default = %d, want 120", cfg.Ingest.SettleSeconds)
	}
	if cfg.Ingest.QuarantineMaxPerDay != 1000 {
		t.Errorf("quarantine_max_per_day default = %d, want 1000", cfg.Ingest.QuarantineMaxPerDay)
	}
	if cfg.Ingest.Workers != 4 {
		t.Errorf("workers default = %d, want 4", cfg.Ingest.Workers)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
raw_root = "`+filepath.Join(base, "raw")+`"
data_root = "`+filepath.Join(base, "data")+`"

[ingest]
settle_seconds = 300
`)

	t.Setenv("SIPHON_INGEST__SETTLE_SECONDS", "30")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Ingest.SettleSeconds != 30 {
		t.Errorf("settle_seconds = %d, want env override 30", cfg.Ingest.SettleSeconds)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	base := t.TempDir()
	cases := []struct {
		name string
		body string
	}{
		{"negative settle", "[ingest]\nsettle_seconds = -1\n"},
		{"zero workers", "[ingest]\nworkers = 0\n"},
		{"bad level", "[logging]\nlevel = \"verbose\"\n"},
		{"bad format", "[logging]\nformat = \"xml\"\n"},
	}
	header := "[paths]\nraw_root = \"" + filepath.Join(base, "raw") + "\"\ndata_root = \"" + filepath.Join(base, "data") + "\"\n"
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, header+tc.body)
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RawRoot = filepath.Join(base, "raw")
	cfg.Paths.DataRoot = filepath.Join(base, "data")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.WarehouseDir(), cfg.SilverDir(), cfg.StateDir(), cfg.QuarantineDir(), cfg.RunLogsDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.RawRoot); !os.IsNotExist(err) {
		t.Error("EnsureDirectories must not create raw_root")
	}
}
