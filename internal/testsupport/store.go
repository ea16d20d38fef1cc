package testsupport

import (
	"testing"

	"siphon/internal/config"
	"siphon/internal/store"
)

// MustOpenStore opens a warehouse store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
