package testsupport

import (
	"path/filepath"
	"testing"

	"gridauto/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Bridge.Socket = filepath.Join(base, "bridge.sock")
	cfg.Case.LockDir = filepath.Join(base, "locks")
	cfg.Snapshot.Path = filepath.Join(base, "snapshots.db")
	cfg.SimAuto.PrefetchTypes = nil

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCasePath sets the case file on the test config.
func WithCasePath(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Case.Path = path
	}
}

// WithSkipFields sets verify skip fields for one object type.
func WithSkipFields(objectType string, fields ...string) ConfigOption {
	return func(cfg *config.Config) {
		if cfg.Verify.SkipFields == nil {
			cfg.Verify.SkipFields = map[string][]string{}
		}
		cfg.Verify.SkipFields[objectType] = fields
	}
}
