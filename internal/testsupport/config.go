package testsupport

import (
	"path/filepath"
	"testing"

	"pharmatrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp directory per test.
// The returned config has all run directories created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithCustomers replaces the registry on the test config.
func WithCustomers(customers ...config.Customer) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Customers = customers
	}
}

// WithExcludedSalts replaces the salt exclusion list on the test config.
func WithExcludedSalts(salts ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ExcludedSalts = salts
	}
}
