package testsupport

import (
	"path/filepath"
	"testing"

	"runnerdb/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithThreshold overrides the default duplicate-scan threshold.
func WithThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Similarity.DefaultThreshold = threshold
	}
}

// WithoutBlocking makes duplicate scans compare every pair.
func WithoutBlocking() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Similarity.Blocking = false
	}
}

// WithProgressInterval sets how often the importer reports progress.
func WithProgressInterval(rows int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Import.ProgressInterval = rows
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
