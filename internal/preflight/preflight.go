package preflight

import (
	"runnerdb/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	// Export directory is only needed by export/restore.
	if cfg.Paths.ExportDir != "" {
		results = append(results, CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir))
	}

	results = append(results, CheckStoreLock(cfg.LockPath()))
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
