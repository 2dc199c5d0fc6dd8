package preflight

import (
	"os"
	"path/filepath"

	"voicescribe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks applicable to the given config.
// Checks for optional features run only when the feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	workDir := cfg.Transcription.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	results = append(results, CheckCreatableDirectory("Work directory", workDir))

	if cfg.Logging.Dir != "" {
		results = append(results, CheckCreatableDirectory("Log directory", cfg.Logging.Dir))
	}

	if cfg.History.Enabled {
		results = append(results, CheckCreatableDirectory("History directory", filepath.Dir(cfg.History.Path)))
	}

	if cfg.Engine.LockFile != "" {
		results = append(results, CheckEngineLock(cfg.Engine.LockFile))
	}

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
