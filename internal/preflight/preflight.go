package preflight

import (
	"context"
	"strings"

	"profscreen/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Optional paths are only checked when configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Work directory (always checked)
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))

	// Report destination
	results = append(results, CheckOutputPath(cfg.Pipeline.OutputPath))

	// Lexicon (when configured)
	if strings.TrimSpace(cfg.Pipeline.LexiconPath) != "" {
		results = append(results, CheckLexicon(cfg.Pipeline.LexiconPath, cfg.Pipeline.Language))
	}

	// Run history (when enabled)
	if strings.TrimSpace(cfg.Paths.HistoryDB) != "" {
		results = append(results, CheckHistory(ctx, cfg.Paths.HistoryDB))
	}

	results = append(results, CheckEngine(ctx, cfg))
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
