package preflight

import (
	"context"

	"channelgrab/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks for the given config. Tool checks
// are reported separately by CheckTools.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCredential("TikHub API key", cfg.Catalog.APIKey, "set "+config.EnvAPIKey+" or catalog.api_key"),
		CheckReachable(ctx, "Keystream service", cfg.Keystream.BaseURL),
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
