package preflight

import (
	"context"
	"fmt"

	"splice/internal/config"
	"splice/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory, ledger, hardware, and notification checks
// for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := RunStorage(cfg)
	results = append(results, CheckHardware(cfg, deps.HardwareDetector{}))

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// RunStorage checks the state directories and every catalog's share and
// ledger. A failure here means no catalog task can succeed.
func RunStorage(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}

	for _, cat := range cfg.Catalogs {
		results = append(results,
			CheckReadableDirectory(fmt.Sprintf("%s share", cat.Name), cat.Root),
			CheckLedgerWritable(fmt.Sprintf("%s ledger", cat.Name), cat.Ledger),
		)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
