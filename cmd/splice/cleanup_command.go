package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"splice/internal/logging"
	"splice/internal/staging"
	"splice/internal/store"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var orphaned bool
	var failStale bool
	var probeCache bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove leftover run directories and old logs",
		Long: `Remove run directories left behind by interrupted concat runs.

By default only run directories older than --max-age are removed.
--orphaned removes every run directory whose run is not recorded as running.
--fail-stale marks runs still recorded as running as failed; use it only when
no other splice process is active. Log files older than
logging.retention_days are pruned on every invocation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			logger := ctx.logger()
			out := cmd.OutOrStdout()

			var failedRuns int64
			if failStale {
				failedRuns, err = st.FailStaleRuns(cmd.Context(), "interrupted; marked failed by cleanup")
				if err != nil {
					return err
				}
			}

			var result staging.CleanStaleResult
			if orphaned {
				active, err := activeRuns(cmd, st)
				if err != nil {
					return err
				}
				result = staging.CleanOrphaned(cmd.Context(), cfg.Paths.WorkDir, active, logger)
			} else {
				result = staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logger)
			}

			prunedLogs := logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: "*.log*",
				Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
			})

			var clearedProbes int64
			if probeCache {
				clearedProbes, err = st.ClearProbes(cmd.Context())
				if err != nil {
					return err
				}
			}

			if asJSON {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{
					"removed":        len(result.Removed),
					"errors":         errs,
					"failed_runs":    failedRuns,
					"pruned_logs":    len(prunedLogs),
					"cleared_probes": clearedProbes,
				})
			}

			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, e := range result.Errors {
				fmt.Fprintf(out, "Failed to remove %s: %v\n", e.Path, e.Error)
			}
			fmt.Fprintf(out, "Run directories removed: %d\n", len(result.Removed))
			if failStale {
				fmt.Fprintf(out, "Runs marked failed: %d\n", failedRuns)
			}
			fmt.Fprintf(out, "Log files pruned: %d\n", len(prunedLogs))
			if probeCache {
				fmt.Fprintf(out, "Probe cache entries cleared: %d\n", clearedProbes)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d run directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Remove run directories older than this")
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "Remove every run directory not owned by a running run")
	cmd.Flags().BoolVar(&failStale, "fail-stale", false, "Mark runs still recorded as running as failed")
	cmd.Flags().BoolVar(&probeCache, "probe-cache", false, "Clear cached clip durations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func activeRuns(cmd *cobra.Command, st *store.Store) (map[string]struct{}, error) {
	runs, err := st.ListRuns(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{})
	for _, run := range runs {
		if run.Status == store.RunStatusRunning {
			active[run.ID] = struct{}{}
		}
	}
	return active, nil
}
