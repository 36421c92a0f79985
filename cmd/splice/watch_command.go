package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"splice/internal/preflight"
	"splice/internal/services"
	"splice/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch [catalog...]",
		Short: "Synchronize catalogs in a loop until every task fails or Ctrl-C",
		Long: `Run each catalog's configured mode repeatedly.

Catalogs are processed one after another with runner.interval_seconds between
them. A catalog that fails is disabled for the rest of the session and an
alert is sent through ntfy. The command exits once no catalog remains enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalogs, err := ctx.catalogsFor(args)
			if err != nil {
				return err
			}
			scoped := *cfg
			scoped.Catalogs = catalogs
			if failed := preflight.Failed(preflight.RunStorage(&scoped)); len(failed) > 0 {
				var lines []string
				for _, r := range failed {
					lines = append(lines, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				}
				return services.Wrap(services.ErrConfiguration, "cli", "preflight",
					"preflight checks failed:\n  "+strings.Join(lines, "\n  "), nil)
			}
			svc, err := ctx.catalogService()
			if err != nil {
				return err
			}
			registry := workflow.NewRegistry()
			if err := workflow.RegisterCatalogs(registry, catalogs, svc); err != nil {
				return err
			}
			if interval <= 0 {
				interval = time.Duration(cfg.Runner.IntervalSeconds) * time.Second
			}
			runner := workflow.NewRunner(registry, ctx.notifier(), interval, ctx.logger())
			if err := runner.Run(cmd.Context()); err != nil {
				return err
			}
			printTaskSnapshot(cmd, registry.Snapshot())
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Pause between tasks (default runner.interval_seconds)")
	return cmd
}

func printTaskSnapshot(cmd *cobra.Command, tasks []workflow.TaskStatus) {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		last := task.LastSummary
		if task.LastError != "" {
			last = task.LastError
		}
		rows = append(rows, []string{task.Name, string(task.State), fmt.Sprint(task.Runs), formatTimestamp(task.LastRun), dashIfEmpty(last)})
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable(
		[]column{textCol("Task"), textCol("State"), numCol("Runs"), textCol("Last run"), textCol("Last result")},
		rows,
	))
	fmt.Fprintln(cmd.OutOrStdout())
}
