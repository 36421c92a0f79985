package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"splice/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show concat run history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				run, err := st.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, run)
				}
				printRunDetail(cmd, run)
				return nil
			}

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					formatTimestamp(run.StartedAt),
					string(run.Status),
					dashIfEmpty(run.Catalog),
					strconv.Itoa(len(run.Inputs)),
					formatDuration(run.Elapsed()),
					run.OutputPath,
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{textCol("Run"), textCol("Started"), textCol("Status"), textCol("Catalog"), numCol("Clips"), numCol("Elapsed"), textCol("Output")},
				rows,
			))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printRunDetail(cmd *cobra.Command, run *store.RunRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Catalog:  %s\n", dashIfEmpty(run.Catalog))
	fmt.Fprintf(out, "Output:   %s\n", run.OutputPath)
	fmt.Fprintf(out, "Started:  %s\n", formatTimestamp(run.StartedAt))
	fmt.Fprintf(out, "Finished: %s\n", formatTimestamp(run.FinishedAt))
	fmt.Fprintf(out, "Elapsed:  %s\n", formatDuration(run.Elapsed()))
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	fmt.Fprintln(out, "Inputs:")
	for i, input := range run.Inputs {
		fmt.Fprintf(out, "  %3d  %s\n", i+1, input)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
