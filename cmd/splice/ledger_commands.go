package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"splice/internal/catalog"
	"splice/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect catalog ledgers",
	}
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerHistoryCommand(ctx))
	return ledgerCmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <catalog>",
		Short: "List ledger rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.catalog(args[0])
			if err != nil {
				return err
			}
			l, report, err := ledger.Read(cat.Ledger, ctx.logger())
			if err != nil {
				return err
			}
			assets := l.Assets()
			if asJSON {
				return writeJSON(cmd, assets)
			}
			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintf(out, "%s ledger is empty (%s)\n", cat.Name, cat.Ledger)
				return nil
			}
			rows := make([][]string, 0, len(assets))
			var runtime time.Duration
			unknown := 0
			for _, asset := range assets {
				if d, ok := catalog.ParseDuration(asset.Duration); ok && d > 0 {
					runtime += d
				} else {
					unknown++
				}
				age := "-"
				if asset.AgeSeconds != nil {
					age = strconv.FormatInt(*asset.AgeSeconds, 10)
				}
				rows = append(rows, []string{strconv.Itoa(asset.Sequence), asset.Path, asset.Duration, age})
			}
			fmt.Fprint(out, renderTable(
				[]column{numCol("STT"), textCol("Path"), numCol("Duration"), numCol("Age (s)")},
				rows,
			))
			fmt.Fprintf(out, "\n%d rows, last stt %d, runtime %s", l.Len(), max(l.MaxSequence(), l.LastSequence()),
				catalog.FormatDuration(runtime.Seconds(), true))
			if unknown > 0 {
				fmt.Fprintf(out, " (%d unknown)", unknown)
			}
			fmt.Fprintln(out)
			if len(report.MissingColumns) > 0 || len(report.Duplicates) > 0 || report.BlankPaths > 0 || report.BadSequences > 0 {
				fmt.Fprintf(out, "Repairs on read: %d missing columns, %d duplicate paths, %d blank paths, %d bad stt values\n",
					len(report.MissingColumns), len(report.Duplicates), report.BlankPaths, report.BadSequences)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newLedgerHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <catalog>",
		Short: "Show recent ledger additions and removals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.catalog(args[0])
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			events, err := st.ListLedgerEvents(cmd.Context(), cat.Name, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintf(out, "No ledger changes recorded for %s\n", cat.Name)
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					formatTimestamp(ev.RecordedAt),
					string(ev.Action),
					strconv.Itoa(ev.Sequence),
					ev.Path,
				})
			}
			fmt.Fprint(out, renderTable(
				[]column{textCol("When"), textCol("Action"), numCol("STT"), textCol("Path")},
				rows,
			))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum events to show")
	return cmd
}
