package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"splice/internal/catalog"
	"splice/internal/config"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [catalog...]",
		Short: "Run each catalog's configured mode once",
		Long: `Synchronize ledgers with their shares.

Catalogs in allocate mode gain the next numbered files; catalogs in rebuild
mode are rewritten to mirror the share. With no arguments every configured
catalog is processed in file order and the first failure stops the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogs, err := ctx.catalogsFor(args)
			if err != nil {
				return err
			}
			svc, err := ctx.catalogService()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, cat := range catalogs {
				outcome, err := svc.Sync(cmd.Context(), cat)
				if err != nil {
					return fmt.Errorf("%s: %w", cat.Name, err)
				}
				fmt.Fprintln(out, outcome.Summary())
			}
			return nil
		},
	}
}

func newAllocateCommand(ctx *commandContext) *cobra.Command {
	var batch int
	var keyword string
	var match string

	cmd := &cobra.Command{
		Use:   "allocate <catalog>",
		Short: "Append the next numbered files to a catalog's ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.catalog(args[0])
			if err != nil {
				return err
			}
			cat.Mode = config.ModeAllocate
			if batch > 0 {
				cat.BatchSize = batch
			}
			if keyword != "" {
				cat.Keyword = keyword
			}
			if match != "" {
				cat.Match = match
			}
			return runSync(cmd, ctx, cat)
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "Sequence numbers to look ahead (default catalogs.batch_size)")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Override the catalog keyword")
	cmd.Flags().StringVar(&match, "match", "", "Match numbers against clip names (file) or top-level folder names (folder)")
	return cmd
}

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	var minDuration time.Duration

	cmd := &cobra.Command{
		Use:   "rebuild <catalog>",
		Short: "Rewrite a catalog's ledger from its share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.catalog(args[0])
			if err != nil {
				return err
			}
			cat.Mode = config.ModeRebuild
			if minDuration > 0 {
				cat.MinDurationSeconds = int(minDuration.Seconds())
			}
			return runSync(cmd, ctx, cat)
		},
	}
	cmd.Flags().DurationVar(&minDuration, "min-duration", 0, "Drop clips shorter than this (default catalogs.min_duration_seconds)")
	return cmd
}

func runSync(cmd *cobra.Command, ctx *commandContext, cat config.Catalog) error {
	svc, err := ctx.catalogService()
	if err != nil {
		return err
	}
	outcome, err := svc.Sync(cmd.Context(), cat)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, outcome.Summary())
	if outcome.Allocate != nil {
		printAllocateDetail(cmd, outcome.Allocate)
	}
	return nil
}

func printAllocateDetail(cmd *cobra.Command, report *catalog.AllocateReport) {
	out := cmd.OutOrStdout()
	for _, asset := range report.Added {
		fmt.Fprintf(out, "  + %d %s (%s)\n", asset.Sequence, asset.Path, asset.Duration)
	}
	for _, skip := range report.Duplicates {
		fmt.Fprintf(out, "  = %d %s already registered\n", skip.Sequence, skip.Path)
	}
}
