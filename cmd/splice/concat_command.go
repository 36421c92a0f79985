package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"splice/internal/catalog"
	"splice/internal/encoding"
	"splice/internal/ledger"
	"splice/internal/scanner"
	"splice/internal/services"
)

type concatOptions struct {
	catalog string
	stt     string
	folder  string
	output  string
}

func newConcatCommand(ctx *commandContext) *cobra.Command {
	var opts concatOptions

	cmd := &cobra.Command{
		Use:   "concat [clip...] --output <file>",
		Short: "Normalize clips and join them into one file",
		Long: `Normalize clips to the configured encoding profile and join them in order.

Clips come from exactly one source:
  --catalog NAME --stt 1,4,7   ledger rows, in the order listed
  --folder DIR                 every video under DIR, ordered by file name
  clip...                      explicit paths, in argument order`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := ctx.concatInputs(cmd, opts, args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			pipeline, err := encoding.NewPipeline(cfg, st, ctx.notifier(), ctx.logger())
			if err != nil {
				return err
			}
			result, err := pipeline.Run(cmd.Context(), encoding.RunRequest{
				Catalog: opts.catalog,
				Inputs:  inputs,
				Output:  opts.output,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined %d clips into %s (%s, %s, run %s)\n",
				result.Segments, result.Output, result.Codec, formatDuration(result.Elapsed), result.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.catalog, "catalog", "", "Catalog whose ledger --stt refers to")
	cmd.Flags().StringVar(&opts.stt, "stt", "", "Comma-separated ledger sequence numbers")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "Join every video in this directory")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Destination file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *commandContext) concatInputs(cmd *cobra.Command, opts concatOptions, args []string) ([]string, error) {
	sources := 0
	if strings.TrimSpace(opts.stt) != "" {
		sources++
	}
	if strings.TrimSpace(opts.folder) != "" {
		sources++
	}
	if len(args) > 0 {
		sources++
	}
	if sources != 1 {
		return nil, services.Wrap(services.ErrValidation, "cli", "select clips",
			"choose exactly one of --stt, --folder, or clip arguments", nil)
	}

	switch {
	case opts.stt != "":
		return c.resolveSequences(cmd, opts)
	case opts.folder != "":
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		files, err := scanner.Scan(opts.folder, scanner.Options{
			Extensions:     cfg.Scan.Extensions,
			ExcludeMarkers: cfg.Scan.ExcludeMarkers,
			Logger:         c.logger(),
		})
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, services.Wrap(services.ErrValidation, "cli", "select clips",
				fmt.Sprintf("no videos found under %s", opts.folder), nil)
		}
		scanner.SortByBaseName(files)
		return files, nil
	default:
		return args, nil
	}
}

func (c *commandContext) resolveSequences(cmd *cobra.Command, opts concatOptions) ([]string, error) {
	if strings.TrimSpace(opts.catalog) == "" {
		return nil, services.Wrap(services.ErrValidation, "cli", "select clips", "--stt requires --catalog", nil)
	}
	cat, err := c.catalog(opts.catalog)
	if err != nil {
		return nil, err
	}
	seqs, rejected := catalog.ParseSequenceList(opts.stt)
	if len(rejected) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "ignoring invalid sequence numbers: %s\n", strings.Join(rejected, ", "))
	}
	l, _, err := ledger.Read(cat.Ledger, c.logger())
	if err != nil {
		return nil, err
	}
	sel, err := catalog.Resolve(l, seqs, c.logger())
	if err != nil {
		return nil, err
	}
	if len(sel.Missing) > 0 {
		missing := make([]string, len(sel.Missing))
		for i, seq := range sel.Missing {
			missing[i] = fmt.Sprint(seq)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "not in %s ledger: %s\n", cat.Name, strings.Join(missing, ", "))
	}
	return sel.Paths, nil
}
