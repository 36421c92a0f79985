package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"splice/internal/ledger"
	"splice/internal/preflight"
	"splice/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tool, directory, and catalog readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := newStatusReport(cmd.OutOrStdout())

			report.section("Tools")
			report.tools(preflight.CheckSystemDeps(cfg))

			report.section("Checks")
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				report.add(result.Name, kind, result.Detail)
			}

			report.section("Catalogs")
			if len(cfg.Catalogs) == 0 {
				report.add("Catalogs", statusWarn, "none configured")
			}
			for _, cat := range cfg.Catalogs {
				l, _, err := ledger.Read(cat.Ledger, ctx.logger())
				if err != nil {
					report.add(cat.Name, statusError, err.Error())
					continue
				}
				kind := statusOK
				if l.Len() == 0 {
					kind = statusInfo
				}
				report.add(cat.Name, kind, fmt.Sprintf("%s, %d rows, last stt %d", cat.Mode, l.Len(), max(l.MaxSequence(), l.LastSequence())))
			}

			report.section("Work directory")
			dirs, err := staging.ListDirectories(cfg.Paths.WorkDir)
			switch {
			case err != nil:
				report.add("Run dirs", statusError, err.Error())
			case len(dirs) == 0:
				report.add("Run dirs", statusOK, "0 (0 B)")
			default:
				var total int64
				for _, dir := range dirs {
					total += dir.Size
				}
				report.add("Run dirs", statusWarn, fmt.Sprintf("%d (%s)", len(dirs), formatBytes(total)))
				report.note("Failed or interrupted runs keep their intermediates; `splice cleanup --orphaned` removes them")
			}
			if st, err := ctx.openStore(); err != nil {
				report.add("Probe cache", statusError, err.Error())
			} else if n, err := st.CountProbes(cmd.Context()); err != nil {
				report.add("Probe cache", statusError, err.Error())
			} else {
				report.add("Probe cache", statusInfo, fmt.Sprintf("%d entries", n))
			}

			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
}
