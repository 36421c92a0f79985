package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"splice/internal/config"
	"splice/internal/encoding"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Add a [[catalogs]] entry for each share before running sync.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := encoding.ProfileFromConfig(cfg.Encoding); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, statErr := os.Stat(ctx.configPath); statErr != nil {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Catalogs: %d\n", len(cfg.Catalogs))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings and configured catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := encoding.ProfileFromConfig(cfg.Encoding)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:    %s\n", ctx.configPath)
			fmt.Fprintf(out, "State dir: %s\n", cfg.Paths.StateDir)
			fmt.Fprintf(out, "Work dir:  %s\n", cfg.Paths.WorkDir)
			fmt.Fprintf(out, "Log dir:   %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Profile:   %s (hardware %s, %d workers)\n", profile, yesNo(profile.Hardware()), profile.Workers())
			if len(cfg.Catalogs) == 0 {
				fmt.Fprintln(out, "No catalogs configured")
				return nil
			}
			rows := make([][]string, 0, len(cfg.Catalogs))
			for _, cat := range cfg.Catalogs {
				var match, floor string
				switch cat.Mode {
				case config.ModeRebuild:
					floor = strconv.Itoa(cat.MinDurationSeconds) + "s"
				case config.ModeAllocate:
					match = fmt.Sprintf("%s %s", cat.Match, strings.Repeat("#", max(cat.NumberWidth, 1)))
					if cat.Keyword != "" {
						match = fmt.Sprintf("%s %q", match, cat.Keyword)
					}
				}
				rows = append(rows, []string{cat.Name, cat.Mode, match, floor, cat.Root, cat.Ledger})
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, renderTable(
				[]column{textCol("Catalog"), textCol("Mode"), textCol("Match"), numCol("Min"), textCol("Root"), textCol("Ledger")},
				rows,
			))
			fmt.Fprintln(out)
			return nil
		},
	}
}
