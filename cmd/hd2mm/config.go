// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hd2mm/hd2mm/internal/config"
	"github.com/hd2mm/hd2mm/internal/issue"
)

// newConfigCommand creates the `hd2mm config` command tree. The subcommands
// read the file without validating it so a broken setting can be fixed.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage hd2mm configuration",
		Long: `Manage hd2mm configuration.

Configuration is stored in:
  - Linux: ~/.config/hd2mm/config.cue
  - macOS: ~/Library/Application Support/hd2mm/config.cue
  - Windows: %APPDATA%\hd2mm\config.cue

Any setting can be overridden with an HD2MM_ environment variable, for
example HD2MM_GAME_DIRECTORY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(showConfig(cmd.Context(), app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(initConfig(app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration and storage paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(showConfigPath(cmd.Context(), app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. skip_list takes a comma-separated list of
16-character archive ids.

Valid keys: ` + strings.Join(config.Keys(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(setConfigValue(cmd.Context(), app, args[0], args[1]))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.LoadUnchecked(cmd.Context(), app.loadOptions())
			if err != nil {
				return app.report(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, path, err := config.LoadUnchecked(ctx, app.loadOptions())
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	out := app.stdout

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if fileExistsCheck(path) {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(out)

	unset := SubtitleStyle.Render("(not set)")
	show := func(key, value string) {
		if value == "" {
			fmt.Fprintf(out, "%s: %s\n", keyStyle.Render(key), unset)
			return
		}
		fmt.Fprintf(out, "%s: %s\n", keyStyle.Render(key), valueStyle.Render(value))
	}
	show("game_directory", cfg.GameDirectory.String())
	show("storage_directory", cfg.StorageDirectory.String())
	show("temp_directory", cfg.TempDirectory.String())
	show("skip_list", strings.Join(cfg.SkipList, ", "))
	show("case_sensitive_search", fmt.Sprintf("%v", cfg.CaseSensitiveSearch))
	show("log_level", cfg.LogLevel.String())

	if valid, errs := cfg.IsValid(); !valid {
		fmt.Fprintln(out)
		for _, e := range errs {
			fmt.Fprintf(out, "%s %s\n", WarningStyle.Render("!"), e)
		}
		if _, gameErrs := cfg.GameDirectory.IsValid(); len(gameErrs) > 0 && app.verbose {
			if rendered, renderErr := issue.Get(issue.GameDirInvalidId).Render("dark"); renderErr == nil {
				fmt.Fprint(app.stderr, rendered)
			}
		}
	}
	return nil
}

func initConfig(app *App) error {
	path, err := config.FilePath(app.loadOptions())
	if err != nil {
		return err
	}
	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", SubtitleStyle.Render("-"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	fmt.Fprintf(app.stdout, "  Next: %s\n", CmdStyle.Render(`hd2mm config set game_directory "<Helldivers 2 folder>"`))
	return nil
}

func showConfigPath(ctx context.Context, app *App) error {
	cfg, path, err := config.LoadUnchecked(ctx, app.loadOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	if storage, err := cfg.StoragePath(); err == nil {
		fmt.Fprintf(app.stdout, "Storage directory: %s\n", storage)
	}
	if tmp, err := cfg.TempPath(); err == nil {
		fmt.Fprintf(app.stdout, "Temp directory: %s\n", tmp)
	}
	if cfg.GameDirectory.IsSet() {
		fmt.Fprintf(app.stdout, "Data directory: %s\n", cfg.GameDirectory.DataDir())
	}
	return nil
}

func setConfigValue(ctx context.Context, app *App, key, value string) error {
	cfg, path, err := config.LoadUnchecked(ctx, app.loadOptions())
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if valid, errs := cfg.IsValid(); !valid {
		return issue.NewErrorContext().
			WithOperation("set " + key).
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Run 'hd2mm config show' to inspect the current settings").
			Wrap(errs[0]).
			BuildError()
	}
	if err := config.SaveTo(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
