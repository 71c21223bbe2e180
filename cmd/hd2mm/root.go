// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the hd2mm command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "hd2mm",
		Short: "Helldivers 2 mod manager",
		Long: TitleStyle.Render("hd2mm") + SubtitleStyle.Render(" - Helldivers 2 mod manager") + `

hd2mm stores mod archives as packages, remembers their order and option
choices, and writes the enabled ones into the game's data directory.
Every deployment is journaled so it can be undone with 'hd2mm purge'.

` + SubtitleStyle.Render("Quick Start:") + `
  1. hd2mm config set game_directory "<Helldivers 2 folder>"
  2. hd2mm add ./SomeMod.zip
  3. hd2mm deploy

` + SubtitleStyle.Render("Examples:") + `
  hd2mm list                   List packages in deployment order
  hd2mm option 3f2a 1 --sub 2  Pick the second variant of option 1
  hd2mm move 3f2a up           Deploy a package earlier
  hd2mm status                 Check deployed files against the journal`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is <config dir>/hd2mm/config.cue)")
	root.PersistentFlags().StringVar(&app.cfgDir, "config-dir", "", "override the configuration directory")

	root.AddCommand(
		newAddCommand(app),
		newUpdateCommand(app),
		newRemoveCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newSearchCommand(app),
		newEnableCommand(app, true),
		newEnableCommand(app, false),
		newOptionCommand(app),
		newMoveCommand(app),
		newAliasCommand(app),
		newDeployCommand(app),
		newPurgeCommand(app),
		newHardPurgeCommand(app),
		newStatusCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) && exitErr.Code.Validate() == nil {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
