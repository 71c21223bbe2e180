// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hd2mm/hd2mm/internal/journal"
	"github.com/hd2mm/hd2mm/pkg/types"
)

var errDeploymentDrift = errors.New("deployed files differ from the install journal")

func newDeployCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Write the enabled packages into the game data directory",
		Long: `Write the enabled packages into the game data directory. The previous
deployment is purged first, so deploying twice is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.openEngine(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			res, err := eng.Deploy(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			if app.verbose {
				for _, e := range res.Entries {
					fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render(e.Path))
				}
			}
			return nil
		},
	}
}

func newPurgeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove the files of the last deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.openEngine(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			res, err := eng.Purge(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			printRefused(app, res)
			return nil
		},
	}
}

func newHardPurgeCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "hard-purge",
		Short: "Delete every patch file in the game data directory",
		Long: `Delete every patch file in the game data directory by name, whether or not
hd2mm wrote it. Slot 0 of skip-listed archives is kept. Use this when the
install journal is lost or corrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.openEngine(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			res, err := eng.HardPurge(cmd.Context(), app.confirm(yes))
			if err != nil {
				return app.report(err)
			}
			printRefused(app, res)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printRefused(app *App, res journal.PurgeResult) {
	for _, p := range res.Refused {
		fmt.Fprintf(app.stderr, "%s refused to remove %s: outside the data directory\n", WarningStyle.Render("!"), p)
	}
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check deployed files against the install journal",
		Long: `Check deployed files against the install journal. Exits with status 2 when
a file is missing or was changed since deployment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.openEngine(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			rep, err := eng.Status(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			return printReport(app, rep)
		},
	}
}

func printReport(app *App, rep *journal.Report) error {
	out := app.stdout
	if rep.Journal == nil {
		fmt.Fprintln(out, SubtitleStyle.Render("Nothing is deployed."))
		return nil
	}

	when := rep.Journal.Generated
	if t, err := rep.Journal.GeneratedAt(); err == nil {
		when = t.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Deployed:"), when)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("State:"), rep.Journal.State)
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Files:"), len(rep.Entries))

	for _, e := range rep.Entries {
		if e.Status == journal.StatusOK && !app.verbose {
			continue
		}
		style := WarningStyle
		if e.Status == journal.StatusOK {
			style = SuccessStyle
		}
		fmt.Fprintf(out, "  %s %s\n", style.Render(fmt.Sprintf("%-10s", e.Status)), e.Entry.Path)
	}

	if rep.Clean() {
		fmt.Fprintf(out, "%s deployment is intact\n", SuccessStyle.Render("✓"))
		return nil
	}
	return &ExitError{Code: types.ExitProblems, Err: errDeploymentDrift}
}
