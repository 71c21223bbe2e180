// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hd2mm/hd2mm/internal/engine"
	"github.com/hd2mm/hd2mm/internal/registry"
)

// Option, sub-option and list positions are 1-based on the command line.

var errBothOnOff = errors.New("--on and --off are mutually exclusive")

func newAddCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <archive>...",
		Short: "Add mod archives as packages",
		Long: `Add one or more mod archives (.zip, .7z, .rar, .tar, .tar.gz, .tar.zst)
as packages. A single archive without a manifest gets one inferred from its
folder layout; when several archives are added at once, archives without a
manifest are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(runAdd(cmd.Context(), app, args))
		},
	}
}

func runAdd(ctx context.Context, app *App, archives []string) error {
	eng, err := app.openEngine(ctx)
	if err != nil {
		return err
	}
	_, err = eng.Add(ctx, archives...)
	return err
}

func newUpdateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update <package> <archive>",
		Short: "Replace a package with a newer archive",
		Long: `Replace a package with the content of a newer archive. The package keeps
its position and alias but is disabled until you review its options.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				_, err := eng.Update(cmd.Context(), p.ID, args[1])
				return err
			}))
		},
	}
}

func newRemoveCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <package>",
		Short: "Remove a package and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				return eng.Remove(p.ID, app.confirm(yes))
			}))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List packages in deployment order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.openEngine(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			printPackages(app, eng.List())
			return nil
		},
	}
}

func newSearchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find packages by name or alias",
		Long: `Find packages whose alias or manifest name contains text. Matching
ignores case unless case_sensitive_search is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.openEngine(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			printPackages(app, eng.Search(args[0]))
			return nil
		},
	}
}

func printPackages(app *App, pkgs []*registry.Package) {
	if len(pkgs) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("No packages."))
		return
	}
	for i, p := range pkgs {
		mark := SuccessStyle.Render("●")
		name := CmdStyle.Render(p.DisplayName())
		if !p.Enabled {
			mark = disabledStyle.Render("○")
			name = disabledStyle.Render(p.DisplayName())
		}
		fmt.Fprintf(app.stdout, "%3d %s %s %s\n", i+1, mark, name, SubtitleStyle.Render(shortID(p)))
	}
}

func shortID(p *registry.Package) string {
	return p.ID.String()[:8]
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <package>",
		Short: "Show a package and its options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(_ *engine.Engine, p *registry.Package) error {
				printPackage(app, p)
				return nil
			}))
		},
	}
}

func printPackage(app *App, p *registry.Package) {
	out := app.stdout
	fmt.Fprintln(out, TitleStyle.Render(p.DisplayName()))
	if p.Alias != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Name:"), p.Manifest.Name)
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("ID:"), p.ID)
	state := SuccessStyle.Render("enabled")
	if !p.Enabled {
		state = disabledStyle.Render("disabled")
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("State:"), state)
	if p.Manifest.Description != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("About:"), p.Manifest.Description)
	}
	if len(p.Options) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, SubtitleStyle.Render("Options:"))
	for i, st := range p.Options {
		mark := SuccessStyle.Render("[x]")
		if !st.Enabled {
			mark = disabledStyle.Render("[ ]")
		}
		fmt.Fprintf(out, "  %d. %s %s\n", i+1, mark, st.Def.Name)
		for j, sub := range st.Def.SubOptions {
			sel := "   "
			if j == st.Selected {
				sel = SuccessStyle.Render(" > ")
			}
			fmt.Fprintf(out, "     %s%d. %s\n", sel, j+1, sub.Name)
		}
	}
}

func newEnableCommand(app *App, enabled bool) *cobra.Command {
	use, short := "enable <package>", "Enable a package"
	if !enabled {
		use, short = "disable <package>", "Disable a package"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				if err := eng.SetEnabled(p.ID, enabled); err != nil {
					return err
				}
				verb := "Enabled"
				if !enabled {
					verb = "Disabled"
				}
				fmt.Fprintf(app.stdout, "%s %s %s\n", SuccessStyle.Render("✓"), verb, p.DisplayName())
				return nil
			}))
		},
	}
}

func newOptionCommand(app *App) *cobra.Command {
	var (
		on, off bool
		sub     int
	)
	cmd := &cobra.Command{
		Use:   "option <package> <option>",
		Short: "Toggle an option or pick a sub-option",
		Long: `Toggle an option of a package or pick one of its sub-options. Option and
sub-option numbers are the ones printed by 'hd2mm show'.

Examples:
  hd2mm option my-mod 2 --off
  hd2mm option my-mod 1 --sub 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if on && off {
				return app.report(errBothOnOff)
			}
			index, err := parsePosition(args[1])
			if err != nil {
				return app.report(err)
			}
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				if on || off {
					if err := eng.SetOption(p.ID, index, on); err != nil {
						return err
					}
				}
				if sub > 0 {
					if err := eng.SelectSubOption(p.ID, index, sub-1); err != nil {
						return err
					}
				}
				printPackage(app, p)
				return nil
			}))
		},
	}
	cmd.Flags().BoolVar(&on, "on", false, "enable the option")
	cmd.Flags().BoolVar(&off, "off", false, "disable the option")
	cmd.Flags().IntVar(&sub, "sub", 0, "select this sub-option (1-based)")
	return cmd
}

func newMoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <package> up|down|<position>",
		Short: "Change a package's place in the deployment order",
		Long: `Change a package's place in the deployment order. Later packages take
later patch slots, so the game loads them over earlier ones.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				var err error
				switch strings.ToLower(args[1]) {
				case "up":
					err = eng.MoveBy(p.ID, -1)
				case "down":
					err = eng.MoveBy(p.ID, 1)
				default:
					var pos int
					if pos, err = parsePosition(args[1]); err == nil {
						err = eng.Move(p.ID, pos)
					}
				}
				if err != nil {
					return err
				}
				printPackages(app, eng.List())
				return nil
			}))
		},
	}
}

func newAliasCommand(app *App) *cobra.Command {
	aliasCmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage package aliases",
		Long: `Manage package aliases. An alias replaces the manifest name in listings
and can be used wherever a package is expected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	aliasCmd.AddCommand(&cobra.Command{
		Use:   "set <package> <alias>",
		Short: "Set the alias of a package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				if err := eng.SetAlias(p.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s %s is now %s\n", SuccessStyle.Render("✓"), p.ID, CmdStyle.Render(args[1]))
				return nil
			}))
		},
	})

	aliasCmd.AddCommand(&cobra.Command{
		Use:   "clear <package>",
		Short: "Remove the alias of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.report(withPackage(cmd.Context(), app, args[0], func(eng *engine.Engine, p *registry.Package) error {
				if err := eng.SetAlias(p.ID, ""); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s %s is now %s\n", SuccessStyle.Render("✓"), p.ID, CmdStyle.Render(p.Manifest.Name))
				return nil
			}))
		},
	})

	return aliasCmd
}

// withPackage opens the engine, resolves ref and calls fn.
func withPackage(ctx context.Context, app *App, ref string, fn func(*engine.Engine, *registry.Package) error) error {
	eng, err := app.openEngine(ctx)
	if err != nil {
		return err
	}
	p, err := eng.Resolve(ref)
	if err != nil {
		return err
	}
	return fn(eng, p)
}

// parsePosition converts a 1-based command-line number to a 0-based index.
func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: expected a number starting at 1", s)
	}
	return n - 1, nil
}
