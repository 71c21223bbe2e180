// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/hd2mm/hd2mm/internal/config"
	"github.com/hd2mm/hd2mm/internal/engine"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/internal/tui"
	"github.com/hd2mm/hd2mm/pkg/types"
)

type (
	// App is the composition root of the CLI. Command handlers receive it
	// and reach configuration and the engine through it.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		verbose bool
		cfgFile string
		cfgDir  string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.cfgFile),
		ConfigDirPath:  types.FilesystemPath(a.cfgDir),
	}
}

func (a *App) logger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if cfg != nil {
		level = cfg.LogLevel.Level()
	}
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{Level: level, Prefix: config.AppName})
}

// openEngine loads configuration and returns an initialized engine.
func (a *App) openEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	n := newCLINotifier(a.stdout, a.stderr, a.verbose)
	eng, err := engine.New(cfg, n, a.logger(cfg))
	if err != nil {
		return nil, err
	}
	if err := eng.Init(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

// confirm returns a ConfirmFunc that approves without asking when yes is
// set, and otherwise asks on stdin. An aborted prompt declines.
func (a *App) confirm(yes bool) engine.ConfirmFunc {
	if yes {
		return nil
	}
	return func(prompt string) bool {
		ok, err := tui.Confirm(context.Background(), tui.ConfirmOptions{
			Title: prompt,
			Config: tui.Config{
				Accessible: !tui.IsTerminal(a.stdin),
				Input:      a.stdin,
				Output:     a.stderr,
			},
		})
		return err == nil && ok
	}
}

// report prints the suggestions and catalogue guide attached to err and
// maps it onto an exit code. It returns the error for cobra.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrCanceled) {
		fmt.Fprintln(a.stderr, SubtitleStyle.Render("Canceled."))
		return &ExitError{Code: types.ExitFailure}
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("✗ ")+ae.Format(a.verbose))
		if guide := ae.Guide(); guide != nil && a.verbose {
			if rendered, renderErr := guide.Render("dark"); renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}

	code := types.ExitFailure
	if errors.Is(err, engine.ErrRejected) {
		code = types.ExitProblems
	}
	return &ExitError{Code: code, Err: err}
}
