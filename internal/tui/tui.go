// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Theme names a huh theme.
type Theme string

const (
	// ThemeDefault uses huh's base theme.
	ThemeDefault Theme = "default"
	// ThemeCharm uses the Charm theme.
	ThemeCharm Theme = "charm"
	// ThemeDracula uses the Dracula theme.
	ThemeDracula Theme = "dracula"
	// ThemeCatppuccin uses the Catppuccin theme.
	ThemeCatppuccin Theme = "catppuccin"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Config holds common configuration for prompts.
type Config struct {
	// Theme selects the visual theme of interactive prompts.
	Theme Theme
	// Accessible forces the line-based prompt.
	Accessible bool
	// Input is where answers are read from (default os.Stdin).
	Input io.Reader
	// Output is where prompts are written (default os.Stderr in accessible
	// mode, os.Stdout otherwise).
	Output io.Writer
}

// DefaultConfig returns a configuration reading os.Stdin. Accessible mode
// is enabled when stdin is not a terminal or ACCESSIBLE is set.
func DefaultConfig() Config {
	return Config{
		Theme:      ThemeDefault,
		Accessible: os.Getenv("ACCESSIBLE") != "" || !IsTerminal(os.Stdin),
		Input:      os.Stdin,
	}
}

// IsTerminal reports whether r is a file connected to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// shouldUseAccessible reports whether cfg resolves to the line-based prompt.
func shouldUseAccessible(cfg Config) bool {
	if cfg.Accessible {
		return true
	}
	if cfg.Input == nil {
		return !IsTerminal(os.Stdin)
	}
	return !IsTerminal(cfg.Input)
}

// getInput returns cfg.Input or os.Stdin.
func getInput(cfg Config) io.Reader {
	if cfg.Input != nil {
		return cfg.Input
	}
	return os.Stdin
}

// getOutputWriter returns cfg.Output, or stderr for accessible prompts so
// they stay out of captured stdout.
func getOutputWriter(cfg Config) io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}
	if shouldUseAccessible(cfg) {
		return os.Stderr
	}
	return os.Stdout
}

func getHuhTheme(t Theme) *huh.Theme {
	switch t {
	case ThemeCharm:
		return huh.ThemeCharm()
	case ThemeDracula:
		return huh.ThemeDracula()
	case ThemeCatppuccin:
		return huh.ThemeCatppuccin()
	default:
		return huh.ThemeBase()
	}
}
