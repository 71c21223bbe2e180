// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

type (
	// ConfirmOptions configures the Confirm prompt.
	ConfirmOptions struct {
		// Title is the question to display.
		Title string
		// Description provides additional context below the title.
		Description string
		// Affirmative is the label of the yes button (default "Yes").
		Affirmative string
		// Negative is the label of the no button (default "No").
		Negative string
		// Default is the answer for an empty reply.
		Default bool
		// Config holds common prompt configuration.
		Config Config
	}

	// ConfirmBuilder provides a fluent API for building Confirm prompts.
	ConfirmBuilder struct {
		opts ConfirmOptions
	}
)

// Confirm asks a yes/no question. It returns ErrCancelled when the user
// aborts the prompt.
func Confirm(ctx context.Context, opts ConfirmOptions) (bool, error) {
	result := opts.Default
	field := huh.NewConfirm().
		Title(opts.Title).
		Affirmative(orDefault(opts.Affirmative, "Yes")).
		Negative(orDefault(opts.Negative, "No")).
		Value(&result)
	if opts.Description != "" {
		field = field.Description(opts.Description)
	}

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(getHuhTheme(opts.Config.Theme)).
		WithShowHelp(false).
		WithAccessible(shouldUseAccessible(opts.Config)).
		WithInput(getInput(opts.Config)).
		WithOutput(getOutputWriter(opts.Config))

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrCancelled
		}
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return result, nil
}

// NewConfirm creates a ConfirmBuilder defaulting to "no".
func NewConfirm() *ConfirmBuilder {
	return &ConfirmBuilder{
		opts: ConfirmOptions{
			Affirmative: "Yes",
			Negative:    "No",
			Config:      DefaultConfig(),
		},
	}
}

// Title sets the question.
func (b *ConfirmBuilder) Title(title string) *ConfirmBuilder {
	b.opts.Title = title
	return b
}

// Description sets the text shown below the question.
func (b *ConfirmBuilder) Description(desc string) *ConfirmBuilder {
	b.opts.Description = desc
	return b
}

// Default sets the answer for an empty reply.
func (b *ConfirmBuilder) Default(value bool) *ConfirmBuilder {
	b.opts.Default = value
	return b
}

// Theme sets the visual theme.
func (b *ConfirmBuilder) Theme(theme Theme) *ConfirmBuilder {
	b.opts.Config.Theme = theme
	return b
}

// Config replaces the prompt configuration.
func (b *ConfirmBuilder) Config(cfg Config) *ConfirmBuilder {
	b.opts.Config = cfg
	return b
}

// Run executes the prompt.
func (b *ConfirmBuilder) Run(ctx context.Context) (bool, error) {
	return Confirm(ctx, b.opts)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
