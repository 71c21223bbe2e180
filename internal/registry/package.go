// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/pkg/manifest"
)

type (
	// OptionState pairs a manifest option with the user's choices for it.
	OptionState struct {
		Def      *manifest.Option
		Enabled  bool
		Selected int
	}

	// Package is a registered mod: its staged directory, manifest, and the
	// user's enablement and option choices. len(Options) always equals
	// len(Manifest.Options).
	Package struct {
		ID       uuid.UUID
		Dir      string
		Manifest *manifest.Manifest
		// Resolved holds the files each option and sub-option installs,
		// aligned with Manifest.Options.
		Resolved []manifest.ResolvedOption
		Options  []OptionState
		Enabled  bool
		Alias    string
		AddedAt  time.Time
	}
)

func newPackage(m *manifest.Manifest, res manifest.Result, dir string, addedAt time.Time) *Package {
	p := &Package{
		ID:       m.ID,
		Dir:      dir,
		Manifest: m,
		Resolved: res.Options,
		AddedAt:  addedAt,
	}
	p.Repair(nil, nil)
	return p
}

// DisplayName returns the alias when set, the manifest name otherwise.
func (p *Package) DisplayName() string {
	if p.Alias != "" {
		return p.Alias
	}
	return p.Manifest.Name
}

// Repair rebuilds Options from persisted flag arrays. Arrays shorter than
// the manifest's option list are padded with defaults (enabled, default
// sub-option); longer ones are truncated; selections are clamped.
func (p *Package) Repair(enabled []bool, selected []int) {
	opts := p.Manifest.Options
	states := make([]OptionState, len(opts))
	for i := range opts {
		def := &opts[i]
		st := OptionState{Def: def, Enabled: true, Selected: def.DefaultSelection()}
		if i < len(enabled) {
			st.Enabled = enabled[i]
		}
		if i < len(selected) {
			st.Selected = def.ClampSelection(selected[i])
		}
		states[i] = st
	}
	p.Options = states
}

// EnabledFlags returns the per-option enabled flags for persistence.
func (p *Package) EnabledFlags() []bool {
	out := make([]bool, len(p.Options))
	for i, o := range p.Options {
		out[i] = o.Enabled
	}
	return out
}

// Selections returns the per-option sub-option selections for persistence.
func (p *Package) Selections() []int {
	out := make([]int, len(p.Options))
	for i, o := range p.Options {
		out[i] = o.Selected
	}
	return out
}

// SetOption enables or disables option i.
func (p *Package) SetOption(i int, enabled bool) error {
	if i < 0 || i >= len(p.Options) {
		return &OptionIndexError{Package: p.DisplayName(), Index: i, Count: len(p.Options)}
	}
	p.Options[i].Enabled = enabled
	return nil
}

// SelectSubOption makes sub the active alternative of option i.
func (p *Package) SelectSubOption(i, sub int) error {
	if i < 0 || i >= len(p.Options) {
		return &OptionIndexError{Package: p.DisplayName(), Index: i, Count: len(p.Options)}
	}
	def := p.Options[i].Def
	if sub < 0 || sub >= len(def.SubOptions) {
		return &OptionIndexError{Package: p.DisplayName(), Option: def.Name, Index: sub, Count: len(def.SubOptions)}
	}
	p.Options[i].Selected = sub
	return nil
}

// Files returns the package-relative files the current choices install,
// flattened from OptionFiles.
func (p *Package) Files() []string {
	var out []string
	for _, files := range p.OptionFiles() {
		out = append(out, files...)
	}
	return out
}

// OptionFiles returns the installed files of each enabled option in manifest
// order: the option's own files followed by its selected sub-option's.
func (p *Package) OptionFiles() [][]string {
	var out [][]string
	for i, st := range p.Options {
		if !st.Enabled || i >= len(p.Resolved) {
			continue
		}
		res := p.Resolved[i]
		files := slices.Clone(res.Files)
		if st.Selected >= 0 && st.Selected < len(res.SubOptions) {
			files = append(files, res.SubOptions[st.Selected]...)
		}
		out = append(out, files)
	}
	return out
}

// String implements fmt.Stringer.
func (p *Package) String() string {
	return fmt.Sprintf("%s (%s)", p.DisplayName(), p.ID)
}
