// SPDX-License-Identifier: MPL-2.0

// Package profile persists the user's package order, enablement and option
// choices in profile.yaml.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hd2mm/hd2mm/internal/registry"
	"github.com/hd2mm/hd2mm/pkg/fspath"
)

const (
	// FileName is the profile file in the storage root.
	FileName = "profile.yaml"

	// Version is the profile format version.
	Version = 1
)

type (
	// Entry is the persisted state of one package.
	Entry struct {
		ID       string    `yaml:"id"`
		Enabled  bool      `yaml:"enabled"`
		Options  []bool    `yaml:"options,omitempty"`
		Selected []int     `yaml:"selected,omitempty"`
		AddedAt  time.Time `yaml:"added_at,omitempty"`
	}

	// Profile is the decoded profile file. Packages are in deployment order.
	Profile struct {
		Version  int     `yaml:"version"`
		Packages []Entry `yaml:"packages"`
	}
)

// Load applies the profile at path to the packages of reg and returns them
// in profile order. It returns nil when no profile exists.
//
// Entries for unknown packages are dropped with a warning. Registered
// packages the profile does not mention are appended, disabled, with
// default option state. Option arrays are repaired to the manifest's shape.
func Load(path string, reg *registry.Registry) ([]*registry.Package, []string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}

	var prof Profile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var (
		out      []*registry.Package
		warnings []string
		placed   = make(map[uuid.UUID]bool)
	)
	for _, e := range prof.Packages {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("profile entry %q is not a GUID; entry dropped", e.ID))
			continue
		}
		pkg := reg.Get(id)
		switch {
		case pkg == nil:
			warnings = append(warnings, fmt.Sprintf("profile references unknown package %s; entry dropped", id))
			continue
		case placed[id]:
			warnings = append(warnings, fmt.Sprintf("profile lists package %s more than once; later entry dropped", id))
			continue
		}
		placed[id] = true

		pkg.Enabled = e.Enabled
		pkg.Repair(e.Options, e.Selected)
		if !e.AddedAt.IsZero() {
			pkg.AddedAt = e.AddedAt
		}
		out = append(out, pkg)
	}

	for _, pkg := range reg.List() {
		if placed[pkg.ID] {
			continue
		}
		pkg.Enabled = false
		pkg.Repair(nil, nil)
		out = append(out, pkg)
	}
	return out, warnings, nil
}

// Save overwrites the profile at path with packages in the given order.
func Save(path string, packages []*registry.Package) error {
	prof := Profile{Version: Version, Packages: make([]Entry, 0, len(packages))}
	for _, pkg := range packages {
		prof.Packages = append(prof.Packages, Entry{
			ID:       pkg.ID.String(),
			Enabled:  pkg.Enabled,
			Options:  pkg.EnabledFlags(),
			Selected: pkg.Selections(),
			AddedAt:  pkg.AddedAt.UTC(),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&prof); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := fspath.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
