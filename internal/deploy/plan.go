// SPDX-License-Identifier: MPL-2.0

// Package deploy turns an ordered package list into the set of patch files
// to write into the game data directory, and writes them.
package deploy

import (
	"cmp"
	"path"
	"slices"
	"strings"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/internal/registry"
	"github.com/hd2mm/hd2mm/pkg/types"
)

type (
	// File is one planned copy.
	File struct {
		Package uuid.UUID
		// Source is the absolute path of the file inside the package.
		Source string
		// Output is the file name inside the data directory.
		Output string
	}

	// Bundle groups the variants of one source patch slot. All files of a
	// bundle land in the same output slot.
	Bundle struct {
		Package     uuid.UUID
		SourceDir   string
		ID          types.ArchiveID
		SourcePatch int
		Index       int
		Files       []File
	}

	// Skipped is a package file the plan does not install.
	Skipped struct {
		Package uuid.UUID
		Path    string
		Reason  string
	}

	// Plan is the deterministic outcome of NewPlan.
	Plan struct {
		Bundles []Bundle
		Skipped []Skipped
	}

	planEntry struct {
		rel   string
		name  types.PatchName
		ok    bool
		group int
	}

	bundleKey struct {
		pkg   uuid.UUID
		dir   string
		id    types.ArchiveID
		patch int
	}
)

// Skip reasons.
const (
	ReasonNotPatchFile = "not a game archive file"
	ReasonDuplicate    = "duplicate of an earlier file in the same package"
)

// NewPlan computes the output files for packages in order. It depends only
// on its arguments: disabled packages and options are skipped; each
// package contributes, per enabled option in manifest order, the option's
// files then its selected sub-option's files.
//
// Files are grouped by (package, source directory, archive id, source patch
// index); each group takes the next free slot for its archive id, starting
// at 0, or 1 for skip-listed ids.
func NewPlan(packages []*registry.Package, skip types.SkipList) *Plan {
	p := &Plan{}
	next := make(map[types.ArchiveID]int)
	bundles := make(map[bundleKey]int)

	for _, pkg := range packages {
		if pkg == nil || !pkg.Enabled {
			continue
		}
		seen := make(map[string]bool)
		for _, e := range orderEntries(pkg.OptionFiles()) {
			rel, pn := e.rel, e.name
			if seen[rel] {
				p.Skipped = append(p.Skipped, Skipped{Package: pkg.ID, Path: rel, Reason: ReasonDuplicate})
				continue
			}
			seen[rel] = true

			if !e.ok {
				p.Skipped = append(p.Skipped, Skipped{Package: pkg.ID, Path: rel, Reason: ReasonNotPatchFile})
				continue
			}

			key := bundleKey{pkg: pkg.ID, dir: path.Dir(rel), id: pn.ID, patch: pn.Patch}
			bi, ok := bundles[key]
			if !ok {
				idx, used := next[pn.ID]
				if !used {
					idx = skip.FirstSlot(pn.ID)
				}
				next[pn.ID] = idx + 1
				bi = len(p.Bundles)
				bundles[key] = bi
				p.Bundles = append(p.Bundles, Bundle{
					Package:     pkg.ID,
					SourceDir:   key.dir,
					ID:          pn.ID,
					SourcePatch: pn.Patch,
					Index:       idx,
				})
			}

			b := &p.Bundles[bi]
			b.Files = append(b.Files, File{
				Package: pkg.ID,
				Source:  filepath.Join(pkg.Dir, filepath.FromSlash(rel)),
				Output:  types.OutputName(pn.ID, b.Index, pn.Variant),
			})
		}
	}
	return p
}

// orderEntries flattens the option file lists of one package. Options keep
// their order, and so do the (directory, archive id) groups inside an
// option in order of first appearance; within a group, files are sorted by
// numeric patch index then variant, so patch_2 comes before patch_10.
func orderEntries(options [][]string) []planEntry {
	var out []planEntry
	for _, files := range options {
		groups := make(map[[2]string]int)
		entries := make([]planEntry, 0, len(files))
		for _, rel := range files {
			e := planEntry{rel: rel}
			e.name, e.ok = types.ParsePatchName(path.Base(rel))
			key := [2]string{path.Dir(rel), rel}
			if e.ok {
				key[1] = string(e.name.ID)
			}
			g, ok := groups[key]
			if !ok {
				g = len(groups)
				groups[key] = g
			}
			e.group = g
			entries = append(entries, e)
		}
		slices.SortStableFunc(entries, func(a, b planEntry) int {
			return cmp.Or(
				cmp.Compare(a.group, b.group),
				cmp.Compare(a.name.Patch, b.name.Patch),
				strings.Compare(a.name.Variant, b.name.Variant),
			)
		})
		out = append(out, entries...)
	}
	return out
}

// Files returns every planned copy in plan order.
func (p *Plan) Files() []File {
	var out []File
	for _, b := range p.Bundles {
		out = append(out, b.Files...)
	}
	return out
}

// Outputs returns the planned output names in plan order.
func (p *Plan) Outputs() []string {
	files := p.Files()
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Output
	}
	return out
}
