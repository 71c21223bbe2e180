// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Patch file variants. A patch slot consists of up to three files sharing
// the "<id>.patch_<n>" stem.
const (
	VariantBase      = ""
	VariantGPU       = ".gpu_resources"
	VariantStream    = ".stream"
	patchInfix       = ".patch_"
	noPatchIndex int = -1
)

var patchNameRe = regexp.MustCompile(`^([0-9a-fA-F]{16})(\.patch_(\d+))?(\.gpu_resources|\.stream)?$`)

type (
	// PatchName is a parsed game data file name such as
	// "9ba626afa44a3aa3.patch_0.gpu_resources".
	PatchName struct {
		ID ArchiveID
		// Patch is the patch index, or -1 for a bare archive name.
		Patch   int
		Variant string
	}

	// SkipList holds archive ids whose slot 0 is reserved; patches for them
	// are numbered from 1.
	SkipList []ArchiveID
)

// ParsePatchName parses a file base name. It reports false for names that
// are not game data files.
func ParsePatchName(base string) (PatchName, bool) {
	m := patchNameRe.FindStringSubmatch(base)
	if m == nil {
		return PatchName{}, false
	}
	pn := PatchName{ID: ArchiveID(strings.ToLower(m[1])), Patch: noPatchIndex, Variant: m[4]}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return PatchName{}, false
		}
		pn.Patch = n
	}
	return pn, true
}

// HasPatch reports whether the name carries a patch index.
func (p PatchName) HasPatch() bool { return p.Patch >= 0 }

// String returns the canonical file name.
func (p PatchName) String() string {
	if !p.HasPatch() {
		return string(p.ID) + p.Variant
	}
	return OutputName(p.ID, p.Patch, p.Variant)
}

// OutputName returns "<id>.patch_<index><variant>".
func OutputName(id ArchiveID, index int, variant string) string {
	return string(id) + patchInfix + strconv.Itoa(index) + variant
}

// ParseSkipList validates and normalizes raw skip-list entries, dropping
// duplicates. Every invalid entry is reported.
func ParseSkipList(entries []string) (SkipList, error) {
	var (
		out  SkipList
		errs []error
	)
	for _, e := range entries {
		id, err := ParseArchiveID(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("skip list: %w", errors.Join(errs...))
	}
	return out, nil
}

// Contains reports whether id is skip-listed.
func (s SkipList) Contains(id ArchiveID) bool { return slices.Contains(s, id) }

// FirstSlot returns the first patch index available for id.
func (s SkipList) FirstSlot(id ArchiveID) int {
	if s.Contains(id) {
		return 1
	}
	return 0
}

// Strings returns the entries as plain strings.
func (s SkipList) Strings() []string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = string(id)
	}
	return out
}
