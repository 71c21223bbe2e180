// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Kind identifies a package problem. The set is closed; severity is a
// property of the kind.
type Kind int

const (
	// CantParseManifest means manifest.json is not well-formed or violates the schema.
	CantParseManifest Kind = iota + 1
	// UnknownManifestVersion means Version is absent, not an integer, or below 1.
	UnknownManifestVersion
	// OutOfSupportManifest means Version is newer than this build understands.
	OutOfSupportManifest
	// Duplicate means the package GUID is already registered.
	Duplicate
	// InvalidPath means an include escapes the package or does not exist.
	InvalidPath
	// NoManifestFound means the package root has no manifest.json.
	NoManifestFound
	// EmptyOptions means the manifest declares no options.
	EmptyOptions
	// EmptySubOptions means an option declares an empty sub-option group.
	EmptySubOptions
	// EmptyIncludes means an option or sub-option would install nothing.
	EmptyIncludes
	// InvalidImagePath means an image or icon path escapes the package or does not exist.
	InvalidImagePath
	// EmptyImagePath means an image or icon path is present but blank.
	EmptyImagePath
)

// Resolution records what was done about a NoManifestFound package.
type Resolution int

const (
	// ResolutionNone is the zero value for problems that need no resolution.
	ResolutionNone Resolution = iota
	// ResolutionDeleted means the package directory was removed.
	ResolutionDeleted
	// ResolutionInferred means a manifest was synthesized from the extracted files.
	ResolutionInferred
)

var kindNames = map[Kind]string{
	CantParseManifest:      "CantParseManifest",
	UnknownManifestVersion: "UnknownManifestVersion",
	OutOfSupportManifest:   "OutOfSupportManifest",
	Duplicate:              "Duplicate",
	InvalidPath:            "InvalidPath",
	NoManifestFound:        "NoManifestFound",
	EmptyOptions:           "EmptyOptions",
	EmptySubOptions:        "EmptySubOptions",
	EmptyIncludes:          "EmptyIncludes",
	InvalidImagePath:       "InvalidImagePath",
	EmptyImagePath:         "EmptyImagePath",
}

// String returns the kind's identifier.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsError reports whether problems of this kind reject the package.
func (k Kind) IsError() bool {
	switch k {
	case CantParseManifest, UnknownManifestVersion, OutOfSupportManifest, Duplicate, InvalidPath:
		return true
	default:
		return false
	}
}

// IsValid reports whether k is a member of the closed kind set.
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// Kinds returns every problem kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := CantParseManifest; k <= EmptyImagePath; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Problem is a non-fatal finding about one package directory.
//
//nolint:errname // Problems are collected, not returned as errors.
type Problem struct {
	// Directory is the package directory the problem was found in.
	Directory string
	// Kind classifies the problem.
	Kind Kind
	// Path is the offending manifest path, when the kind refers to one.
	Path string
	// DeclaredVersion and EngineVersion are set for OutOfSupportManifest.
	DeclaredVersion int
	EngineVersion   int
	// Resolution is set for NoManifestFound.
	Resolution Resolution
	// Detail carries the parser message for CantParseManifest and the
	// directory already holding the GUID for Duplicate.
	Detail string
}

// IsError reports whether the problem rejects its package.
func (p Problem) IsError() bool { return p.Kind.IsError() }

// String renders a single-line plain-text form, used in logs.
func (p Problem) String() string {
	s := p.Kind.String() + " in " + p.Directory
	if p.Path != "" {
		s += " (" + p.Path + ")"
	}
	return s
}

// HasErrors reports whether any problem is error-level.
func HasErrors(problems []Problem) bool {
	return slices.ContainsFunc(problems, Problem.IsError)
}

// Split partitions problems into errors and warnings, preserving order.
func Split(problems []Problem) (errs, warnings []Problem) {
	for _, p := range problems {
		if p.IsError() {
			errs = append(errs, p)
		} else {
			warnings = append(warnings, p)
		}
	}
	return errs, warnings
}
