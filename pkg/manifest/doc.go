// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the manifest.json format that describes a mod
// package: its identity, display metadata and the ordered list of
// installable options.
//
// Parsing is versioned. The Version field is read before the document is
// unified with the embedded CUE schema, so a manifest written for a newer
// engine is reported as out of support rather than as unparseable.
// Validation is separate from parsing: it inspects the extracted package on
// disk, resolves include paths to concrete files and reports non-fatal
// problems through internal/issue.
package manifest
