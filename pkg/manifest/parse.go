// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/pkg/cueutil"
)

type (
	// ParseError reports a manifest that is not well-formed or violates the schema.
	ParseError struct {
		Filename string
		Err      error
	}

	// VersionError reports a manifest whose Version cannot be handled.
	// Declared is meaningful only when Known is true.
	VersionError struct {
		Filename  string
		Declared  int
		Supported int
		Known     bool
	}
)

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCantParseManifest, e.Err)
}

// Unwrap returns both ErrCantParseManifest and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{ErrCantParseManifest, e.Err} }

// Error implements the error interface.
func (e *VersionError) Error() string {
	if e.OutOfSupport() {
		return fmt.Sprintf("%s: %s declares version %d, newest supported is %d",
			ErrOutOfSupportManifest, e.Filename, e.Declared, e.Supported)
	}
	return fmt.Sprintf("%s: %s", ErrUnknownManifestVersion, e.Filename)
}

// OutOfSupport reports whether the declared version is newer than supported.
func (e *VersionError) OutOfSupport() bool { return e.Known && e.Declared > e.Supported }

// Unwrap returns ErrOutOfSupportManifest or ErrUnknownManifestVersion.
func (e *VersionError) Unwrap() error {
	if e.OutOfSupport() {
		return ErrOutOfSupportManifest
	}
	return ErrUnknownManifestVersion
}

// Parse decodes manifest bytes. filename is used in error messages only.
//
// The returned error is a *ParseError or a *VersionError; callers map them to
// problem kinds with errors.Is against the package sentinels.
func Parse(data []byte, filename string) (*Manifest, error) {
	if filename == "" {
		filename = FileName
	}

	raw, err := cueutil.Compile(data, cueutil.WithFilename(filename))
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}
	if raw.IncompleteKind() != cue.StructKind {
		return nil, &ParseError{Filename: filename, Err: errors.New("document is not an object")}
	}

	version, err := cueutil.LookupInt(raw, "Version")
	if err != nil || version < 1 {
		return nil, &VersionError{Filename: filename, Supported: SupportedVersion}
	}
	if version > SupportedVersion {
		return nil, &VersionError{
			Filename:  filename,
			Declared:  int(version),
			Supported: SupportedVersion,
			Known:     true,
		}
	}

	result, err := cueutil.ParseAndDecode[Manifest](manifestSchema, data, "#Manifest", cueutil.WithFilename(filename))
	if err != nil {
		return nil, &ParseError{Filename: filename, Err: err}
	}

	m := result.Value
	markPresentSubOptions(m, raw)

	if m.Guid == "" {
		m.ID = uuid.New()
		m.Generated = true
	} else {
		id, err := uuid.Parse(m.Guid)
		if err != nil {
			return nil, &ParseError{Filename: filename, Err: fmt.Errorf("invalid Guid %q: %w", m.Guid, err)}
		}
		m.ID = id
	}
	m.Guid = m.ID.String()

	return m, nil
}

// markPresentSubOptions turns SubOptions declared as [] into a non-nil empty
// slice so Validate can tell "present but empty" from "absent". A null
// SubOptions counts as absent.
func markPresentSubOptions(m *Manifest, v cue.Value) {
	for i := range m.Options {
		if m.Options[i].SubOptions != nil {
			continue
		}
		path := cue.MakePath(cue.Str("Options"), cue.Index(i), cue.Str("SubOptions"))
		if sub := v.LookupPath(path); sub.Exists() && !sub.IsNull() {
			m.Options[i].SubOptions = []SubOption{}
		}
	}
}
