// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"errors"

	"github.com/google/uuid"
)

const (
	// FileName is the manifest file name at the root of a package.
	FileName = "manifest.json"

	// SupportedVersion is the newest manifest schema version this build reads.
	SupportedVersion = 1

	// NoSubOption is the selection value for "no sub-option chosen".
	NoSubOption = -1
)

var (
	//go:embed manifest_schema.cue
	manifestSchema []byte

	// ErrManifestNotFound is returned by Load when the package has no manifest.json.
	ErrManifestNotFound = errors.New("manifest.json not found")

	// ErrCantParseManifest is wrapped by ParseError.
	ErrCantParseManifest = errors.New("cannot parse manifest")

	// ErrUnknownManifestVersion is wrapped by VersionError when the version is
	// absent, not an integer, or below 1.
	ErrUnknownManifestVersion = errors.New("unknown manifest version")

	// ErrOutOfSupportManifest is wrapped by VersionError when the version is
	// newer than SupportedVersion.
	ErrOutOfSupportManifest = errors.New("manifest version out of support")
)

type (
	// Manifest describes a mod package. JSON field names are PascalCase to
	// stay compatible with manifests written for other managers.
	Manifest struct {
		Version     int      `json:"Version"`
		Guid        string   `json:"Guid,omitempty"`
		Name        string   `json:"Name"`
		Description string   `json:"Description,omitempty"`
		IconPath    *string  `json:"IconPath,omitempty"`
		Options     []Option `json:"Options,omitempty"`

		// ID is the parsed Guid, or a fresh random GUID when the manifest
		// declares none.
		ID uuid.UUID `json:"-"`
		// Generated is set when ID did not come from the file. Such manifests
		// must be written back with Write to keep their identity.
		Generated bool `json:"-"`
	}

	// Option is one independently toggled installable unit.
	// SubOptions is nil when the manifest omits the field or sets it to null,
	// and non-nil (possibly empty) otherwise.
	Option struct {
		Name        string      `json:"Name"`
		Description string      `json:"Description,omitempty"`
		Image       *string     `json:"Image,omitempty"`
		Include     []string    `json:"Include,omitempty"`
		SubOptions  []SubOption `json:"SubOptions,omitempty"`
	}

	// SubOption is a mutually exclusive alternative inside an Option.
	SubOption struct {
		Name        string   `json:"Name"`
		Description string   `json:"Description,omitempty"`
		Image       *string  `json:"Image,omitempty"`
		Include     []string `json:"Include,omitempty"`
	}
)

// HasSubOptions reports whether the option declares at least one sub-option.
func (o *Option) HasSubOptions() bool { return len(o.SubOptions) > 0 }

// DefaultSelection returns the initial sub-option selection for the option:
// the first sub-option when any exist, NoSubOption otherwise.
func (o *Option) DefaultSelection() int {
	if o.HasSubOptions() {
		return 0
	}
	return NoSubOption
}

// ClampSelection maps sel onto a valid selection for the option.
func (o *Option) ClampSelection(sel int) int {
	if !o.HasSubOptions() {
		return NoSubOption
	}
	if sel < 0 || sel >= len(o.SubOptions) {
		return 0
	}
	return sel
}
