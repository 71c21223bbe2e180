// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hd2mm/hd2mm/internal/issue"
)

// Load reads, parses and validates dir/manifest.json.
//
// It returns ErrManifestNotFound when the file is absent, a *ParseError or
// *VersionError when it cannot be decoded, and otherwise the manifest with
// its validation result (which may itself contain error-level problems).
func Load(dir string) (*Manifest, Result, error) {
	p := filepath.Join(dir, FileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Result{}, fmt.Errorf("%s: %w", dir, ErrManifestNotFound)
		}
		return nil, Result{}, fmt.Errorf("read manifest: %w", err)
	}

	m, err := Parse(data, p)
	if err != nil {
		return nil, Result{}, err
	}
	return m, Validate(m, dir), nil
}

// Exists reports whether dir contains a manifest file.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && !info.IsDir()
}

// ProblemFor maps a Load or Parse error to the problem it represents. The
// second result is false for errors that are not manifest problems (I/O
// failures), which callers treat as fatal.
func ProblemFor(err error, dir string) (issue.Problem, bool) {
	var verr *VersionError
	var perr *ParseError
	switch {
	case errors.Is(err, ErrManifestNotFound):
		return issue.Problem{Directory: dir, Kind: issue.NoManifestFound}, true
	case errors.As(err, &verr):
		if verr.OutOfSupport() {
			return issue.Problem{
				Directory:       dir,
				Kind:            issue.OutOfSupportManifest,
				DeclaredVersion: verr.Declared,
				EngineVersion:   verr.Supported,
			}, true
		}
		return issue.Problem{Directory: dir, Kind: issue.UnknownManifestVersion}, true
	case errors.As(err, &perr):
		return issue.Problem{Directory: dir, Kind: issue.CantParseManifest, Detail: perr.Err.Error()}, true
	default:
		return issue.Problem{}, false
	}
}
