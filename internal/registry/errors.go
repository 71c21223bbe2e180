// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrDuplicate is wrapped by DuplicateError.
	ErrDuplicate = errors.New("package already registered")
	// ErrNotFound is returned when a reference matches no package.
	ErrNotFound = errors.New("package not found")
	// ErrAmbiguous is returned when a GUID prefix matches several packages.
	ErrAmbiguous = errors.New("package reference is ambiguous")
	// ErrOptionIndex is wrapped by OptionIndexError.
	ErrOptionIndex = errors.New("option index out of range")
)

type (
	// DuplicateError is returned by Insert and Replace when the draft's GUID
	// is already registered.
	DuplicateError struct {
		ID       uuid.UUID
		Existing string
	}

	// LookupError reports a failed Resolve.
	LookupError struct {
		Ref string
		// Err is ErrNotFound or ErrAmbiguous.
		Err error
		// Matches lists the candidates of an ambiguous reference.
		Matches []string
	}

	// OptionIndexError reports an option or sub-option index out of range.
	// Option is empty when the option index itself was invalid.
	OptionIndexError struct {
		Package string
		Option  string
		Index   int
		Count   int
	}
)

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("package %s is already registered as %q", e.ID, e.Existing)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

func (e *LookupError) Error() string {
	if len(e.Matches) > 0 {
		return fmt.Sprintf("%s: %q matches %v", e.Err, e.Ref, e.Matches)
	}
	return fmt.Sprintf("%s: %q", e.Err, e.Ref)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *OptionIndexError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("sub-option %d of %q in %s is out of range (0-%d)", e.Index, e.Option, e.Package, e.Count-1)
	}
	return fmt.Sprintf("option %d of %s is out of range (0-%d)", e.Index, e.Package, e.Count-1)
}

func (e *OptionIndexError) Unwrap() error { return ErrOptionIndex }
