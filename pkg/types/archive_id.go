// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ArchiveIDLength is the number of hex characters in a game archive name.
const ArchiveIDLength = 16

// ErrInvalidArchiveID is the sentinel error wrapped by InvalidArchiveIDError.
var ErrInvalidArchiveID = errors.New("invalid archive id")

type (
	// ArchiveID is the 16-character hexadecimal name of a game data archive
	// (e.g. "9ba626afa44a3aa3"). Patch files layer on top of an archive and
	// are named "<id>.patch_<n>".
	ArchiveID string

	// InvalidArchiveIDError is returned when an ArchiveID is not exactly
	// 16 hexadecimal characters.
	InvalidArchiveIDError struct {
		Value ArchiveID
	}
)

// ParseArchiveID normalizes s to lower case and validates it.
func ParseArchiveID(s string) (ArchiveID, error) {
	id := ArchiveID(strings.ToLower(strings.TrimSpace(s)))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// String returns the string representation of the ArchiveID.
func (id ArchiveID) String() string { return string(id) }

// Validate returns an error unless the id is exactly 16 hex characters.
func (id ArchiveID) Validate() error {
	if len(id) != ArchiveIDLength {
		return &InvalidArchiveIDError{Value: id}
	}
	for _, c := range id {
		if !isHex(c) {
			return &InvalidArchiveIDError{Value: id}
		}
	}
	return nil
}

// Error implements the error interface for InvalidArchiveIDError.
func (e *InvalidArchiveIDError) Error() string {
	return fmt.Sprintf("invalid archive id %q: must be %d hexadecimal characters", e.Value, ArchiveIDLength)
}

// Unwrap returns ErrInvalidArchiveID for errors.Is() compatibility.
func (e *InvalidArchiveIDError) Unwrap() error { return ErrInvalidArchiveID }

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
