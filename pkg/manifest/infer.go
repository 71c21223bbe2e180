// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"

	"github.com/google/uuid"
)

// Infer synthesizes a manifest for a package that ships without one: a single
// option, named after the package, that includes every file under dir.
func Infer(dir, name string) (*Manifest, error) {
	files, err := listFiles(dir, dir)
	if err != nil {
		return nil, fmt.Errorf("infer manifest for %s: %w", dir, err)
	}

	id := uuid.New()
	return &Manifest{
		Version:   SupportedVersion,
		Guid:      id.String(),
		ID:        id,
		Generated: true,
		Name:      name,
		Options:   []Option{{
			Name:    name,
			Include: files,
		}},
	}, nil
}
