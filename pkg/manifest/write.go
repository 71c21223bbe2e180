// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hd2mm/hd2mm/pkg/fspath"
)

// Encode renders m as indented JSON with its Guid set from ID.
func Encode(m *Manifest) ([]byte, error) {
	out := *m
	out.Guid = m.ID.String()
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write replaces dir/manifest.json with m and clears m.Generated.
func Write(dir string, m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := fspath.WriteFileAtomic(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	m.Generated = false
	return nil
}
