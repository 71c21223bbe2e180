// SPDX-License-Identifier: MPL-2.0

// Package fspath holds the filesystem primitives shared by hd2mm's storage
// components: typed path joins over types.FilesystemPath, containment
// checks, atomic file replacement and directory moves that survive
// crossing devices.
package fspath

import (
	"path/filepath"
	"strings"

	"github.com/hd2mm/hd2mm/pkg/types"
)

// Join wraps filepath.Join, accepting and returning types.FilesystemPath.
func Join(elem ...types.FilesystemPath) types.FilesystemPath {
	strs := make([]string, len(elem))
	for i, e := range elem {
		strs[i] = string(e)
	}
	return types.FilesystemPath(filepath.Join(strs...))
}

// JoinStr joins raw segments (file names, constants) onto a typed base.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Within reports whether target, after cleaning, lies inside base (or is
// base itself). Both paths should be absolute or both relative.
func Within(base, target string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// JoinWithin joins a slash-separated relative path onto base and returns
// false when the result would escape base.
func JoinWithin(base, rel string) (string, bool) {
	if filepath.IsAbs(filepath.FromSlash(rel)) || strings.HasPrefix(rel, "/") {
		return "", false
	}
	full := filepath.Join(base, filepath.FromSlash(rel))
	if !Within(base, full) || full == filepath.Clean(base) {
		return "", false
	}
	return full, true
}
