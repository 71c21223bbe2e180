// SPDX-License-Identifier: MPL-2.0

package fspath

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrDestinationExists is returned by MoveDir when dst already exists.
var ErrDestinationExists = errors.New("destination already exists")

// CopyFile copies src to dst, creating parent directories, and streams the
// content into every extra writer (typically a hash). It returns the number
// of bytes copied.
func CopyFile(src, dst string, extra ...io.Writer) (n int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var w io.Writer = out
	if len(extra) > 0 {
		w = io.MultiWriter(append([]io.Writer{out}, extra...)...)
	}
	return io.Copy(w, in)
}

// CopyDir recursively copies the regular files and directories of src into
// dst. Symlinks and other special files are skipped.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			_, err := CopyFile(p, target)
			return err
		default:
			return nil
		}
	})
}

// MoveDir moves src to dst, which must not exist. It renames when possible
// and falls back to copy-and-delete when the rename fails (for instance when
// the temp directory is on another device).
func MoveDir(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyDir(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return os.RemoveAll(src)
}
