// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hd2mm/hd2mm/internal/platform"
)

type (
	// openFunc opens the content of the current entry. It is only valid
	// for the duration of the visit call it was passed to.
	openFunc func() (io.ReadCloser, error)

	visitFunc func(e Entry, open openFunc) error

	walker interface {
		walk(ctx context.Context, path string, visit visitFunc) error
	}

	extractor struct {
		format Format
		walker walker
	}
)

func (x *extractor) Format() Format { return x.format }

// Entries lists every entry in archive order.
func (x *extractor) Entries(ctx context.Context, archivePath string) ([]Entry, error) {
	var entries []Entry
	err := x.walker.walk(ctx, archivePath, func(e Entry, _ openFunc) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ExtractAll writes every entry below dest, creating it when needed.
// Symlinks are skipped; an entry escaping dest aborts extraction.
func (x *extractor) ExtractAll(ctx context.Context, archivePath, dest string) error {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err = os.MkdirAll(absDest, 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	return x.walker.walk(ctx, archivePath, func(e Entry, open openFunc) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsSymlink() {
			return nil
		}

		target, err := safeJoin(absDest, e.Name)
		if err != nil {
			return err
		}
		if target == absDest {
			return nil
		}

		if e.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			return nil
		}
		if e.Mode.Type() != 0 {
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := writeEntry(open, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", e.Name, err)
		}
		return nil
	})
}

// safeJoin maps an archive entry name onto dest. Backslashes are treated as
// separators since rar and zip files built on Windows often use them.
// Windows device names are refused because the game cannot open them.
func safeJoin(dest, name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if filepath.VolumeName(name) != "" || slices.Contains(strings.Split(slashed, "/"), "..") ||
		platform.HasReservedElement(slashed) {
		return "", &UnsafePathError{Name: name}
	}

	target := filepath.Join(dest, filepath.FromSlash(slashed))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &UnsafePathError{Name: name}
	}
	return target, nil
}

func writeEntry(open openFunc, target string) (err error) {
	rc, err := open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives are user-selected local files
	_, err = io.Copy(out, rc)
	return err
}
