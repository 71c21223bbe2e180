// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
)

type zipWalker struct{}

func (zipWalker) walk(ctx context.Context, path string, visit visitFunc) (err error) {
	// ErrInsecurePath still yields a usable reader; names are checked by safeJoin.
	r, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("failed to open zip file: %w", err)
	}
	err = nil
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		info := f.FileInfo()
		e := Entry{
			Name:  f.Name,
			Size:  int64(f.UncompressedSize64), //nolint:gosec // sizes above 8 EiB are not realistic
			IsDir: info.IsDir(),
			Mode:  f.Mode(),
		}
		if err := visit(e, func() (io.ReadCloser, error) { return f.Open() }); err != nil {
			return err
		}
	}
	return nil
}
