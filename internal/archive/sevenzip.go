// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

type sevenZipWalker struct{}

func (sevenZipWalker) walk(ctx context.Context, path string, visit visitFunc) (err error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open 7z file: %w", err)
	}
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
			Size:  info.Size(),
			IsDir: info.IsDir(),
			Mode:  info.Mode(),
		}
		if err := visit(e, func() (io.ReadCloser, error) { return f.Open() }); err != nil {
			return err
		}
	}
	return nil
}
