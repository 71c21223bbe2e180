// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

type rarWalker struct{}

func (rarWalker) walk(ctx context.Context, path string, visit visitFunc) (err error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open rar file: %w", err)
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read rar header: %w", err)
		}

		e := Entry{
			Name:  hdr.Name,
			Size:  hdr.UnPackedSize,
			IsDir: hdr.IsDir,
			Mode:  hdr.Mode(),
		}
		if err := visit(e, func() (io.ReadCloser, error) { return io.NopCloser(r), nil }); err != nil {
			return err
		}
	}
}
