// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type tarWalker struct {
	compression Format
}

func (w tarWalker) walk(ctx context.Context, path string, visit visitFunc) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var src io.Reader = f
	switch w.compression {
	case FormatTarGz:
		gz, gzErr := gzip.NewReader(f)
		if gzErr != nil {
			return fmt.Errorf("failed to open gzip stream: %w", gzErr)
		}
		defer func() { _ = gz.Close() }()
		src = gz
	case FormatTarZst:
		zr, zErr := zstd.NewReader(f)
		if zErr != nil {
			return fmt.Errorf("failed to open zstd stream: %w", zErr)
		}
		defer zr.Close()
		src = zr
	}

	tr := tar.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		e := Entry{
			Name:  hdr.Name,
			Size:  hdr.Size,
			IsDir: hdr.Typeflag == tar.TypeDir,
			Mode:  tarMode(hdr),
		}
		if err := visit(e, func() (io.ReadCloser, error) { return io.NopCloser(tr), nil }); err != nil {
			return err
		}
	}
}

func tarMode(hdr *tar.Header) fs.FileMode {
	switch hdr.Typeflag {
	case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // TypeRegA still appears in old archives
		return 0o644
	case tar.TypeDir:
		return fs.ModeDir | 0o755
	case tar.TypeSymlink, tar.TypeLink:
		return fs.ModeSymlink
	default:
		return fs.ModeIrregular
	}
}
