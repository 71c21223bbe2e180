// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Tar compression variants accepted by WriteTar.
const (
	TarPlain = ""
	TarGzip  = "gz"
	TarZstd  = "zst"
)

// ArchiveFile is one member of a fixture archive. Dir entries have no body;
// a non-empty Link makes the member a symlink to Link.
type ArchiveFile struct {
	Name string
	Body string
	Dir  bool
	Link string
}

var fixtureTime = time.Date(2024, 2, 8, 12, 0, 0, 0, time.UTC)

// Files is shorthand for regular-file members built from name/body pairs.
func Files(nameBody ...string) []ArchiveFile {
	if len(nameBody)%2 != 0 {
		panic("testutil.Files: odd number of arguments")
	}
	files := make([]ArchiveFile, 0, len(nameBody)/2)
	for i := 0; i < len(nameBody); i += 2 {
		files = append(files, ArchiveFile{Name: nameBody[i], Body: nameBody[i+1]})
	}
	return files
}

// WriteZip writes a zip archive containing files to path.
func WriteZip(t testing.TB, path string, files []ArchiveFile) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, file := range files {
		hdr := &zip.FileHeader{Name: file.Name, Method: zip.Deflate, Modified: fixtureTime}
		switch {
		case file.Dir:
			hdr.SetMode(os.ModeDir | 0o755)
		case file.Link != "":
			hdr.SetMode(os.ModeSymlink | 0o777)
		default:
			hdr.SetMode(0o644)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("failed to add %s: %v", file.Name, err)
		}
		body := file.Body
		if file.Link != "" {
			body = file.Link
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatalf("failed to write %s: %v", file.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", path, err)
	}
}

// WriteTar writes a tar archive containing files to path, compressed
// according to compression (TarPlain, TarGzip or TarZstd).
func WriteTar(t testing.TB, path string, files []ArchiveFile, compression string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}

	var (
		w       io.Writer = f
		closers []io.Closer
	)
	switch compression {
	case TarGzip:
		gz := gzip.NewWriter(f)
		w, closers = gz, append(closers, gz)
	case TarZstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			t.Fatalf("failed to create zstd writer: %v", err)
		}
		w, closers = zw, append(closers, zw)
	}

	tw := tar.NewWriter(w)
	for _, file := range files {
		hdr := &tar.Header{Name: file.Name, ModTime: fixtureTime, Mode: 0o644, Format: tar.FormatPAX}
		switch {
		case file.Dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		case file.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = file.Link
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(file.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to add %s: %v", file.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, file.Body); err != nil {
				t.Fatalf("failed to write %s: %v", file.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to finish tar: %v", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			t.Fatalf("failed to finish compression: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", path, err)
	}
}
