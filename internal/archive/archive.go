// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies an archive container.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGz
	FormatTarZst
	FormatRar
	Format7z
)

// sniffLen covers the tar "ustar" magic at offset 257.
const sniffLen = 262

var (
	// ErrUnsupportedFormat is returned when no extractor handles the file.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrUnsafePath is returned when an entry would be written outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")

	magicZip  = []byte("PK\x03\x04")
	magicRar  = []byte("Rar!\x1a\x07")
	magic7z   = []byte("7z\xbc\xaf\x27\x1c")
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicTar  = []byte("ustar")

	formatNames = map[Format]string{
		FormatUnknown: "unknown",
		FormatZip:     "zip",
		FormatTar:     "tar",
		FormatTarGz:   "tar.gz",
		FormatTarZst:  "tar.zst",
		FormatRar:     "rar",
		Format7z:      "7z",
	}
)

type (
	// Entry describes one member of an archive. Name is slash-separated.
	Entry struct {
		Name  string
		Size  int64
		IsDir bool
		Mode  fs.FileMode
	}

	// Extractor lists and extracts archives of one format.
	Extractor interface {
		Format() Format
		Entries(ctx context.Context, path string) ([]Entry, error)
		ExtractAll(ctx context.Context, path, dest string) error
	}

	// UnsupportedFormatError wraps ErrUnsupportedFormat with the offending path.
	UnsupportedFormatError struct {
		Path string
	}

	// UnsafePathError wraps ErrUnsafePath with the offending entry name.
	UnsafePathError struct {
		Name string
	}
)

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsSymlink reports whether the entry is a symbolic link.
func (e Entry) IsSymlink() bool { return e.Mode&fs.ModeSymlink != 0 }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, e.Path)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsafePath, e.Name)
}

func (e *UnsafePathError) Unwrap() error { return ErrUnsafePath }

// New returns the extractor for format.
func New(format Format) (Extractor, error) {
	var w walker
	switch format {
	case FormatZip:
		w = zipWalker{}
	case FormatTar, FormatTarGz, FormatTarZst:
		w = tarWalker{compression: format}
	case FormatRar:
		w = rarWalker{}
	case Format7z:
		w = sevenZipWalker{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return &extractor{format: format, walker: w}, nil
}

// Detect identifies the format of the archive at path by its leading magic
// bytes, falling back to the file extension.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	if format := sniff(head[:n]); format != FormatUnknown {
		return format, nil
	}
	if format := byExtension(path); format != FormatUnknown {
		return format, nil
	}
	return FormatUnknown, &UnsupportedFormatError{Path: path}
}

// Open detects the format of path and returns its extractor.
func Open(path string) (Extractor, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	return New(format)
}

func sniff(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, magicZip):
		return FormatZip
	case bytes.HasPrefix(head, magicRar):
		return FormatRar
	case bytes.HasPrefix(head, magic7z):
		return Format7z
	case bytes.HasPrefix(head, magicGzip):
		return FormatTarGz
	case bytes.HasPrefix(head, magicZstd):
		return FormatTarZst
	case len(head) >= 257+len(magicTar) && bytes.Equal(head[257:257+len(magicTar)], magicTar):
		return FormatTar
	default:
		return FormatUnknown
	}
}

func byExtension(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		return FormatTarZst
	case strings.HasSuffix(name, ".tar"):
		return FormatTar
	case strings.HasSuffix(name, ".rar"):
		return FormatRar
	case strings.HasSuffix(name, ".7z"):
		return Format7z
	default:
		return FormatUnknown
	}
}
