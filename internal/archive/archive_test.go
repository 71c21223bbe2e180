// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hd2mm/hd2mm/internal/testutil"
)

var fixtureFiles = append(
	testutil.Files(
		"Better Rifles/manifest.json", `{"Version": 1, "Name": "Better Rifles"}`,
		"Better Rifles/default/9ba626afa44a3aa3.patch_0", "patch",
		`Better Rifles\win\2e24ba9dd702da5c.patch_0.stream`, "stream",
	),
	testutil.ArchiveFile{Name: "Better Rifles/empty/", Dir: true},
)

func TestExtractAll_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		format Format
		write  func(t *testing.T, path string)
	}{
		{
			name:   "zip",
			file:   "mod.zip",
			format: FormatZip,
			write:  func(t *testing.T, p string) { testutil.WriteZip(t, p, fixtureFiles) },
		},
		{
			name:   "tar",
			file:   "mod.tar",
			format: FormatTar,
			write:  func(t *testing.T, p string) { testutil.WriteTar(t, p, fixtureFiles, testutil.TarPlain) },
		},
		{
			name:   "tar.gz",
			file:   "mod.tgz",
			format: FormatTarGz,
			write:  func(t *testing.T, p string) { testutil.WriteTar(t, p, fixtureFiles, testutil.TarGzip) },
		},
		{
			name:   "tar.zst",
			file:   "mod.tar.zst",
			format: FormatTarZst,
			write:  func(t *testing.T, p string) { testutil.WriteTar(t, p, fixtureFiles, testutil.TarZstd) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, tt.file)
			tt.write(t, src)

			format, err := Detect(src)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)

			x, err := Open(src)
			require.NoError(t, err)
			assert.Equal(t, tt.format, x.Format())

			entries, err := x.Entries(context.Background(), src)
			require.NoError(t, err)
			assert.Len(t, entries, len(fixtureFiles))

			dest := filepath.Join(dir, "out")
			require.NoError(t, x.ExtractAll(context.Background(), src, dest))

			assert.Equal(t, []string{
				"Better Rifles/default/9ba626afa44a3aa3.patch_0",
				"Better Rifles/manifest.json",
				"Better Rifles/win/2e24ba9dd702da5c.patch_0.stream",
			}, testutil.ListFiles(t, dest))
			assert.Equal(t, "stream", testutil.MustReadFile(t, filepath.Join(dest, "Better Rifles", "win", "2e24ba9dd702da5c.patch_0.stream")))
			assert.DirExists(t, filepath.Join(dest, "Better Rifles", "empty"))
		})
	}
}

func TestExtractAll_RejectsZipSlip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"../evil.txt", `..\evil.txt`, "ok/../../evil.txt"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "slip.zip")
			testutil.WriteZip(t, src, testutil.Files("good.txt", "g", name, "evil"))

			x, err := New(FormatZip)
			require.NoError(t, err)
			err = x.ExtractAll(context.Background(), src, filepath.Join(dir, "out"))
			require.ErrorIs(t, err, ErrUnsafePath)

			_, statErr := os.Stat(filepath.Join(dir, "evil.txt"))
			assert.True(t, os.IsNotExist(statErr), "escaped file must not be written")
		})
	}
}

func TestExtractAll_SkipsSymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "links.tar")
	testutil.WriteTar(t, src, append(
		testutil.Files("real.txt", "r"),
		testutil.ArchiveFile{Name: "link.txt", Link: "/etc/passwd"},
	), testutil.TarPlain)

	x, err := New(FormatTar)
	require.NoError(t, err)

	entries, err := x.Entries(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsSymlink())

	dest := filepath.Join(dir, "out")
	require.NoError(t, x.ExtractAll(context.Background(), src, dest))
	assert.Equal(t, []string{"real.txt"}, testutil.ListFiles(t, dest))
}

func TestExtractAll_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "mod.zip")
	testutil.WriteZip(t, src, fixtureFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, err := New(FormatZip)
	require.NoError(t, err)
	require.ErrorIs(t, x.ExtractAll(ctx, src, filepath.Join(dir, "out")), context.Canceled)
}

func TestExtractAll_CorruptArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "broken.zip")
	testutil.MustWriteFile(t, src, "PK\x03\x04 this is not really a zip")

	x, err := Open(src)
	require.NoError(t, err)
	assert.Error(t, x.ExtractAll(context.Background(), src, filepath.Join(dir, "out")))
}

func TestDetect(t *testing.T) {
	t.Parallel()

	ustar := make([]byte, 300)
	copy(ustar[257:], "ustar")

	tests := []struct {
		name    string
		file    string
		content []byte
		want    Format
		wantErr error
	}{
		{name: "zip magic wins over extension", file: "mod.rar", content: []byte("PK\x03\x04rest"), want: FormatZip},
		{name: "rar magic", file: "mod.bin", content: []byte("Rar!\x1a\x07\x01\x00"), want: FormatRar},
		{name: "7z magic", file: "mod.bin", content: []byte("7z\xbc\xaf\x27\x1c\x00\x04"), want: Format7z},
		{name: "gzip magic", file: "mod.bin", content: []byte{0x1f, 0x8b, 0x08, 0x00}, want: FormatTarGz},
		{name: "zstd magic", file: "mod.bin", content: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}, want: FormatTarZst},
		{name: "ustar magic", file: "mod.bin", content: ustar, want: FormatTar},
		{name: "extension fallback", file: "MOD.7Z", content: []byte("????"), want: Format7z},
		{name: "tgz extension", file: "mod.tgz", content: []byte("??"), want: FormatTarGz},
		{name: "unknown", file: "mod.txt", content: []byte("hello"), wantErr: ErrUnsupportedFormat},
		{name: "empty file", file: "empty", content: nil, wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(p, tt.content, 0o644))

			got, err := Detect(p)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var uerr *UnsupportedFormatError
				require.ErrorAs(t, err, &uerr)
				assert.Equal(t, p, uerr.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Detect(filepath.Join(t.TempDir(), "nope.zip"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_Unknown(t *testing.T) {
	t.Parallel()

	_, err := New(FormatUnknown)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "7z", Format7z.String())
	assert.Equal(t, "Format(42)", Format(42).String())
}

func TestSafeJoin(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	got, err := safeJoin(dest, `a\b/c.txt`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "a", "b", "c.txt"), got)

	got, err = safeJoin(dest, "/abs/file")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "abs", "file"), got)

	_, err = safeJoin(dest, "a/../../x")
	assert.ErrorIs(t, err, ErrUnsafePath)

	_, err = safeJoin(dest, "mod/CON.txt")
	assert.ErrorIs(t, err, ErrUnsafePath)
}
