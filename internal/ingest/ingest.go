// SPDX-License-Identifier: MPL-2.0

// Package ingest turns an archive file into a staged, validated package
// draft ready for registry insertion.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/internal/archive"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/pkg/manifest"
)

// Mode selects the policy for archives that ship without a manifest.
type Mode int

const (
	// ModeAdd infers a manifest from the extracted files.
	ModeAdd Mode = iota
	// ModeBulkLoad deletes the staged directory and reports the problem.
	ModeBulkLoad
)

type (
	// Draft is a staged package that passed structural validation.
	Draft struct {
		// Dir is the staging directory holding the extracted package root.
		Dir      string
		Manifest *manifest.Manifest
		Result   manifest.Result
		// Source is the archive the draft was extracted from.
		Source string
		// Inferred is true when the manifest was synthesized.
		Inferred bool
	}

	// Ingestor extracts archives below a temp directory.
	Ingestor struct {
		tempDir string
		logger  *log.Logger
		open    func(path string) (archive.Extractor, error)
	}
)

// New creates an Ingestor staging archives below tempDir.
func New(tempDir string, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Ingestor{
		tempDir: tempDir,
		logger:  logger.WithPrefix("ingest"),
		open:    archive.Open,
	}
}

// Discard removes the draft's staging directory.
func (d *Draft) Discard() error {
	if d == nil || d.Dir == "" {
		return nil
	}
	return os.RemoveAll(d.Dir)
}

// Ingest extracts archivePath into <temp>/<new GUID>/, hoists a single
// wrapping folder, and loads the manifest.
//
// Manifest problems are returned as problems with a nil draft when any of
// them is error-level, in which case nothing is left on disk. A non-nil
// error means the archive itself could not be read; it is always an
// *issue.ActionableError.
func (in *Ingestor) Ingest(ctx context.Context, archivePath string, mode Mode) (*Draft, []issue.Problem, error) {
	x, err := in.open(archivePath)
	if err != nil {
		return nil, nil, archiveError(archivePath, err)
	}

	staging := filepath.Join(in.tempDir, uuid.NewString())
	in.logger.Debug("extracting archive", "path", archivePath, "format", x.Format(), "staging", staging)

	if err := x.ExtractAll(ctx, archivePath, staging); err != nil {
		in.cleanup(staging)
		return nil, nil, archiveError(archivePath, err)
	}
	if err := hoist(staging); err != nil {
		in.cleanup(staging)
		return nil, nil, archiveError(archivePath, err)
	}

	m, res, err := manifest.Load(staging)
	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		return in.noManifest(staging, archivePath, mode)
	case err != nil:
		in.cleanup(staging)
		if p, ok := manifest.ProblemFor(err, staging); ok {
			return nil, []issue.Problem{p}, nil
		}
		return nil, nil, archiveError(archivePath, err)
	}

	if res.HasErrors() {
		in.cleanup(staging)
		return nil, res.Problems, nil
	}

	return &Draft{Dir: staging, Manifest: m, Result: res, Source: archivePath}, res.Problems, nil
}

func (in *Ingestor) noManifest(staging, archivePath string, mode Mode) (*Draft, []issue.Problem, error) {
	p := issue.Problem{Directory: staging, Kind: issue.NoManifestFound}

	if mode == ModeBulkLoad {
		in.cleanup(staging)
		p.Resolution = issue.ResolutionDeleted
		return nil, []issue.Problem{p}, nil
	}

	m, err := manifest.Infer(staging, DisplayName(archivePath))
	if err != nil {
		in.cleanup(staging)
		return nil, nil, archiveError(archivePath, err)
	}
	p.Resolution = issue.ResolutionInferred
	res := manifest.Validate(m, staging)
	in.logger.Info("inferred manifest", "archive", archivePath, "files", len(m.Options[0].Include))

	return &Draft{
		Dir:      staging,
		Manifest: m,
		Result:   res,
		Source:   archivePath,
		Inferred: true,
	}, append([]issue.Problem{p}, res.Problems...), nil
}

func (in *Ingestor) cleanup(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		in.logger.Warn("failed to remove staging directory", "dir", dir, "err", err)
	}
}

// hoist replaces dir's content with that of its only child while dir holds
// exactly one directory and no manifest.
func hoist(dir string) error {
	for !manifest.Exists(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		if len(entries) != 1 || !entries[0].IsDir() {
			return nil
		}

		tmp := dir + ".hoist"
		if err := os.Rename(filepath.Join(dir, entries[0].Name()), tmp); err != nil {
			return fmt.Errorf("hoist %s: %w", entries[0].Name(), err)
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("hoist %s: %w", entries[0].Name(), err)
		}
		if err := os.Rename(tmp, dir); err != nil {
			return fmt.Errorf("hoist %s: %w", entries[0].Name(), err)
		}
	}
	return nil
}

// DisplayName derives a package name from an archive file name by dropping
// the directory and every archive extension.
func DisplayName(archivePath string) string {
	name := filepath.Base(archivePath)
	lower := strings.ToLower(name)
	for _, ext := range []string{".tar.gz", ".tar.zst", ".tgz", ".tzst", ".tar", ".zip", ".rar", ".7z"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func archiveError(path string, err error) error {
	id := issue.ArchiveCorruptId
	if errors.Is(err, archive.ErrUnsupportedFormat) {
		id = issue.ArchiveUnsupportedId
	}
	return issue.NewErrorContext().
		WithOperation("ingest archive").
		WithResource(path).
		WithIssue(id).
		WithSuggestion("Re-download the mod archive and try again").
		Wrap(err).
		BuildError()
}
