// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"

	"github.com/hd2mm/hd2mm/internal/journal"
	"github.com/hd2mm/hd2mm/pkg/fspath"
)

type (
	// ProgressFunc is called after each copied file.
	ProgressFunc func(done, total int, output string)

	// Deployer writes plans into the data directory of its journal.
	Deployer struct {
		journal  *journal.Store
		logger   *log.Logger
		progress ProgressFunc
	}
)

// NewDeployer creates a Deployer writing into j.DataDir().
func NewDeployer(j *journal.Store, logger *log.Logger) *Deployer {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Deployer{journal: j, logger: logger.WithPrefix("deploy")}
}

// OnProgress registers fn to receive per-file progress.
func (d *Deployer) OnProgress(fn ProgressFunc) { d.progress = fn }

// Deploy records a pending journal listing every output, copies the files
// and records the complete journal with digests. If a copy fails or ctx is
// cancelled the pending journal stays behind, so the next purge removes
// whatever was written.
func (d *Deployer) Deploy(ctx context.Context, plan *Plan) ([]journal.Entry, error) {
	dataDir := d.journal.DataDir()
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not accessible", dataDir)
	}

	files := plan.Files()
	entries := make([]journal.Entry, len(files))
	for i, f := range files {
		entries[i] = journal.Entry{Path: f.Output}
	}
	if err := d.journal.Record(journal.StatePending, entries); err != nil {
		return nil, err
	}

	h := xxhash.New()
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.Reset()
		if _, err := fspath.CopyFile(f.Source, filepath.Join(dataDir, f.Output), h); err != nil {
			return nil, fmt.Errorf("deploy %s: %w", f.Output, err)
		}
		entries[i].Digest = journal.FormatDigest(h.Sum64())
		d.logger.Debug("deployed", "source", f.Source, "output", f.Output)
		if d.progress != nil {
			d.progress(i+1, len(files), f.Output)
		}
	}

	if err := d.journal.Record(journal.StateComplete, entries); err != nil {
		return nil, err
	}
	d.logger.Info("deployment complete", "files", len(files), "bundles", len(plan.Bundles))
	return entries, nil
}
