// SPDX-License-Identifier: MPL-2.0

package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/hd2mm/hd2mm/pkg/fspath"
	"github.com/hd2mm/hd2mm/pkg/types"
)

type (
	// PurgeResult summarizes a purge.
	PurgeResult struct {
		// Removed lists the deleted paths, relative to the data directory.
		Removed []string
		// Missing counts journal entries that were already gone.
		Missing int
		// Refused lists journal entries pointing outside the data directory.
		Refused []string
	}

	// Status is the verification outcome for one entry.
	Status int

	// EntryStatus pairs a journal entry with its verification status.
	EntryStatus struct {
		Entry  Entry
		Status Status
		// Actual is the current digest when the file exists.
		Actual string
	}

	// Report is the outcome of Verify. Journal is nil when nothing is deployed.
	Report struct {
		Journal *Journal
		Entries []EntryStatus
	}
)

const (
	// StatusOK means the file exists with the recorded digest.
	StatusOK Status = iota
	// StatusMissing means the file no longer exists.
	StatusMissing
	// StatusModified means the file content changed since deployment.
	StatusModified
	// StatusUnrecorded means the entry has no digest (pending journal).
	StatusUnrecorded
	// StatusRefused means the entry points outside the data directory.
	StatusRefused
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusModified:
		return "modified"
	case StatusUnrecorded:
		return "unrecorded"
	case StatusRefused:
		return "refused"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Clean reports whether every entry verified OK.
func (r *Report) Clean() bool {
	if r.Journal != nil && r.Journal.State != StateComplete {
		return false
	}
	for _, e := range r.Entries {
		if e.Status != StatusOK {
			return false
		}
	}
	return true
}

// FormatDigest renders an xxhash64 sum the way the journal stores it.
func FormatDigest(sum uint64) string { return fmt.Sprintf("%016x", sum) }

// DigestFile returns the xxhash64 digest of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return FormatDigest(h.Sum64()), nil
}

// Purge deletes every file listed in the journal and clears it. An absent
// journal is a no-op. Files already gone are tolerated; entries escaping the
// data directory are refused and left alone. On error the journal is kept
// so the purge can be retried.
func (s *Store) Purge(ctx context.Context) (PurgeResult, error) {
	var res PurgeResult

	j, err := s.Read()
	if err != nil || j == nil {
		return res, err
	}

	for _, e := range j.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		full, ok := fspath.JoinWithin(s.dataDir, e.Path)
		if !ok {
			s.logger.Warn("refusing to delete path outside the data directory", "path", e.Path)
			res.Refused = append(res.Refused, e.Path)
			continue
		}
		if err := os.Remove(full); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				res.Missing++
				continue
			}
			return res, fmt.Errorf("purge %s: %w", e.Path, err)
		}
		res.Removed = append(res.Removed, e.Path)
	}

	if err := s.Clear(); err != nil {
		return res, err
	}
	s.logger.Info("purge complete", "removed", len(res.Removed), "missing", res.Missing, "refused", len(res.Refused))
	return res, nil
}

// HardPurge deletes every "<id>.patch_<n>" file in the data directory
// regardless of the journal, except slot 0 of skip-listed archives, and
// removes the journal file. Files that do not follow the patch naming
// convention are never touched.
func (s *Store) HardPurge(ctx context.Context, skip types.SkipList) (PurgeResult, error) {
	var res PurgeResult

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return res, fmt.Errorf("read data directory: %w", err)
	}
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !de.Type().IsRegular() {
			continue
		}
		pn, ok := types.ParsePatchName(de.Name())
		if !ok || !pn.HasPatch() {
			continue
		}
		if pn.Patch == 0 && skip.Contains(pn.ID) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dataDir, de.Name())); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				res.Missing++
				continue
			}
			return res, fmt.Errorf("hard purge %s: %w", de.Name(), err)
		}
		res.Removed = append(res.Removed, de.Name())
	}

	if err := s.Clear(); err != nil {
		return res, err
	}
	s.logger.Info("hard purge complete", "removed", len(res.Removed))
	return res, nil
}

// Verify compares the files on disk with the journal digests.
func (s *Store) Verify(ctx context.Context) (*Report, error) {
	j, err := s.Read()
	if err != nil {
		return nil, err
	}
	report := &Report{Journal: j}
	if j == nil {
		return report, nil
	}

	for _, e := range j.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := EntryStatus{Entry: e}
		full, ok := fspath.JoinWithin(s.dataDir, e.Path)
		if !ok {
			st.Status = StatusRefused
			report.Entries = append(report.Entries, st)
			continue
		}

		actual, err := DigestFile(full)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			st.Status = StatusMissing
		case err != nil:
			return nil, fmt.Errorf("verify %s: %w", e.Path, err)
		case e.Digest == "":
			st.Actual, st.Status = actual, StatusUnrecorded
		case actual != e.Digest:
			st.Actual, st.Status = actual, StatusModified
		default:
			st.Actual, st.Status = actual, StatusOK
		}
		report.Entries = append(report.Entries, st)
	}
	return report, nil
}
