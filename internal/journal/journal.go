// SPDX-License-Identifier: MPL-2.0

// Package journal records which files a deployment wrote into the game data
// directory, so they can be removed again. The journal is written as pending
// before the first copy and as complete after the last one; a purge after an
// interrupted deployment therefore still finds every planned output.
package journal

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hd2mm/hd2mm/pkg/cueutil"
	"github.com/hd2mm/hd2mm/pkg/fspath"
)

const (
	// FileName is the journal file in the storage root.
	FileName = "install_journal.cue"

	// Version is the journal format version.
	Version = 1
)

// State is the lifecycle state of a journal.
type State string

const (
	// StatePending means a deployment started and may have written any
	// subset of the entries.
	StatePending State = "pending"
	// StateComplete means every entry was written and carries a digest.
	StateComplete State = "complete"
)

var (
	//go:embed journal_schema.cue
	journalSchema []byte

	// ErrCorrupt is wrapped by CorruptError.
	ErrCorrupt = errors.New("install journal is corrupt")
)

type (
	// Entry is one file written into the data directory.
	Entry struct {
		Path   string `json:"path"`
		Digest string `json:"digest,omitempty"`
	}

	// Journal is the decoded journal file.
	Journal struct {
		Version   int     `json:"version"`
		Generated string  `json:"generated"`
		State     State   `json:"state"`
		Entries   []Entry `json:"entries"`
	}

	// CorruptError is returned when the journal file cannot be decoded.
	CorruptError struct {
		Path string
		Err  error
	}

	// Store reads and writes the journal for one data directory.
	Store struct {
		path    string
		dataDir string
		logger  *log.Logger
		now     func() time.Time
	}

	// Option configures a Store.
	Option func(*Store)
)

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCorrupt, e.Path, e.Err)
}

func (e *CorruptError) Unwrap() []error { return []error{ErrCorrupt, e.Err} }

// GeneratedAt parses the generation timestamp.
func (j *Journal) GeneratedAt() (time.Time, error) {
	return time.Parse(time.RFC3339, j.Generated)
}

// WithClock sets the time source for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store for the journal file at path, whose entries are
// relative to dataDir.
func New(path, dataDir string, logger *log.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	s := &Store{
		path:    path,
		dataDir: dataDir,
		logger:  logger.WithPrefix("journal"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the journal file path.
func (s *Store) Path() string { return s.path }

// DataDir returns the directory entries are relative to.
func (s *Store) DataDir() string { return s.dataDir }

// Read loads the journal. It returns nil, nil when no journal exists.
func (s *Store) Read() (*Journal, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	res, err := cueutil.ParseAndDecode[Journal](journalSchema, data, "#Journal", cueutil.WithFilename(s.path))
	if err != nil {
		return nil, &CorruptError{Path: s.path, Err: err}
	}
	return res.Value, nil
}

// Record atomically replaces the journal with entries in the given state.
func (s *Store) Record(state State, entries []Entry) error {
	j := &Journal{
		Version:   Version,
		Generated: s.now().UTC().Format(time.RFC3339),
		State:     state,
		Entries:   entries,
	}
	if err := fspath.WriteFileAtomic(s.path, []byte(Encode(j)), 0o644); err != nil {
		return fmt.Errorf("record journal: %w", err)
	}
	s.logger.Debug("journal recorded", "state", state, "entries", len(entries))
	return nil
}

// Clear removes the journal file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

// Encode renders j as CUE.
func Encode(j *Journal) string {
	var sb strings.Builder

	sb.WriteString("// hd2mm install journal. Do not edit: files listed here are deleted on purge.\n\n")
	fmt.Fprintf(&sb, "version:   %d\n", j.Version)
	fmt.Fprintf(&sb, "generated: %q\n", j.Generated)
	fmt.Fprintf(&sb, "state:     %q\n", j.State)

	if len(j.Entries) == 0 {
		sb.WriteString("entries: []\n")
		return sb.String()
	}
	sb.WriteString("entries: [\n")
	for _, e := range j.Entries {
		if e.Digest != "" {
			fmt.Fprintf(&sb, "\t{path: %q, digest: %q},\n", e.Path, e.Digest)
		} else {
			fmt.Fprintf(&sb, "\t{path: %q},\n", e.Path)
		}
	}
	sb.WriteString("]\n")
	return sb.String()
}
