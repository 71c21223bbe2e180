// SPDX-License-Identifier: MPL-2.0

// Package engine is the single serialization point of hd2mm. It owns the
// registry, the ingestor, the journal and the profile file, and runs every
// state-changing operation under one mutex.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/internal/config"
	"github.com/hd2mm/hd2mm/internal/deploy"
	"github.com/hd2mm/hd2mm/internal/ingest"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/internal/journal"
	"github.com/hd2mm/hd2mm/internal/profile"
	"github.com/hd2mm/hd2mm/internal/registry"
	"github.com/hd2mm/hd2mm/pkg/types"
)

var (
	// ErrNilNotifier is returned by New when no Notifier is supplied.
	ErrNilNotifier = errors.New("engine requires a notifier")
	// ErrCanceled is returned when a confirmation callback declines.
	ErrCanceled = errors.New("operation canceled")
	// ErrRejected is wrapped by RejectedError.
	ErrRejected = errors.New("archive rejected")
)

type (
	// ConfirmFunc asks the user to approve a destructive operation.
	ConfirmFunc func(prompt string) bool

	// RejectedError reports an archive whose manifest failed validation.
	// The problems were also sent to the Notifier.
	RejectedError struct {
		Archive  string
		Problems []issue.Problem
	}

	// Engine is safe for concurrent use.
	Engine struct {
		mu sync.Mutex

		logger      *log.Logger
		notifier    Notifier
		registry    *registry.Registry
		ingestor    *ingest.Ingestor
		journal     *journal.Store
		deployer    *deploy.Deployer
		profilePath string
		skip        types.SkipList
		caseSearch  bool
	}

	// Option configures an Engine.
	Option func(*options)

	options struct {
		now      func() time.Time
		parallel int
	}
)

// WithClock sets the time source for package and journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithParallelism bounds concurrent manifest loading during Init.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallel = n }
}

// New wires an Engine from validated configuration. The notifier must be
// constructed first; operations that touch the game directory fail with
// config.ErrGameDirectoryNotSet until one is configured.
func New(cfg *config.Config, notifier Notifier, logger *log.Logger, opts ...Option) (*Engine, error) {
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	storage, err := cfg.StoragePath()
	if err != nil {
		return nil, fmt.Errorf("resolve storage directory: %w", err)
	}
	temp, err := cfg.TempPath()
	if err != nil {
		return nil, fmt.Errorf("resolve temp directory: %w", err)
	}

	e := &Engine{
		logger:      logger.WithPrefix("engine"),
		notifier:    notifier,
		registry:    registry.New(storage, logger, registry.WithClock(o.now), registry.WithParallelism(o.parallel)),
		ingestor:    ingest.New(temp, logger),
		profilePath: filepath.Join(storage, profile.FileName),
		skip:        cfg.Skip(),
		caseSearch:  cfg.CaseSensitiveSearch,
	}
	if cfg.GameDirectory.IsSet() {
		e.journal = journal.New(filepath.Join(storage, journal.FileName), cfg.GameDirectory.DataDir(), logger, journal.WithClock(o.now))
		e.deployer = deploy.NewDeployer(e.journal, logger)
		e.deployer.OnProgress(func(done, total int, output string) {
			e.notifier.Progress(ProgressEvent{Operation: "deploy", Done: done, Total: total, Item: output})
		})
	}
	return e, nil
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s (%d problems)", ErrRejected, e.Archive, len(e.Problems))
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// StorageDir returns the directory packages are stored in.
func (e *Engine) StorageDir() string { return e.registry.Root() }

// Init scans the storage directory, applies the profile and reports scan
// problems and profile warnings.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, problems, err := e.registry.Scan(ctx)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("scan storage").
			WithResource(e.registry.Root()).
			WithIssue(issue.StorageUnavailableId).
			WithSuggestion("Check that storage_directory exists and is writable").
			Wrap(err).
			BuildError()
	}
	e.notifyProblems("scan", problems)

	ordered, warnings, err := profile.Load(e.profilePath, e.registry)
	if err != nil {
		return err
	}
	if ordered != nil {
		ids := make([]uuid.UUID, len(ordered))
		for i, p := range ordered {
			ids[i] = p.ID
		}
		e.registry.SetOrder(ids)
	}
	for _, w := range warnings {
		e.logger.Warn(w)
		e.notifier.Info(InfoEvent{Kind: InfoProfileWarning, Message: w})
	}
	e.logger.Debug("initialized", "packages", e.registry.Len(), "problems", len(problems))
	return nil
}

// Save writes the profile and the alias map.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked()
}

func (e *Engine) saveLocked() error {
	if err := profile.Save(e.profilePath, e.registry.List()); err != nil {
		return err
	}
	return e.registry.SaveAliases()
}

// List returns the packages in deployment order.
func (e *Engine) List() []*registry.Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.List()
}

// Resolve finds a package by alias, GUID or unique GUID prefix.
func (e *Engine) Resolve(ref string) (*registry.Package, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.registry.Resolve(ref)
	if err != nil {
		return nil, notFound(ref, err)
	}
	return p, nil
}

// Search filters packages by name, honoring the case_sensitive_search setting.
func (e *Engine) Search(text string) []*registry.Package {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Search(text, e.caseSearch)
}

func (e *Engine) notifyProblems(op string, problems []issue.Problem) {
	if len(problems) == 0 {
		return
	}
	for _, p := range problems {
		if p.IsError() {
			e.logger.Error("problem", "operation", op, "kind", p.Kind, "dir", p.Directory)
		} else {
			e.logger.Warn("problem", "operation", op, "kind", p.Kind, "dir", p.Directory)
		}
	}
	e.notifier.Problems(ProblemsEvent{Operation: op, Problems: problems})
}

func (e *Engine) requireGame(op string) error {
	if e.journal != nil {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation(op).
		WithIssue(issue.GameDirInvalidId).
		WithSuggestion("Run 'hd2mm config set game_directory <path>' first").
		Wrap(config.ErrGameDirectoryNotSet).
		BuildError()
}

func notFound(ref string, err error) error {
	return issue.NewErrorContext().
		WithOperation("find package").
		WithResource(ref).
		WithIssue(issue.PackageNotFoundId).
		WithSuggestion("Run 'hd2mm list' to see registered packages").
		Wrap(err).
		BuildError()
}
