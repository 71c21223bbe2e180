// SPDX-License-Identifier: MPL-2.0

// Package registry keeps the set of packages known to hd2mm, keyed by GUID,
// in user order. Every package lives in <storage>/<GUID>/.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hd2mm/hd2mm/internal/ingest"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/pkg/fspath"
	"github.com/hd2mm/hd2mm/pkg/manifest"
)

type (
	// Registry is not safe for concurrent use; the engine serializes access.
	Registry struct {
		root     string
		logger   *log.Logger
		now      func() time.Time
		parallel int
		aliases  *AliasStore
		packages []*Package
	}

	// Option configures a Registry.
	Option func(*Registry)

	scanResult struct {
		pkg      *Package
		problems []issue.Problem
	}
)

// WithClock sets the time source used for AddedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithParallelism bounds the number of manifests loaded concurrently by Scan.
func WithParallelism(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// New creates an empty registry rooted at the storage directory root.
func New(root string, logger *log.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	r := &Registry{
		root:     root,
		logger:   logger.WithPrefix("registry"),
		now:      time.Now,
		parallel: runtime.GOMAXPROCS(0),
		aliases:  &AliasStore{path: filepath.Join(root, AliasFileName), aliases: map[uuid.UUID]string{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the storage directory.
func (r *Registry) Root() string { return r.root }

// Aliases returns the alias store.
func (r *Registry) Aliases() *AliasStore { return r.aliases }

// Scan replaces the registry content with the packages found in the storage
// root. Manifests are loaded in parallel; the result is ordered by directory
// name. Directories without a manifest are deleted. Packages with
// error-level problems or a GUID seen in an earlier directory are skipped
// and left on disk.
func (r *Registry) Scan(ctx context.Context) ([]*Package, []issue.Problem, error) {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create storage directory: %w", err)
	}
	aliases, err := LoadAliases(filepath.Join(r.root, AliasFileName))
	if err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, nil, fmt.Errorf("read storage directory: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	slices.Sort(dirs)

	results := make([]scanResult, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, name := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.load(filepath.Join(r.root, name))
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		pkgs     []*Package
		problems []issue.Problem
		seen     = make(map[uuid.UUID]string)
	)
	for _, res := range results {
		problems = append(problems, res.problems...)
		if res.pkg == nil {
			continue
		}
		if prev, ok := seen[res.pkg.ID]; ok {
			problems = append(problems, issue.Problem{
				Directory: res.pkg.Dir,
				Kind:      issue.Duplicate,
				Detail:    prev,
			})
			continue
		}
		seen[res.pkg.ID] = res.pkg.Dir
		res.pkg.Alias = aliases.Get(res.pkg.ID)
		pkgs = append(pkgs, res.pkg)
	}

	r.aliases = aliases
	r.packages = pkgs
	r.logger.Debug("scan complete", "packages", len(pkgs), "problems", len(problems))
	return r.List(), problems, nil
}

func (r *Registry) load(dir string) (scanResult, error) {
	m, res, err := manifest.Load(dir)
	if err != nil {
		p, ok := manifest.ProblemFor(err, dir)
		if !ok {
			return scanResult{}, err
		}
		if p.Kind == issue.NoManifestFound {
			if err := os.RemoveAll(dir); err != nil {
				return scanResult{}, fmt.Errorf("remove %s: %w", dir, err)
			}
			p.Resolution = issue.ResolutionDeleted
		}
		return scanResult{problems: []issue.Problem{p}}, nil
	}
	if res.HasErrors() {
		return scanResult{problems: res.Problems}, nil
	}
	if m.Generated {
		if err := manifest.Write(dir, m); err != nil {
			return scanResult{}, err
		}
	}

	added := r.now()
	if info, err := os.Stat(dir); err == nil {
		added = info.ModTime()
	}
	return scanResult{pkg: newPackage(m, res, dir, added), problems: res.Problems}, nil
}

// Insert moves a draft into storage and appends it, enabled, to the order.
// A draft whose GUID is already registered is discarded and a
// *DuplicateError returned.
func (r *Registry) Insert(draft *ingest.Draft) (*Package, error) {
	pkg, err := r.adopt(draft, uuid.Nil)
	if err != nil {
		return nil, err
	}
	pkg.Enabled = true
	r.packages = append(r.packages, pkg)
	r.logger.Info("package added", "id", pkg.ID, "name", pkg.Manifest.Name)
	return pkg, nil
}

// Replace swaps the package oldID for draft, keeping its position and
// alias. The new package starts disabled so the user re-confirms its
// options.
func (r *Registry) Replace(oldID uuid.UUID, draft *ingest.Draft) (*Package, error) {
	idx := r.index(oldID)
	if idx < 0 {
		r.discard(draft)
		return nil, &LookupError{Ref: oldID.String(), Err: ErrNotFound}
	}
	old := r.packages[idx]

	// A same-GUID update needs the old directory out of the way first.
	backup := ""
	if draft != nil && draft.Manifest != nil && draft.Manifest.ID == oldID {
		backup = filepath.Join(r.root, "."+oldID.String()+".old")
		_ = os.RemoveAll(backup)
		if err := os.Rename(old.Dir, backup); err != nil {
			r.discard(draft)
			return nil, fmt.Errorf("set aside %s: %w", old.Dir, err)
		}
	}

	pkg, err := r.adopt(draft, oldID)
	if err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, old.Dir); rerr != nil {
				r.logger.Error("failed to restore package", "dir", old.Dir, "err", rerr)
			}
		}
		return nil, err
	}

	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			r.logger.Warn("failed to remove replaced package", "dir", backup, "err", err)
		}
	} else if err := os.RemoveAll(old.Dir); err != nil {
		r.logger.Warn("failed to remove replaced package", "dir", old.Dir, "err", err)
	}

	pkg.Alias = old.Alias
	if pkg.ID != oldID {
		r.aliases.Delete(oldID)
		r.aliases.Set(pkg.ID, pkg.Alias)
	}
	r.packages[idx] = pkg
	r.logger.Info("package replaced", "old", oldID, "new", pkg.ID, "name", pkg.Manifest.Name)
	return pkg, nil
}

// adopt moves draft into <root>/<GUID>. ignore is a registered GUID that may
// be reused by the draft.
func (r *Registry) adopt(draft *ingest.Draft, ignore uuid.UUID) (*Package, error) {
	if draft == nil || draft.Manifest == nil {
		return nil, errors.New("registry: nil draft")
	}
	id := draft.Manifest.ID
	if existing := r.Get(id); existing != nil && id != ignore {
		r.discard(draft)
		return nil, &DuplicateError{ID: id, Existing: existing.DisplayName()}
	}

	dst := filepath.Join(r.root, id.String())
	if err := fspath.MoveDir(draft.Dir, dst); err != nil {
		r.discard(draft)
		if errors.Is(err, fspath.ErrDestinationExists) {
			return nil, &DuplicateError{ID: id, Existing: dst}
		}
		return nil, fmt.Errorf("move package into storage: %w", err)
	}
	if draft.Manifest.Generated {
		if err := manifest.Write(dst, draft.Manifest); err != nil {
			_ = os.RemoveAll(dst)
			return nil, err
		}
	}
	return newPackage(draft.Manifest, draft.Result, dst, r.now()), nil
}

func (r *Registry) discard(draft *ingest.Draft) {
	if err := draft.Discard(); err != nil {
		r.logger.Warn("failed to discard draft", "dir", draft.Dir, "err", err)
	}
}

// Remove deletes the package directory and forgets the package and its
// alias. Unknown ids are ignored.
func (r *Registry) Remove(id uuid.UUID) error {
	idx := r.index(id)
	if idx < 0 {
		return nil
	}
	pkg := r.packages[idx]
	if err := os.RemoveAll(pkg.Dir); err != nil {
		return fmt.Errorf("remove %s: %w", pkg.Dir, err)
	}
	r.packages = slices.Delete(r.packages, idx, idx+1)
	r.aliases.Delete(id)
	r.logger.Info("package removed", "id", id, "name", pkg.Manifest.Name)
	return nil
}

// Get returns the package with id, or nil.
func (r *Registry) Get(id uuid.UUID) *Package {
	if idx := r.index(id); idx >= 0 {
		return r.packages[idx]
	}
	return nil
}

// List returns the packages in deployment order. The slice is a copy.
func (r *Registry) List() []*Package {
	return slices.Clone(r.packages)
}

// Len returns the number of registered packages.
func (r *Registry) Len() int { return len(r.packages) }

func (r *Registry) index(id uuid.UUID) int {
	return slices.IndexFunc(r.packages, func(p *Package) bool { return p.ID == id })
}

// Resolve finds a package by alias (case-insensitive), full GUID, or unique
// GUID prefix.
func (r *Registry) Resolve(ref string) (*Package, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &LookupError{Ref: ref, Err: ErrNotFound}
	}
	for _, p := range r.packages {
		if p.Alias != "" && strings.EqualFold(p.Alias, ref) {
			return p, nil
		}
	}

	lower := strings.ToLower(ref)
	var matches []*Package
	for _, p := range r.packages {
		s := p.ID.String()
		if s == lower {
			return p, nil
		}
		if strings.HasPrefix(s, lower) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &LookupError{Ref: ref, Err: ErrNotFound}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = p.String()
		}
		return nil, &LookupError{Ref: ref, Err: ErrAmbiguous, Matches: names}
	}
}

// Move places the package at position to, clamped to the list bounds.
func (r *Registry) Move(id uuid.UUID, to int) error {
	from := r.index(id)
	if from < 0 {
		return &LookupError{Ref: id.String(), Err: ErrNotFound}
	}
	to = max(0, min(to, len(r.packages)-1))
	if from == to {
		return nil
	}
	pkg := r.packages[from]
	r.packages = slices.Delete(r.packages, from, from+1)
	r.packages = slices.Insert(r.packages, to, pkg)
	return nil
}

// Position returns the index of id in the order, or -1.
func (r *Registry) Position(id uuid.UUID) int { return r.index(id) }

// SetOrder rearranges the packages: listed ids first in the given order,
// then every unlisted package in its current relative order. Unknown ids
// are ignored.
func (r *Registry) SetOrder(ids []uuid.UUID) {
	placed := make(map[uuid.UUID]bool, len(ids))
	out := make([]*Package, 0, len(r.packages))
	for _, id := range ids {
		if p := r.Get(id); p != nil && !placed[id] {
			placed[id] = true
			out = append(out, p)
		}
	}
	for _, p := range r.packages {
		if !placed[p.ID] {
			out = append(out, p)
		}
	}
	r.packages = out
}

// Search returns the packages whose display or manifest name contains text.
// Blank text matches everything.
func (r *Registry) Search(text string, caseSensitive bool) []*Package {
	text = strings.TrimSpace(text)
	if text == "" {
		return r.List()
	}
	contains := func(s string) bool {
		if caseSensitive {
			return strings.Contains(s, text)
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(text))
	}
	var out []*Package
	for _, p := range r.packages {
		if contains(p.DisplayName()) || contains(p.Manifest.Name) {
			out = append(out, p)
		}
	}
	return out
}

// SetAlias sets the display alias of id. A blank alias, or one equal to the
// manifest name, clears it.
func (r *Registry) SetAlias(id uuid.UUID, alias string) error {
	p := r.Get(id)
	if p == nil {
		return &LookupError{Ref: id.String(), Err: ErrNotFound}
	}
	alias = strings.TrimSpace(alias)
	if alias == p.Manifest.Name {
		alias = ""
	}
	p.Alias = alias
	r.aliases.Set(id, alias)
	return nil
}

// SaveAliases persists the alias map.
func (r *Registry) SaveAliases() error { return r.aliases.Save() }
