// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/internal/ingest"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/internal/registry"
)

// Add ingests archives and registers the resulting packages. A single
// archive without a manifest gets an inferred one; when several archives
// are added at once such archives are dropped instead. Failing archives do
// not stop the others; their errors are joined.
func (e *Engine) Add(ctx context.Context, archives ...string) ([]*registry.Package, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mode := ingest.ModeAdd
	if len(archives) > 1 {
		mode = ingest.ModeBulkLoad
	}

	var (
		added []*registry.Package
		errs  []error
	)
	for i, path := range archives {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		e.notifier.Progress(ProgressEvent{Operation: "add", Done: i, Total: len(archives), Item: ingest.DisplayName(path)})
		draft, err := e.ingest(ctx, path, mode)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if draft == nil {
			continue
		}
		pkg, err := e.registry.Insert(draft)
		if err != nil {
			e.notifyDuplicate("add", draft, err)
			errs = append(errs, err)
			continue
		}
		added = append(added, pkg)
		e.notifier.Info(InfoEvent{Kind: InfoAdded, Package: pkg.ID, Message: fmt.Sprintf("added %s", pkg.DisplayName())})
	}

	if len(added) > 0 {
		if err := e.saveLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	return added, errors.Join(errs...)
}

// ingest stages one archive and forwards its problems. It returns a nil
// draft without error when bulk loading dropped a manifest-less archive.
func (e *Engine) ingest(ctx context.Context, path string, mode ingest.Mode) (*ingest.Draft, error) {
	draft, problems, err := e.ingestor.Ingest(ctx, path, mode)
	if err != nil {
		return nil, err
	}
	e.notifyProblems("add", problems)
	if draft == nil && mode == ingest.ModeAdd {
		return nil, &RejectedError{Archive: path, Problems: problems}
	}
	if draft == nil {
		for _, p := range problems {
			if p.IsError() {
				return nil, &RejectedError{Archive: path, Problems: problems}
			}
		}
	}
	return draft, nil
}

// notifyDuplicate reports a GUID clash from Insert or Replace as a Duplicate
// problem, the same way Scan does. Detail names the directory already
// holding the GUID.
func (e *Engine) notifyDuplicate(op string, draft *ingest.Draft, err error) {
	var dup *registry.DuplicateError
	if !errors.As(err, &dup) {
		return
	}
	detail := dup.Existing
	if existing := e.registry.Get(dup.ID); existing != nil {
		detail = existing.Dir
	}
	e.notifyProblems(op, []issue.Problem{{
		Directory: draft.Dir,
		Kind:      issue.Duplicate,
		Detail:    detail,
	}})
}

// Update replaces the package id with the content of archive, keeping its
// position and alias. The new package is disabled until the user reviews
// its options.
func (e *Engine) Update(ctx context.Context, id uuid.UUID, archive string) (*registry.Package, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.Get(id) == nil {
		return nil, notFound(id.String(), &registry.LookupError{Ref: id.String(), Err: registry.ErrNotFound})
	}
	draft, err := e.ingest(ctx, archive, ingest.ModeAdd)
	if err != nil {
		return nil, err
	}
	pkg, err := e.registry.Replace(id, draft)
	if err != nil {
		e.notifyDuplicate("update", draft, err)
		return nil, err
	}
	e.notifier.Info(InfoEvent{
		Kind:    InfoUpdated,
		Package: pkg.ID,
		Message: fmt.Sprintf("updated %s; review its options and enable it again", pkg.DisplayName()),
	})
	return pkg, e.saveLocked()
}

// Remove deletes a package after confirm approves it. A nil confirm
// approves.
func (e *Engine) Remove(id uuid.UUID, confirm ConfirmFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pkg := e.registry.Get(id)
	if pkg == nil {
		return notFound(id.String(), &registry.LookupError{Ref: id.String(), Err: registry.ErrNotFound})
	}
	if confirm != nil && !confirm(fmt.Sprintf("Remove %s and delete its files?", pkg.DisplayName())) {
		return ErrCanceled
	}
	if err := e.registry.Remove(id); err != nil {
		return err
	}
	e.notifier.Info(InfoEvent{Kind: InfoRemoved, Package: id, Message: fmt.Sprintf("removed %s", pkg.DisplayName())})
	return e.saveLocked()
}

// SetEnabled enables or disables a package.
func (e *Engine) SetEnabled(id uuid.UUID, enabled bool) error {
	return e.mutate(id, func(p *registry.Package) error {
		p.Enabled = enabled
		return nil
	})
}

// SetOption enables or disables option index of a package.
func (e *Engine) SetOption(id uuid.UUID, index int, enabled bool) error {
	return e.mutate(id, func(p *registry.Package) error {
		return p.SetOption(index, enabled)
	})
}

// SelectSubOption selects sub-option sub of option index.
func (e *Engine) SelectSubOption(id uuid.UUID, index, sub int) error {
	return e.mutate(id, func(p *registry.Package) error {
		return p.SelectSubOption(index, sub)
	})
}

// Move places a package at position to, clamped to the list.
func (e *Engine) Move(id uuid.UUID, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.registry.Move(id, to); err != nil {
		return notFound(id.String(), err)
	}
	return e.saveLocked()
}

// MoveBy shifts a package delta positions; negative moves it up.
func (e *Engine) MoveBy(id uuid.UUID, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.registry.Position(id)
	if pos < 0 {
		return notFound(id.String(), &registry.LookupError{Ref: id.String(), Err: registry.ErrNotFound})
	}
	if err := e.registry.Move(id, pos+delta); err != nil {
		return err
	}
	return e.saveLocked()
}

// SetAlias sets or clears the display alias of a package.
func (e *Engine) SetAlias(id uuid.UUID, alias string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.registry.SetAlias(id, alias); err != nil {
		return notFound(id.String(), err)
	}
	return e.registry.SaveAliases()
}

func (e *Engine) mutate(id uuid.UUID, fn func(*registry.Package) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pkg := e.registry.Get(id)
	if pkg == nil {
		return notFound(id.String(), &registry.LookupError{Ref: id.String(), Err: registry.ErrNotFound})
	}
	if err := fn(pkg); err != nil {
		return err
	}
	return e.saveLocked()
}
