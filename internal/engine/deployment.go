// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hd2mm/hd2mm/internal/deploy"
	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/internal/journal"
)

// DeployResult summarizes a deployment.
type DeployResult struct {
	Plan    *deploy.Plan
	Entries []journal.Entry
	// Purged is the cleanup of the previous deployment.
	Purged journal.PurgeResult
}

// Deploy saves the profile, purges the previous deployment and writes the
// enabled packages into the game data directory.
func (e *Engine) Deploy(ctx context.Context) (*DeployResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireGame("deploy profile"); err != nil {
		return nil, err
	}
	if err := e.saveLocked(); err != nil {
		return nil, err
	}

	purged, err := e.journal.Purge(ctx)
	if err != nil {
		return nil, purgeError(e.journal, err)
	}

	plan := deploy.NewPlan(e.registry.List(), e.skip)
	for _, s := range plan.Skipped {
		e.notifier.Info(InfoEvent{
			Kind:    InfoSkippedFile,
			Package: s.Package,
			Message: fmt.Sprintf("skipped %s: %s", s.Path, s.Reason),
		})
	}

	entries, err := e.deployer.Deploy(ctx, plan)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("deploy profile").
			WithResource(e.journal.DataDir()).
			WithIssue(issue.DeployFailedId).
			WithSuggestion("Run 'hd2mm purge' to remove partially written files").
			Wrap(err).
			BuildError()
	}

	e.notifier.Info(InfoEvent{
		Kind:    InfoDeployed,
		Message: fmt.Sprintf("deployed %d files from %d bundles", len(entries), len(plan.Bundles)),
	})
	return &DeployResult{Plan: plan, Entries: entries, Purged: purged}, nil
}

// Purge removes the files of the last deployment.
func (e *Engine) Purge(ctx context.Context) (journal.PurgeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireGame("purge deployment"); err != nil {
		return journal.PurgeResult{}, err
	}
	res, err := e.journal.Purge(ctx)
	if err != nil {
		return res, purgeError(e.journal, err)
	}
	e.notifyPurged(res)
	return res, nil
}

// HardPurge deletes every patch file in the data directory by name, except
// slot 0 of skip-listed archives, after confirm approves it.
func (e *Engine) HardPurge(ctx context.Context, confirm ConfirmFunc) (journal.PurgeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireGame("hard purge"); err != nil {
		return journal.PurgeResult{}, err
	}
	prompt := fmt.Sprintf("Delete every patch file in %s, including ones hd2mm did not write?", e.journal.DataDir())
	if confirm != nil && !confirm(prompt) {
		return journal.PurgeResult{}, ErrCanceled
	}
	res, err := e.journal.HardPurge(ctx, e.skip)
	if err != nil {
		return res, issue.NewErrorContext().
			WithOperation("hard purge").
			WithResource(e.journal.DataDir()).
			WithIssue(issue.PurgeFailedId).
			Wrap(err).
			BuildError()
	}
	e.notifyPurged(res)
	return res, nil
}

// Status verifies the deployed files against the journal.
func (e *Engine) Status(ctx context.Context) (*journal.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireGame("verify deployment"); err != nil {
		return nil, err
	}
	rep, err := e.journal.Verify(ctx)
	if err != nil {
		return nil, purgeError(e.journal, err)
	}
	return rep, nil
}

func (e *Engine) notifyPurged(res journal.PurgeResult) {
	e.notifier.Info(InfoEvent{
		Kind:    InfoPurged,
		Message: fmt.Sprintf("removed %d files (%d already missing)", len(res.Removed), res.Missing),
	})
}

func purgeError(j *journal.Store, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("purge deployment").
		WithResource(j.Path())
	if errors.Is(err, journal.ErrCorrupt) {
		ctx = ctx.WithIssue(issue.JournalCorruptId).
			WithSuggestion("Run 'hd2mm hard-purge --yes' to clean the data directory by file name")
	} else {
		ctx = ctx.WithIssue(issue.PurgeFailedId)
	}
	return ctx.Wrap(err).BuildError()
}
