// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"github.com/google/uuid"

	"github.com/hd2mm/hd2mm/internal/issue"
)

// InfoKind classifies an InfoEvent.
type InfoKind int

const (
	// InfoAdded reports a package added to the registry.
	InfoAdded InfoKind = iota
	// InfoUpdated reports a package replaced in place. The package is
	// disabled and must be re-enabled after reviewing its options.
	InfoUpdated
	// InfoRemoved reports a package deleted from storage.
	InfoRemoved
	// InfoProfileWarning carries a profile load warning.
	InfoProfileWarning
	// InfoSkippedFile reports an include file the deployment plan ignored.
	InfoSkippedFile
	// InfoDeployed reports a finished deployment.
	InfoDeployed
	// InfoPurged reports a finished purge.
	InfoPurged
)

type (
	// Event is one of ProgressEvent, ProblemsEvent or InfoEvent.
	Event interface {
		event()
	}

	// ProgressEvent reports per-file progress of a long operation.
	ProgressEvent struct {
		Operation string
		Done      int
		Total     int
		Item      string
	}

	// ProblemsEvent carries the problems collected by one operation.
	ProblemsEvent struct {
		Operation string
		Problems  []issue.Problem
	}

	// InfoEvent is a one-line status notification.
	InfoEvent struct {
		Kind    InfoKind
		Package uuid.UUID
		Message string
	}

	// Notifier receives engine notifications. Calls happen synchronously
	// while the engine holds its lock; implementations must not call back
	// into the engine.
	//
	//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
	Notifier interface {
		Progress(ev ProgressEvent)
		Problems(ev ProblemsEvent)
		Info(ev InfoEvent)
	}

	// ChanNotifier forwards every notification to a channel.
	ChanNotifier struct {
		ch chan Event
	}

	nopNotifier struct{}
)

func (ProgressEvent) event() {}
func (ProblemsEvent) event() {}
func (InfoEvent) event()     {}

// NewChanNotifier returns a ChanNotifier with the given buffer size. Sends
// block when the buffer is full.
func NewChanNotifier(buffer int) *ChanNotifier {
	return &ChanNotifier{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the channel.
func (n *ChanNotifier) Events() <-chan Event { return n.ch }

// Close closes the channel. No notification may follow.
func (n *ChanNotifier) Close() { close(n.ch) }

// Progress implements Notifier.
func (n *ChanNotifier) Progress(ev ProgressEvent) { n.ch <- ev }

// Problems implements Notifier.
func (n *ChanNotifier) Problems(ev ProblemsEvent) { n.ch <- ev }

// Info implements Notifier.
func (n *ChanNotifier) Info(ev InfoEvent) { n.ch <- ev }

// NopNotifier returns a Notifier that drops everything.
func NopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) Progress(ProgressEvent) {}
func (nopNotifier) Problems(ProblemsEvent) {}
func (nopNotifier) Info(InfoEvent)         {}
