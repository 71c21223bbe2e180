// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/hd2mm/hd2mm/internal/engine"
	"github.com/hd2mm/hd2mm/internal/issue"
)

// cliNotifier renders engine notifications to the terminal. Progress lines
// are only printed in verbose mode; problem reports go through glamour.
type cliNotifier struct {
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
}

var problemTitles = map[string]string{
	"scan": "Storage scan",
	"add":  "Archive check",
}

func newCLINotifier(stdout, stderr io.Writer, verbose bool) *cliNotifier {
	return &cliNotifier{stdout: stdout, stderr: stderr, verbose: verbose}
}

func (n *cliNotifier) Progress(ev engine.ProgressEvent) {
	if !n.verbose {
		return
	}
	fmt.Fprintf(n.stderr, "%s %s\n", SubtitleStyle.Render(fmt.Sprintf("[%s %d/%d]", ev.Operation, ev.Done, ev.Total)), ev.Item)
}

func (n *cliNotifier) Problems(ev engine.ProblemsEvent) {
	title, ok := problemTitles[ev.Operation]
	if !ok {
		title = ev.Operation
	}
	rendered, err := issue.RenderProblems(title, ev.Problems, "dark")
	if err != nil {
		fmt.Fprint(n.stderr, issue.Markdown(title, ev.Problems))
		return
	}
	fmt.Fprint(n.stderr, rendered)
}

func (n *cliNotifier) Info(ev engine.InfoEvent) {
	switch ev.Kind {
	case engine.InfoProfileWarning:
		fmt.Fprintln(n.stderr, WarningStyle.Render("! ")+ev.Message)
	case engine.InfoSkippedFile:
		if n.verbose {
			fmt.Fprintln(n.stderr, SubtitleStyle.Render("- "+ev.Message))
		}
	case engine.InfoUpdated:
		fmt.Fprintln(n.stdout, WarningStyle.Render("↻ ")+ev.Message)
	default:
		fmt.Fprintln(n.stdout, SuccessStyle.Render("✓ ")+ev.Message)
	}
}
