// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the hd2mm command tree.
//
// Every command that touches packages opens an engine.Engine through the
// App, so configuration loading, logging and notification rendering are
// wired in one place.
package cmd
