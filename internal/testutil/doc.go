// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by hd2mm tests: Must* file and
// environment helpers that fail the test on error, a controllable clock, and
// builders that write zip and tar fixtures.
package testutil
