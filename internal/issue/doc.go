// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing failure vocabulary of hd2mm.
//
// Two shapes live here. Problem is a non-fatal finding about a package
// directory (a bad manifest, a missing include, an empty option) that is
// collected and reported as a batch. ActionableError is a terminal failure
// carrying the operation, resource and remediation hints. Both are rendered
// to Markdown only at the presentation boundary.
package issue
