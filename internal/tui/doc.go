// SPDX-License-Identifier: MPL-2.0

// Package tui wraps charmbracelet/huh prompts for the hd2mm CLI.
//
// Prompts fall back to huh's accessible mode, a line-based question on the
// given reader, whenever the input is not a terminal. Piped answers and
// tests go through that path.
package tui
