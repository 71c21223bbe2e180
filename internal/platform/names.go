// SPDX-License-Identifier: MPL-2.0

// Package platform holds the Windows-specific naming rules hd2mm enforces on
// extracted package content, since the game only runs on Windows.
package platform

import "strings"

// reservedNames cannot be used as file names on Windows, with or without
// an extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsReservedName reports whether a single path element is a Windows
// reserved device name. Only the part before the first dot is compared.
func IsReservedName(name string) bool {
	base := strings.TrimRight(name, " .")
	if idx := strings.Index(base, "."); idx != -1 {
		base = base[:idx]
	}
	return reservedNames[strings.ToUpper(strings.TrimSpace(base))]
}

// HasReservedElement reports whether any element of a slash-separated
// path is a reserved name.
func HasReservedElement(slashPath string) bool {
	for elem := range strings.SplitSeq(slashPath, "/") {
		if elem != "" && IsReservedName(elem) {
			return true
		}
	}
	return false
}
