// SPDX-License-Identifier: MPL-2.0

// Package archive detects and extracts the archive formats mods are
// distributed in: zip, tar (plain, gzip or zstd compressed), rar and 7z.
//
// Every format is exposed through the Extractor interface. Extraction
// rejects entries whose path would land outside the destination directory
// and skips symbolic links.
package archive
