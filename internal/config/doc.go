// SPDX-License-Identifier: MPL-2.0

// Package config handles hd2mm settings using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/hd2mm/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/hd2mm/config.cue on macOS,
// %APPDATA%\hd2mm\config.cue on Windows), validated against the embedded
// config_schema.cue, and overlaid with HD2MM_* environment variables.
package config
