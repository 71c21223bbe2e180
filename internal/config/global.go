// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory when non-empty.
// Tests set it because os.UserHomeDir ignores a changed HOME on some CI
// platforms.
var configDirOverride string

// Reset clears the config directory override.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir. StoragePath and Save
// follow it, so one override isolates every file hd2mm writes by default.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
