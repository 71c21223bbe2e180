// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/hd2mm/hd2mm/pkg/types"
)

const (
	// LogLevelDebug logs every file operation.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs one line per operation.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

// gameLayout lists the entries a Helldivers 2 install directory must contain.
var gameLayout = []struct {
	rel string
	dir bool
}{
	{"data", true},
	{"tools", true},
	{filepath.Join("bin", "helldivers2.exe"), false},
}

var (
	// ErrInvalidGameDirectory is the sentinel error wrapped by InvalidGameDirectoryError.
	ErrInvalidGameDirectory = errors.New("invalid game directory")
	// ErrInvalidDirectoryPath is returned when a DirectoryPath value is whitespace-only.
	ErrInvalidDirectoryPath = errors.New("invalid directory path")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrGameDirectoryNotSet is returned by operations that need the game
	// directory before one was configured.
	ErrGameDirectoryNotSet = errors.New("game directory is not configured")
)

type (
	// GameDirectory is the Helldivers 2 installation root. The zero value
	// means "not configured yet".
	GameDirectory string

	// InvalidGameDirectoryError is returned when a GameDirectory lacks the
	// expected layout. Missing lists the absent entries.
	InvalidGameDirectoryError struct {
		Value   GameDirectory
		Missing []string
	}

	// DirectoryPath is an optional directory override. The zero value means
	// "use the default location".
	DirectoryPath string

	// InvalidDirectoryPathError is returned when a DirectoryPath is non-empty
	// but whitespace-only.
	InvalidDirectoryPathError struct {
		Field string
		Value DirectoryPath
	}

	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application settings.
	Config struct {
		// GameDirectory is the Helldivers 2 installation root.
		GameDirectory GameDirectory `json:"game_directory" mapstructure:"game_directory"`
		// StorageDirectory holds packages, the profile, the journal and aliases.
		StorageDirectory DirectoryPath `json:"storage_directory" mapstructure:"storage_directory"`
		// TempDirectory is where archives are extracted before validation.
		TempDirectory DirectoryPath `json:"temp_directory" mapstructure:"temp_directory"`
		// SkipList holds archive ids whose patch slot 0 belongs to the game.
		SkipList []string `json:"skip_list" mapstructure:"skip_list"`
		// CaseSensitiveSearch controls package search matching.
		CaseSensitiveSearch bool `json:"case_sensitive_search" mapstructure:"case_sensitive_search"`
		// LogLevel sets the minimum log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GameDirectory:       "",
		StorageDirectory:    "", // resolved by StoragePath
		TempDirectory:       "", // resolved by TempPath
		SkipList:            []string{},
		CaseSensitiveSearch: false,
		LogLevel:            LogLevelInfo,
	}
}

// String returns the string representation of the GameDirectory.
func (g GameDirectory) String() string { return string(g) }

// IsSet reports whether a game directory was configured.
func (g GameDirectory) IsSet() bool { return strings.TrimSpace(string(g)) != "" }

// DataDir returns the directory patch files are written to.
func (g GameDirectory) DataDir() string { return filepath.Join(string(g), "data") }

// IsValid returns whether the directory has the Helldivers 2 layout. The
// zero value is valid.
func (g GameDirectory) IsValid() (bool, []error) {
	if g == "" {
		return true, nil
	}
	var missing []string
	for _, entry := range gameLayout {
		info, err := os.Stat(filepath.Join(string(g), entry.rel))
		if err != nil || info.IsDir() != entry.dir {
			missing = append(missing, filepath.ToSlash(entry.rel))
		}
	}
	if len(missing) > 0 {
		return false, []error{&InvalidGameDirectoryError{Value: g, Missing: missing}}
	}
	return true, nil
}

// Error implements the error interface for InvalidGameDirectoryError.
func (e *InvalidGameDirectoryError) Error() string {
	return fmt.Sprintf("invalid game directory %q: missing %s", e.Value, strings.Join(e.Missing, ", "))
}

// Unwrap returns ErrInvalidGameDirectory for errors.Is() compatibility.
func (e *InvalidGameDirectoryError) Unwrap() error { return ErrInvalidGameDirectory }

// String returns the string representation of the DirectoryPath.
func (p DirectoryPath) String() string { return string(p) }

// IsValid returns whether the DirectoryPath is valid. The zero value is
// valid; non-zero values must not be whitespace-only.
func (p DirectoryPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDirectoryPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDirectoryPathError.
func (e *InvalidDirectoryPathError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %q: non-empty value must not be whitespace-only", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid directory path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDirectoryPath for errors.Is() compatibility.
func (e *InvalidDirectoryPathError) Unwrap() error { return ErrInvalidDirectoryPath }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts l to a charmbracelet/log level, defaulting to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the Config has valid fields. The game directory
// is checked against the filesystem; skip-list entries must be 16 hex
// characters.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.GameDirectory.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, _ := c.StorageDirectory.IsValid(); !valid {
		errs = append(errs, &InvalidDirectoryPathError{Field: "storage_directory", Value: c.StorageDirectory})
	}
	if valid, _ := c.TempDirectory.IsValid(); !valid {
		errs = append(errs, &InvalidDirectoryPathError{Field: "temp_directory", Value: c.TempDirectory})
	}
	if _, err := types.ParseSkipList(c.SkipList); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Skip returns the parsed skip list. Call IsValid first; invalid entries
// yield an empty list.
func (c Config) Skip() types.SkipList {
	skip, err := types.ParseSkipList(c.SkipList)
	if err != nil {
		return nil
	}
	return skip
}

// StoragePath returns the storage directory, defaulting to
// <config dir>/storage.
func (c Config) StoragePath() (string, error) {
	if c.StorageDirectory != "" {
		return filepath.Abs(string(c.StorageDirectory))
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "storage"), nil
}

// TempPath returns the staging directory, defaulting to <os temp>/hd2mm.
func (c Config) TempPath() (string, error) {
	if c.TempDirectory != "" {
		return filepath.Abs(string(c.TempDirectory))
	}
	return filepath.Join(os.TempDir(), AppName), nil
}
