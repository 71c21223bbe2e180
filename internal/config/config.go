// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/hd2mm/hd2mm/internal/issue"
	"github.com/hd2mm/hd2mm/pkg/cueutil"
	"github.com/hd2mm/hd2mm/pkg/fspath"
	"github.com/hd2mm/hd2mm/pkg/types"
)

const (
	// AppName is the application name.
	AppName = "hd2mm"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. HD2MM_GAME_DIRECTORY.
	EnvPrefix = "HD2MM"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the hd2mm configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file the options select: the explicit file
// when set, otherwise config.cue in the (possibly overridden) config dir.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return string(opts.ConfigFilePath), nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return string(fspath.JoinStr(cfgDir, ConfigFileName+"."+ConfigFileExt)), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	cfg, resolvedPath, err := readWithOptions(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	if err := validateLoaded(cfg, resolvedPath); err != nil {
		return nil, "", err
	}
	return cfg, resolvedPath, nil
}

// LoadUnchecked loads configuration like Provider.Load but skips value
// validation, so an invalid setting can still be edited. It also returns
// the file the options select, whether or not it exists.
func LoadUnchecked(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := opts.Validate(); err != nil {
		return nil, "", err
	}
	cfg, _, err := readWithOptions(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	path, err := FilePath(opts)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func readWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("game_directory", defaults.GameDirectory)
	v.SetDefault("storage_directory", defaults.StorageDirectory)
	v.SetDefault("temp_directory", defaults.TempDirectory)
	v.SetDefault("skip_list", defaults.SkipList)
	v.SetDefault("case_sensitive_search", defaults.CaseSensitiveSearch)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'hd2mm config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", cueLoadError(path, err)
		}
		resolvedPath = path
	} else {
		cuePath, err := FilePath(opts)
		if err != nil {
			return nil, "", err
		}
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", cueLoadError(cuePath, err)
			}
			resolvedPath = cuePath
		}
		// No config file: defaults and environment only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SkipList == nil {
		cfg.SkipList = []string{}
	}
	return &cfg, resolvedPath, nil
}

func validateLoaded(cfg *Config, resolvedPath string) error {
	if valid, errs := cfg.IsValid(); !valid {
		id := issue.ConfigLoadFailedId
		suggestions := []string{"Run 'hd2mm config show' to inspect the effective settings"}
		if _, gameErrs := cfg.GameDirectory.IsValid(); len(gameErrs) > 0 {
			id = issue.GameDirInvalidId
			suggestions = append(suggestions, "Point game_directory at the folder containing data/, tools/ and bin/helldivers2.exe")
		}
		return issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(id).
			WithSuggestions(suggestions...).
			Wrap(errs[0]).
			BuildError()
	}
	return nil
}

func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'hd2mm config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath types.FilesystemPath) (types.FilesystemPath, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	dir, err := ConfigDir()
	return types.FilesystemPath(dir), err
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Config decodes to map[string]any rather than a struct so Viper keeps
// precedence over defaults and environment, and uses Concrete(false)
// because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig writes a default config file at path unless one
// already exists. It reports whether a file was created.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := SaveTo(DefaultConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg to config.cue in the config directory.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return SaveTo(cfg, filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt))
}

// SaveTo writes cfg to path atomically.
func SaveTo(cfg *Config, path string) error {
	if err := fspath.WriteFileAtomic(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// hd2mm configuration file\n")
	sb.WriteString("// Environment variables prefixed with HD2MM_ override these values.\n\n")

	fmt.Fprintf(&sb, "game_directory: %q\n", cfg.GameDirectory)
	fmt.Fprintf(&sb, "storage_directory: %q\n", cfg.StorageDirectory)
	fmt.Fprintf(&sb, "temp_directory: %q\n", cfg.TempDirectory)

	if len(cfg.SkipList) > 0 {
		sb.WriteString("\nskip_list: [\n")
		for _, id := range cfg.SkipList {
			fmt.Fprintf(&sb, "\t%q,\n", id)
		}
		sb.WriteString("]\n\n")
	} else {
		sb.WriteString("skip_list: []\n")
	}

	fmt.Fprintf(&sb, "case_sensitive_search: %v\n", cfg.CaseSensitiveSearch)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	return sb.String()
}

// Keys lists the settings accepted by Set, in file order.
func Keys() []string {
	return []string{"game_directory", "storage_directory", "temp_directory", "skip_list", "case_sensitive_search", "log_level"}
}

// Set assigns a setting from its string form. skip_list takes a
// comma-separated list. The result is not validated; call IsValid.
func (c *Config) Set(key, value string) error {
	switch key {
	case "game_directory":
		c.GameDirectory = GameDirectory(value)
	case "storage_directory":
		c.StorageDirectory = DirectoryPath(value)
	case "temp_directory":
		c.TempDirectory = DirectoryPath(value)
	case "skip_list":
		c.SkipList = []string{}
		for part := range strings.SplitSeq(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				c.SkipList = append(c.SkipList, part)
			}
		}
	case "case_sensitive_search":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("case_sensitive_search: %w", err)
		}
		c.CaseSensitiveSearch = b
	case "log_level":
		c.LogLevel = LogLevel(strings.ToLower(value))
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}
