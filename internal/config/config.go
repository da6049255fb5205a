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

	"github.com/spf13/viper"

	"github.com/blocklaunch/blocklaunch/internal/issue"
	"github.com/blocklaunch/blocklaunch/pkg/cueutil"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "blocklaunch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// SessionFileName is the default session store inside the config directory.
	SessionFileName = "sessions.toml"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the configuration directory using platform-specific
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
	case platform.Windows:
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
	default: // Linux and others
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

// DataDir returns the default game directory: %APPDATA%\.blocklaunch on
// Windows, ~/Library/Application Support/blocklaunch on macOS and
// $XDG_DATA_HOME/blocklaunch (defaulting to ~/.local/share) elsewhere.
func DataDir() (string, error) {
	if dataDirOverride != "" {
		return dataDirOverride, nil
	}

	switch runtime.GOOS {
	case platform.Windows:
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(base, "."+AppName), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	default:
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(base, AppName), nil
	}
}

// ResolvedGameDir returns GameDir, or DataDir() when it is empty.
func (c *Config) ResolvedGameDir() (string, error) {
	if c.GameDir != "" {
		return c.GameDir, nil
	}
	return DataDir()
}

// ResolvedSessionFile returns Auth.SessionFile, or sessions.toml in the
// config directory when it is empty.
func (c *Config) ResolvedSessionFile() (string, error) {
	if c.Auth.SessionFile != "" {
		return c.Auth.SessionFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SessionFileName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'blocklaunch config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", invalidFileError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", invalidFileError(cuePath, err)
			}
			resolvedPath = cuePath
		}
		// No config file means defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", invalidFileError(resolvedPath, fmt.Errorf("decoding values: %w", err))
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the reported fields against 'blocklaunch config show'").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func invalidFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'blocklaunch config --help' for configuration options").
		Wrap(err).
		BuildError()
}

// setDefaults registers every key so environment and file values merge over
// a complete tree.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("game_dir", d.GameDir)
	v.SetDefault("java_path", d.JavaPath)
	v.SetDefault("mirror", string(d.Mirror))
	v.SetDefault("download.concurrency", d.Download.Concurrency)
	v.SetDefault("download.timeout", d.Download.Timeout)
	v.SetDefault("download.max_attempts", d.Download.MaxAttempts)
	v.SetDefault("download.initial_interval", d.Download.InitialInterval)
	v.SetDefault("download.max_interval", d.Download.MaxInterval)
	v.SetDefault("download.multiplier", d.Download.Multiplier)
	v.SetDefault("download.randomization", d.Download.Randomization)
	v.SetDefault("download.retryable_statuses", d.Download.RetryableStatuses)
	v.SetDefault("auth.client_id", d.Auth.ClientID)
	v.SetDefault("auth.timeout", d.Auth.Timeout)
	v.SetDefault("auth.session_file", d.Auth.SessionFile)
	v.SetDefault("auth.authlib_injector_url", d.Auth.AuthlibInjectorURL)
	v.SetDefault("launch.min_memory_mb", d.Launch.MinMemoryMB)
	v.SetDefault("launch.max_memory_mb", d.Launch.MaxMemoryMB)
	v.SetDefault("launch.extra_jvm_args", d.Launch.ExtraJVMArgs)
	v.SetDefault("launch.width", d.Launch.Width)
	v.SetDefault("launch.height", d.Launch.Height)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against #Config and merges its
// contents into Viper. Fields are optional, so concreteness is not required.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithConcrete(false), cueutil.WithFilename(path))
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*configMap); err != nil {
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

// CreateDefaultConfig writes the default config file unless one exists and
// returns its path.
func CreateDefaultConfig() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := Save(DefaultConfig()); err != nil {
		return "", err
	}
	return cfgPath, nil
}

// Save writes cfg to the config file, replacing it atomically.
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if err := fspath.WriteFileAtomic(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration. Empty
// optional strings are omitted.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// blocklaunch configuration\n\n")

	if cfg.GameDir != "" {
		fmt.Fprintf(&sb, "game_dir: %q\n", cfg.GameDir)
	}
	fmt.Fprintf(&sb, "java_path: %q\n", cfg.JavaPath)
	if cfg.Mirror != "" {
		fmt.Fprintf(&sb, "mirror: %q\n", cfg.Mirror)
	}

	d := cfg.Download
	sb.WriteString("\ndownload: {\n")
	fmt.Fprintf(&sb, "\tconcurrency: %d\n", d.Concurrency)
	fmt.Fprintf(&sb, "\ttimeout: %q\n", d.Timeout.String())
	fmt.Fprintf(&sb, "\tmax_attempts: %d\n", d.MaxAttempts)
	fmt.Fprintf(&sb, "\tinitial_interval: %q\n", d.InitialInterval.String())
	fmt.Fprintf(&sb, "\tmax_interval: %q\n", d.MaxInterval.String())
	fmt.Fprintf(&sb, "\tmultiplier: %s\n", formatFloat(d.Multiplier))
	fmt.Fprintf(&sb, "\trandomization: %s\n", formatFloat(d.Randomization))
	statuses := make([]string, len(d.RetryableStatuses))
	for i, s := range d.RetryableStatuses {
		statuses[i] = strconv.Itoa(s)
	}
	fmt.Fprintf(&sb, "\tretryable_statuses: [%s]\n", strings.Join(statuses, ", "))
	sb.WriteString("}\n")

	sb.WriteString("\nauth: {\n")
	if cfg.Auth.ClientID != "" {
		fmt.Fprintf(&sb, "\tclient_id: %q\n", cfg.Auth.ClientID)
	}
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Auth.Timeout.String())
	if cfg.Auth.SessionFile != "" {
		fmt.Fprintf(&sb, "\tsession_file: %q\n", cfg.Auth.SessionFile)
	}
	if cfg.Auth.AuthlibInjectorURL != "" {
		fmt.Fprintf(&sb, "\tauthlib_injector_url: %q\n", cfg.Auth.AuthlibInjectorURL)
	}
	sb.WriteString("}\n")

	l := cfg.Launch
	sb.WriteString("\nlaunch: {\n")
	fmt.Fprintf(&sb, "\tmin_memory_mb: %d\n", l.MinMemoryMB)
	fmt.Fprintf(&sb, "\tmax_memory_mb: %d\n", l.MaxMemoryMB)
	if l.ExtraJVMArgs != "" {
		fmt.Fprintf(&sb, "\textra_jvm_args: %q\n", l.ExtraJVMArgs)
	}
	if l.Width > 0 && l.Height > 0 {
		fmt.Fprintf(&sb, "\twidth: %d\n", l.Width)
		fmt.Fprintf(&sb, "\theight: %d\n", l.Height)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

// formatFloat always renders a decimal point so CUE reads a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
