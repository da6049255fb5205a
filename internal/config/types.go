// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/blocklaunch/blocklaunch/internal/download"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidMirror is returned when a Mirror value is not an http(s) URL.
	ErrInvalidMirror = errors.New("invalid mirror")
	// ErrInvalidDownloadConfig is the sentinel error wrapped by InvalidDownloadConfigError.
	ErrInvalidDownloadConfig = errors.New("invalid download config")
	// ErrInvalidLaunchConfig is the sentinel error wrapped by InvalidLaunchConfigError.
	ErrInvalidLaunchConfig = errors.New("invalid launch config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Mirror is the base URL of a download mirror. The zero value disables
	// mirroring.
	Mirror string

	// InvalidMirrorError is returned when a Mirror is set but is not an
	// absolute http or https URL.
	InvalidMirrorError struct {
		Value Mirror
	}

	// FieldError reports one out-of-range numeric or duration setting.
	FieldError struct {
		Field  string
		Reason string
	}

	// InvalidDownloadConfigError collects field errors from DownloadConfig.
	InvalidDownloadConfigError struct {
		FieldErrors []error
	}

	// InvalidLaunchConfigError collects field errors from LaunchConfig.
	InvalidLaunchConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError collects field errors from UIConfig.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// GameDir is the installation root. Empty means DataDir().
		GameDir string `json:"game_dir" mapstructure:"game_dir"`
		// JavaPath is the Java executable used to launch the game.
		JavaPath string `json:"java_path" mapstructure:"java_path"`
		// Mirror rewrites upstream download hosts onto a mirror.
		Mirror Mirror `json:"mirror" mapstructure:"mirror"`
		// Download tunes the download orchestrator.
		Download DownloadConfig `json:"download" mapstructure:"download"`
		// Auth configures the account sign-in flow.
		Auth AuthConfig `json:"auth" mapstructure:"auth"`
		// Launch holds default launch options.
		Launch LaunchConfig `json:"launch" mapstructure:"launch"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// DownloadConfig mirrors download.RetryPolicy plus the worker budget.
	DownloadConfig struct {
		Concurrency       int           `json:"concurrency" mapstructure:"concurrency"`
		Timeout           time.Duration `json:"timeout" mapstructure:"timeout"`
		MaxAttempts       int           `json:"max_attempts" mapstructure:"max_attempts"`
		InitialInterval   time.Duration `json:"initial_interval" mapstructure:"initial_interval"`
		MaxInterval       time.Duration `json:"max_interval" mapstructure:"max_interval"`
		Multiplier        float64       `json:"multiplier" mapstructure:"multiplier"`
		Randomization     float64       `json:"randomization" mapstructure:"randomization"`
		RetryableStatuses []int         `json:"retryable_statuses" mapstructure:"retryable_statuses"`
	}

	// AuthConfig configures account authentication.
	AuthConfig struct {
		// ClientID is the OAuth application id used for device-code sign-in.
		ClientID string `json:"client_id" mapstructure:"client_id"`
		// Timeout bounds each authentication HTTP request.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// SessionFile overrides where the session is persisted. Empty means
		// sessions.toml in the config directory.
		SessionFile string `json:"session_file" mapstructure:"session_file"`
		// AuthlibInjectorURL overrides the authlib-injector release metadata
		// read before launching with a Yggdrasil account.
		AuthlibInjectorURL string `json:"authlib_injector_url" mapstructure:"authlib_injector_url"`
	}

	// LaunchConfig holds defaults applied to every launch.
	LaunchConfig struct {
		MinMemoryMB  int    `json:"min_memory_mb" mapstructure:"min_memory_mb"`
		MaxMemoryMB  int    `json:"max_memory_mb" mapstructure:"max_memory_mb"`
		ExtraJVMArgs string `json:"extra_jvm_args" mapstructure:"extra_jvm_args"`
		Width        int    `json:"width" mapstructure:"width"`
		Height       int    `json:"height" mapstructure:"height"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging and remediation notes on errors
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidMirrorError.
func (e *InvalidMirrorError) Error() string {
	return fmt.Sprintf("invalid mirror %q: must be an absolute http or https URL", e.Value)
}

// Unwrap returns ErrInvalidMirror for errors.Is() compatibility.
func (e *InvalidMirrorError) Unwrap() error { return ErrInvalidMirror }

// IsValid returns whether the Mirror is empty or an absolute http(s) URL.
func (m Mirror) IsValid() (bool, []error) {
	if m == "" {
		return true, nil
	}
	u, err := url.Parse(string(m))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false, []error{&InvalidMirrorError{Value: m}}
	}
	return true, nil
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// IsValid checks the numeric bounds CUE cannot relate to each other.
func (c DownloadConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, &FieldError{Field: "concurrency", Reason: "must be at least 1"})
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, &FieldError{Field: "max_attempts", Reason: "must be at least 1"})
	}
	if c.Timeout < 0 {
		errs = append(errs, &FieldError{Field: "timeout", Reason: "must not be negative"})
	}
	if c.InitialInterval <= 0 {
		errs = append(errs, &FieldError{Field: "initial_interval", Reason: "must be positive"})
	}
	if c.MaxInterval < c.InitialInterval {
		errs = append(errs, &FieldError{Field: "max_interval", Reason: "must not be below initial_interval"})
	}
	if c.Multiplier < 1 {
		errs = append(errs, &FieldError{Field: "multiplier", Reason: "must be at least 1"})
	}
	if c.Randomization < 0 || c.Randomization > 1 {
		errs = append(errs, &FieldError{Field: "randomization", Reason: "must be between 0 and 1"})
	}
	for _, s := range c.RetryableStatuses {
		if s < 100 || s > 599 {
			errs = append(errs, &FieldError{Field: "retryable_statuses", Reason: fmt.Sprintf("%d is not an HTTP status", s)})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDownloadConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDownloadConfigError.
func (e *InvalidDownloadConfigError) Error() string {
	return fmt.Sprintf("invalid download config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidDownloadConfig for errors.Is() compatibility.
func (e *InvalidDownloadConfigError) Unwrap() error { return ErrInvalidDownloadConfig }

// RetryPolicy converts the settings into a download.RetryPolicy.
func (c DownloadConfig) RetryPolicy() download.RetryPolicy {
	return download.RetryPolicy{
		MaxAttempts:         c.MaxAttempts,
		InitialInterval:     c.InitialInterval,
		MaxInterval:         c.MaxInterval,
		Multiplier:          c.Multiplier,
		RandomizationFactor: c.Randomization,
		RetryableStatuses:   append([]int(nil), c.RetryableStatuses...),
		AttemptTimeout:      c.Timeout,
	}
}

// IsValid checks memory and window bounds.
func (c LaunchConfig) IsValid() (bool, []error) {
	var errs []error
	if c.MinMemoryMB < 0 {
		errs = append(errs, &FieldError{Field: "min_memory_mb", Reason: "must not be negative"})
	}
	if c.MaxMemoryMB < 0 {
		errs = append(errs, &FieldError{Field: "max_memory_mb", Reason: "must not be negative"})
	}
	if c.MinMemoryMB > 0 && c.MaxMemoryMB > 0 && c.MinMemoryMB > c.MaxMemoryMB {
		errs = append(errs, &FieldError{Field: "min_memory_mb", Reason: "must not exceed max_memory_mb"})
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, &FieldError{Field: "width/height", Reason: "must not be negative"})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidLaunchConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidLaunchConfigError.
func (e *InvalidLaunchConfigError) Error() string {
	return fmt.Sprintf("invalid launch config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidLaunchConfig for errors.Is() compatibility.
func (e *InvalidLaunchConfigError) Unwrap() error { return ErrInvalidLaunchConfig }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Mirror, Download, Launch and UI.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Mirror.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Download.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Launch.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	policy := download.DefaultRetryPolicy()
	return &Config{
		JavaPath: "java",
		Download: DownloadConfig{
			Concurrency:       download.DefaultConcurrency,
			Timeout:           policy.AttemptTimeout,
			MaxAttempts:       policy.MaxAttempts,
			InitialInterval:   policy.InitialInterval,
			MaxInterval:       policy.MaxInterval,
			Multiplier:        policy.Multiplier,
			Randomization:     policy.RandomizationFactor,
			RetryableStatuses: policy.RetryableStatuses,
		},
		Auth: AuthConfig{
			Timeout: 30 * time.Second,
		},
		Launch: LaunchConfig{
			MinMemoryMB: 512,
			MaxMemoryMB: 2048,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
