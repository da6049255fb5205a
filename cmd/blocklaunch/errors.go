// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/internal/config"
	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/issue"
	"github.com/blocklaunch/blocklaunch/internal/launcher"
	"github.com/blocklaunch/blocklaunch/internal/loader"
	"github.com/blocklaunch/blocklaunch/internal/natives"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

// exitInterrupted is the conventional status for SIGINT.
const exitInterrupted = 130

// classifyError maps a failure to its issue catalog entry, 0 when none
// fits. An entry linked where the error was built wins; otherwise more
// specific causes are checked first, since a batch can hold both integrity
// and network failures.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	switch {
	case errors.As(err, &ae) && ae.Issue != 0:
		return ae.Issue
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.Is(err, manifest.ErrVersionNotFound):
		return issue.VersionNotFoundId
	case errors.Is(err, manifest.ErrCycleDetected):
		return issue.DescriptorCycleId
	case errors.Is(err, manifest.ErrMissingField):
		return issue.DescriptorIncompleteId
	case errors.Is(err, download.ErrIntegrity):
		return issue.IntegrityFailedId
	case errors.Is(err, natives.ErrCorruptArchive):
		return issue.CorruptNativesId
	case errors.Is(err, loader.ErrUnsupportedVersionCombination):
		return issue.LoaderUnsupportedId
	case errors.Is(err, loader.ErrProcessorFailed):
		return issue.ProcessorFailedId
	case errors.Is(err, auth.ErrUserDeclined):
		return issue.SignInDeclinedId
	case errors.Is(err, auth.ErrExpiredDeviceCode):
		return issue.DeviceCodeExpiredId
	case errors.Is(err, auth.ErrRefreshFailed), errors.Is(err, auth.ErrInvalidGrant):
		return issue.SessionExpiredId
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, errNoPassword):
		return issue.InvalidCredentialsId
	case errors.Is(err, errModProblems):
		return issue.ModProblemsId
	case errors.Is(err, auth.ErrNoGameOwnership):
		return issue.NoGameOwnershipId
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrNoClientID), errors.Is(err, launcher.ErrNoAccounts):
		return issue.NotSignedInId
	case errors.Is(err, exec.ErrNotFound):
		return issue.JavaNotFoundId
	case errors.Is(err, download.ErrNetwork):
		return issue.DownloadFailedId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	default:
		return 0
	}
}

// suggestions are the one-line hints shown without --verbose.
var suggestions = map[issue.Id][]string{
	issue.ConfigLoadFailedId:     {"Run 'blocklaunch config show' to see the effective configuration"},
	issue.VersionNotFoundId:      {"Run 'blocklaunch versions' to list known versions"},
	issue.DescriptorCycleId:      {"Reinstall the loader that produced the descriptor"},
	issue.DescriptorIncompleteId: {"Install the base version the descriptor inherits from"},
	issue.DownloadFailedId:       {"Check your connection and retry; finished files are kept", "Configure a mirror in config.cue"},
	issue.IntegrityFailedId:      {"Retry later or disable the configured mirror"},
	issue.CorruptNativesId:       {"Delete the archive under libraries/ and install again"},
	issue.LoaderUnsupportedId:    {"Pick another game version or pass --loader variant@version"},
	issue.ProcessorFailedId:      {"Check java_path and rerun with --verbose"},
	issue.SignInDeclinedId:       {"Run 'blocklaunch login' again and approve the request"},
	issue.DeviceCodeExpiredId:    {"Run 'blocklaunch login' again and enter the code promptly"},
	issue.SessionExpiredId:       {"Run 'blocklaunch login' to sign in again"},
	issue.NoGameOwnershipId:      {"Sign in with the account that owns the game"},
	issue.NotSignedInId:          {"Run 'blocklaunch login' or 'blocklaunch login --offline <name>'", "Microsoft sign-in needs auth.client_id in config.cue"},
	issue.JavaNotFoundId:         {"Set java_path in config.cue"},
	issue.PermissionDeniedId:     {"Point game_dir at a writable directory"},
	issue.ModProblemsId:          {"Run 'blocklaunch mods <version>' and update or remove the mods it names"},
	issue.InvalidCredentialsId:   {"Check the server address, username and password", "Pass the password on stdin or in " + passwordEnv},
}

// fail turns a command failure into an *ExitError wrapping an
// ActionableError. Errors that already carry context keep it.
func fail(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: exitInterrupted, Err: err}
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		id := classifyError(err)
		ae = issue.NewErrorContext().
			WithOperation(operation).
			WithIssue(id).
			WithSuggestions(suggestions[id]...).
			Wrap(err).
			Build()
	}
	return &ExitError{Code: 1, Err: ae}
}

// renderError prints err to w. Verbose mode adds the error chain and the
// catalog entry for the failure.
func (a *App) renderError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		// the game already reported its own failure
		return
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), ae.Format(a.verbose))
	} else {
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err)
	}

	if !a.verbose {
		return
	}
	id := classifyError(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render(a.glamourStyle())
		if renderErr != nil {
			a.logger.Warn("failed to render issue catalog entry", "issue", id, "error", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// glamourStyle maps the configured color scheme onto a glamour style name.
func (a *App) glamourStyle() string {
	if a.cfg == nil {
		return "auto"
	}
	switch a.cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
