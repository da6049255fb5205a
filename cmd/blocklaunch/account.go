// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/internal/launcher"
)

// passwordEnv supplies the Yggdrasil password without a prompt.
const passwordEnv = "BLOCKLAUNCH_PASSWORD"

// errNoPassword is returned when a Yggdrasil sign-in finds no password.
var errNoPassword = errors.New("no password given on stdin or in " + passwordEnv)

type loginFlags struct {
	offline   string
	yggdrasil string
	username  string
	profile   string
}

func newLoginCommand(app *App) *cobra.Command {
	var f loginFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Microsoft or Yggdrasil account, or create an offline account",
		Long: `Sign in with a Microsoft account using a device code: open the shown
address in any browser and enter the code. The session is stored and
refreshed automatically.

With --yggdrasil the launcher signs in to a third-party authentication
server with --username and a password read from ` + passwordEnv + ` or the
first line of stdin. The game is started with the authlib-injector agent.

With --offline the launcher stores a local account instead; the player id
is derived from the name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.offline != "" && f.yggdrasil != "" {
				return fail("sign in", errors.New("--offline and --yggdrasil are exclusive"))
			}
			l, err := app.launcher(LauncherParams{})
			if err != nil {
				return fail("sign in", err)
			}

			var s auth.Session
			switch {
			case f.offline != "":
				accounts := l.Accounts()
				if accounts == nil {
					return fail("sign in", launcher.ErrNoAccounts)
				}
				s, err = accounts.LoginOffline(f.offline)
			case f.yggdrasil != "":
				s, err = app.loginYggdrasil(cmd.Context(), l, f)
			default:
				s, err = l.Authenticate(cmd.Context(), app.showDeviceCode)
			}
			if err != nil {
				return fail("sign in", err)
			}

			fmt.Fprintf(app.stdout, "%s as %s (%s)\n",
				SuccessStyle.Render("Signed in"), CmdStyle.Render(s.Profile.Name), s.Kind)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.offline, "offline", "", "create an offline account with this player name")
	cmd.Flags().StringVar(&f.yggdrasil, "yggdrasil", "", "sign in to the Yggdrasil server at this address")
	cmd.Flags().StringVar(&f.username, "username", "", "Yggdrasil account name, usually an email address")
	cmd.Flags().StringVar(&f.profile, "profile", "", "Yggdrasil profile to play as when the account has several")
	return cmd
}

// loginYggdrasil reads the password and signs in. The profile is picked by
// --profile, or by number from stdin.
func (a *App) loginYggdrasil(ctx context.Context, l *launcher.Launcher, f loginFlags) (auth.Session, error) {
	in := bufio.NewReader(a.stdin)

	password := os.Getenv(passwordEnv)
	if password == "" {
		fmt.Fprintf(a.stderr, "Password for %s: ", f.username)
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return auth.Session{}, fmt.Errorf("reading password: %w", err)
		}
		fmt.Fprintln(a.stderr)
		if password = strings.TrimRight(line, "\r\n"); password == "" {
			return auth.Session{}, errNoPassword
		}
	}

	choose := func(_ context.Context, profiles []auth.Profile) (int, error) {
		if f.profile != "" {
			for i, p := range profiles {
				if strings.EqualFold(p.Name, f.profile) {
					return i, nil
				}
			}
			return 0, fmt.Errorf("account has no profile named %q", f.profile)
		}
		fmt.Fprintln(a.stderr, TitleStyle.Render("Profiles"))
		for i, p := range profiles {
			fmt.Fprintf(a.stderr, "  %d. %s\n", i+1, p.Name)
		}
		fmt.Fprint(a.stderr, "Play as: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("reading choice: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return 0, fmt.Errorf("choice %q is not a number", strings.TrimSpace(line))
		}
		return n - 1, nil
	}

	return l.LoginYggdrasil(ctx, auth.YggdrasilCredentials{
		APIURL:   f.yggdrasil,
		Username: f.username,
		Password: password,
	}, choose)
}

// showDeviceCode is the auth.Prompt used by login.
func (a *App) showDeviceCode(_ context.Context, code auth.DeviceCode) error {
	fmt.Fprintf(a.stderr, "Open %s and enter this code:\n%s\n%s\n",
		CmdStyle.Render(code.VerificationURI),
		codeStyle.Render(code.UserCode),
		SubtitleStyle.Render(fmt.Sprintf("The code expires in %s.", code.ExpiresIn.Round(time.Second))))
	return nil
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.launcher(LauncherParams{})
			if err != nil {
				return fail("sign out", err)
			}
			accounts := l.Accounts()
			if accounts == nil {
				return fail("sign out", launcher.ErrNoAccounts)
			}
			if err := accounts.Logout(); err != nil {
				return fail("sign out", err)
			}
			fmt.Fprintln(app.stdout, SuccessStyle.Render("Signed out"))
			return nil
		},
	}
}

func newAccountCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show the signed-in account, refreshing the session if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.launcher(LauncherParams{})
			if err != nil {
				return fail("show account", err)
			}
			s, err := l.Session(cmd.Context())
			if err != nil {
				return fail("show account", err)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render("Account"))
			fmt.Fprintf(app.stdout, "  %s: %s\n", CmdStyle.Render("name"), s.Profile.Name)
			fmt.Fprintf(app.stdout, "  %s: %s\n", CmdStyle.Render("uuid"), s.Profile.UUID)
			fmt.Fprintf(app.stdout, "  %s: %s\n", CmdStyle.Render("kind"), s.Kind)
			switch s.Kind {
			case auth.KindOffline:
			case auth.KindYggdrasil:
				if s.Server != nil {
					fmt.Fprintf(app.stdout, "  %s: %s (%s)\n", CmdStyle.Render("server"), s.Server.Name, s.Server.APIURL)
				}
				fmt.Fprintf(app.stdout, "  %s: %s\n", CmdStyle.Render("validated"), s.ValidatedAt.Local().Format(time.RFC1123))
			default:
				fmt.Fprintf(app.stdout, "  %s: %s\n", CmdStyle.Render("expires"), s.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}
