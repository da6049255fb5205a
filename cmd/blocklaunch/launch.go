// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blocklaunch/blocklaunch/internal/launch"
	"github.com/blocklaunch/blocklaunch/internal/launcher"
	"github.com/blocklaunch/blocklaunch/internal/mods"
)

// errQuickPlayConflict is returned when more than one quick play target is set.
var errQuickPlayConflict = errors.New("only one of --world, --server and --realm may be set")

type launchFlags struct {
	dryRun  bool
	demo    bool
	java    string
	width   int
	height  int
	world   string
	server  string
	realm   string
	gameArg []string
}

func newLaunchCommand(app *App) *cobra.Command {
	var f launchFlags

	cmd := &cobra.Command{
		Use:   "launch <version>",
		Short: "Install if needed and start the game",
		Long: `Install the version if anything is missing, refresh the session and start
the game. The exit status is the game's.

--dry-run prints the command line with the access token redacted instead of
starting the game.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := app.launchOptions(f)
			if err != nil {
				return fail("prepare launch", err)
			}

			l, err := app.launcher(LauncherParams{})
			if err != nil {
				return fail("launch", err)
			}

			desc, err := l.ResolveVersion(ctx, args[0])
			if err != nil {
				return fail("resolve version", err)
			}
			if _, err := l.Install(ctx, desc); err != nil {
				return fail("install version", err)
			}
			app.warnModProblems(ctx, l, desc.ID)
			session, err := l.Session(ctx)
			if err != nil {
				return fail("load session", err)
			}

			if err := l.PrepareLaunch(ctx, session, &opts); err != nil {
				return fail("prepare launch", err)
			}

			if opts.QuickPlay != nil {
				opts.QuickPlay.LogPath = filepath.Join(l.Root(), "quickPlay", "log.json")
			}
			launchCmd, err := l.BuildLaunchCommand(desc, session, opts)
			if err != nil {
				return fail("build launch command", err)
			}

			if f.dryRun {
				fmt.Fprintln(app.stdout, launchCmd.Redacted())
				return nil
			}

			res, err := l.Launch(ctx, launchCmd, app.stdout, app.stderr)
			if err != nil {
				return fail("launch", err)
			}
			if res.Error != nil {
				return fail("launch", res.Error)
			}
			if !res.Success() {
				fmt.Fprintf(app.stderr, "%s game stopped: %s\n", WarningStyle.Render("›"), res.ExitCode.Describe())
				return &ExitError{Code: res.ExitCode}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the command line instead of starting the game")
	cmd.Flags().BoolVar(&f.demo, "demo", false, "start in demo mode")
	cmd.Flags().StringVar(&f.java, "java", "", "java executable (overrides java_path)")
	cmd.Flags().IntVar(&f.width, "width", 0, "window width (overrides launch.width)")
	cmd.Flags().IntVar(&f.height, "height", 0, "window height (overrides launch.height)")
	cmd.Flags().StringVar(&f.world, "world", "", "quick play into a singleplayer world")
	cmd.Flags().StringVar(&f.server, "server", "", "quick play into a server address")
	cmd.Flags().StringVar(&f.realm, "realm", "", "quick play into a realm id")
	cmd.Flags().StringArrayVar(&f.gameArg, "game-arg", nil, "extra argument passed to the game (repeatable)")
	return cmd
}

// launchOptions merges the launch section of the configuration with flags.
func (a *App) launchOptions(f launchFlags) (launch.Options, error) {
	lc := a.cfg.Launch
	opts := launch.Options{
		Java:          f.java,
		MinMemoryMB:   lc.MinMemoryMB,
		MaxMemoryMB:   lc.MaxMemoryMB,
		ExtraJVMArgs:  lc.ExtraJVMArgs,
		ExtraGameArgs: f.gameArg,
		Width:         lc.Width,
		Height:        lc.Height,
		Demo:          f.demo,
		ClientID:      a.cfg.Auth.ClientID,
	}
	if f.width > 0 {
		opts.Width = f.width
	}
	if f.height > 0 {
		opts.Height = f.height
	}

	var targets []launch.QuickPlay
	if f.world != "" {
		targets = append(targets, launch.QuickPlay{Kind: launch.QuickPlaySingleplayer, Target: f.world})
	}
	if f.server != "" {
		targets = append(targets, launch.QuickPlay{Kind: launch.QuickPlayMultiplayer, Target: f.server})
	}
	if f.realm != "" {
		targets = append(targets, launch.QuickPlay{Kind: launch.QuickPlayRealms, Target: f.realm})
	}
	switch len(targets) {
	case 0:
	case 1:
		opts.QuickPlay = &targets[0]
	default:
		return launch.Options{}, errQuickPlayConflict
	}
	return opts, nil
}

// warnModProblems reports mods that will stop the game from loading. The
// game is still started; its own loader has the final say.
func (a *App) warnModProblems(ctx context.Context, l *launcher.Launcher, id string) {
	report, err := l.CheckMods(ctx, id)
	switch {
	case errors.Is(err, launcher.ErrNoLoader):
		return
	case err != nil:
		a.logger.Warn("mods not checked", "version", id, "error", err)
		return
	}
	for _, p := range report.Problems {
		if p.Level == mods.Hard {
			fmt.Fprintf(a.stderr, "%s %s\n", WarningStyle.Render("›"), p)
		}
	}
}
