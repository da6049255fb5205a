// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/blocklaunch/blocklaunch/internal/launcher"
	"github.com/blocklaunch/blocklaunch/internal/mods"
)

// errModProblems is returned when an installed mod set cannot load.
var errModProblems = errors.New("mods have unmet requirements")

func newModsCommand(app *App) *cobra.Command {
	var showBuiltins bool

	cmd := &cobra.Command{
		Use:   "mods <version>",
		Short: "List installed mods and check their requirements",
		Long: `Read every jar in the mods directory of the game directory and check the
dependencies, conflicts and breaks they declare against each other, the
game, Java and the mod loader the version launches with.

Hard problems stop the game from loading and make the command fail. Soft
problems leave features missing; suggestions are shown as hints.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.launcher(LauncherParams{})
			if err != nil {
				return fail("check mods", err)
			}
			report, err := l.CheckMods(cmd.Context(), args[0])
			if err != nil {
				return fail("check mods", err)
			}

			app.printModReport(report, showBuiltins)

			hard := 0
			for _, p := range report.Problems {
				if p.Level == mods.Hard {
					hard++
				}
			}
			if hard > 0 {
				return fail("check mods", fmt.Errorf("%d hard problems: %w", hard, errModProblems))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showBuiltins, "builtins", false, "also list the game, Java and loader entries")
	return cmd
}

func (a *App) printModReport(r *launcher.ModReport, showBuiltins bool) {
	fmt.Fprintf(a.stdout, "%s %s  %s\n", TitleStyle.Render("Mods for"), CmdStyle.Render(r.Version),
		SubtitleStyle.Render(fmt.Sprintf("%s %s", r.Loader.Variant, r.Loader.Version)))

	list := r.Mods
	if showBuiltins {
		list = append(append([]mods.Mod(nil), r.Builtins...), r.Mods...)
	}
	shown := 0
	for _, m := range list {
		if m.Provided {
			continue
		}
		version := m.Version
		if version == "" {
			version = "?"
		}
		fmt.Fprintf(a.stdout, "  %-28s %-16s %s\n", CmdStyle.Render(m.ID), version, SubtitleStyle.Render(m.File))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("  (none)"))
	}

	var merr *multierror.Error
	if errors.As(r.ScanErr, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintf(a.stdout, "%s %v\n", WarningStyle.Render("  unreadable:"), e)
		}
	}

	if len(r.Problems) == 0 {
		fmt.Fprintln(a.stdout, SuccessStyle.Render("No problems found"))
		return
	}
	fmt.Fprintln(a.stdout, TitleStyle.Render("Problems"))
	for _, p := range r.Problems {
		fmt.Fprintf(a.stdout, "  %s %s\n", levelStyle(p.Level).Render("["+p.Level.String()+"]"), p)
	}
}

func levelStyle(l mods.Level) lipgloss.Style {
	switch l {
	case mods.Hard:
		return ErrorStyle
	case mods.Soft:
		return WarningStyle
	default:
		return SubtitleStyle
	}
}
