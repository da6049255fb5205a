// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionsCommand(app *App) *cobra.Command {
	var (
		snapshots bool
		installed bool
	)

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List remote or installed versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := app.launcher(LauncherParams{})
			if err != nil {
				return fail("list versions", err)
			}

			if installed {
				ids, err := l.InstalledVersions(cmd.Context())
				if err != nil {
					return fail("list installed versions", err)
				}
				fmt.Fprintln(app.stdout, TitleStyle.Render("Installed versions"))
				if len(ids) == 0 {
					fmt.Fprintln(app.stdout, SubtitleStyle.Render("  (none)"))
				}
				for _, id := range ids {
					fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render(id))
				}
				return nil
			}

			list, err := l.RemoteVersions(cmd.Context())
			if err != nil {
				return fail("fetch version list", err)
			}
			types := []string{"release"}
			if snapshots {
				types = append(types, "snapshot")
			}

			fmt.Fprintf(app.stdout, "%s  latest release %s, snapshot %s\n",
				TitleStyle.Render("Versions"),
				CmdStyle.Render(list.Latest.Release),
				CmdStyle.Render(list.Latest.Snapshot))
			for _, v := range list.Filter(types...) {
				fmt.Fprintf(app.stdout, "  %-24s %s\n", CmdStyle.Render(v.ID),
					SubtitleStyle.Render(v.Type+"  "+v.ReleaseTime.Format("2006-01-02")))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "include snapshot versions")
	cmd.Flags().BoolVar(&installed, "installed", false, "list versions installed under the game directory")
	return cmd
}
