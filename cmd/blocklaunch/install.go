// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/blocklaunch/blocklaunch/internal/loader"
)

func newInstallCommand(app *App) *cobra.Command {
	var (
		loaderSpec  string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "install <version>",
		Short: "Install a game version and optionally a mod loader",
		Long: `Install a game version: its descriptor, client jar, libraries, natives,
assets and logging configuration. Files already present with the expected
digest are not downloaded again.

The version may be "release" or "snapshot" for the newest remote version.
--loader takes a variant (fabric, quilt, forge, neoforge) and an optional
version, for example fabric@0.15.11.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var req *loader.Request
			if loaderSpec != "" {
				r, err := loader.ParseRequest(loaderSpec)
				if err != nil {
					return fail("parse --loader", err)
				}
				req = &r
			}

			params := LauncherParams{}
			var reg *prometheus.Registry
			if metricsFile != "" {
				reg = prometheus.NewRegistry()
				params.Registerer = reg
			}

			l, err := app.launcher(params)
			if err != nil {
				return fail("install version", err)
			}

			desc, err := l.ResolveVersion(ctx, args[0])
			if err != nil {
				return fail("resolve version", err)
			}

			if req != nil {
				res, err := l.InstallLoader(ctx, desc, *req)
				if err != nil {
					return fail("install loader", err)
				}
				fmt.Fprintf(app.stdout, "%s %s (%s %s on %s, %d libraries, %d steps run, %d skipped)\n",
					SuccessStyle.Render("Installed"), CmdStyle.Render(res.Descriptor.ID),
					res.Variant, res.Version, desc.ID, res.Downloaded, res.Ran, res.Skipped)
			} else {
				report, err := l.Install(ctx, desc)
				if err != nil {
					return fail("install version", err)
				}
				fmt.Fprintf(app.stdout, "%s %s (%d downloaded, %d up to date, %d natives, %d assets linked)\n",
					SuccessStyle.Render("Installed"), CmdStyle.Render(desc.ID),
					report.Downloaded, report.Satisfied, report.Natives, report.Linked)
			}

			if reg != nil {
				if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
					return fail("write metrics", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&loaderSpec, "loader", "", "mod loader to install, as variant[@version]")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write download metrics in Prometheus text format to this file")
	return cmd
}
