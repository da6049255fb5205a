// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"fmt"
	"path"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/internal/launch"
	"github.com/blocklaunch/blocklaunch/pkg/digest"
)

// agentGroupPath is where authlib-injector builds are kept under libraries/.
const agentGroupPath = "moe/yushi/authlib-injector"

// LoginYggdrasil signs in to a Yggdrasil server with a password.
func (l *Launcher) LoginYggdrasil(ctx context.Context, creds auth.YggdrasilCredentials, choose auth.ProfileChooser) (auth.Session, error) {
	if l.accounts == nil {
		return auth.Session{}, ErrNoAccounts
	}
	l.observe(Progress{Stage: StageAuth, Message: "yggdrasil sign-in"})
	return l.accounts.LoginYggdrasil(ctx, creds, choose)
}

// PrepareLaunch completes opts for session. Yggdrasil sessions need the
// authlib-injector agent, which is downloaded into the library directory
// and verified against the published checksum.
func (l *Launcher) PrepareLaunch(ctx context.Context, session auth.Session, opts *launch.Options) error {
	if session.Kind != auth.KindYggdrasil || session.Server == nil {
		return nil
	}
	if l.accounts == nil {
		return ErrNoAccounts
	}

	rel, err := l.accounts.LatestAgent(ctx)
	if err != nil {
		return fmt.Errorf("locating authlib-injector: %w", err)
	}

	name := "authlib-injector-" + rel.Version + ".jar"
	jar := libraryPath(l.root, path.Join(agentGroupPath, rel.Version, name))
	l.observe(Progress{Stage: StageDownload, Message: name})
	var report InstallReport
	if err := l.fetch(ctx, &report, []download.Task{{
		Name:    name,
		Sources: l.mirror.Sources(rel.URL),
		Dest:    jar,
		Digest:  digest.New(digest.SHA256, rel.SHA256),
	}}); err != nil {
		return fmt.Errorf("downloading authlib-injector %s: %w", rel.Version, err)
	}

	opts.AuthlibInjector = &launch.AuthlibInjector{
		Jar:        jar,
		APIURL:     session.Server.APIURL,
		Prefetched: session.Server.Metadata,
	}
	l.logger.Debug("authlib-injector ready", "version", rel.Version, "server", session.Server.Name)
	return nil
}
