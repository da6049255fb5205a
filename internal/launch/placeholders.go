// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"strconv"
	"strings"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

// userProperties is passed for ${user_properties}; the game only needs a
// valid JSON object.
const userProperties = "{}"

// placeholders resolves ${name} references for one build.
type placeholders struct {
	version string
	values  map[string]string
}

func newPlaceholders(b *Builder, desc *manifest.Version, paths Paths, s *auth.Session, opts *Options, classpath string) *placeholders {
	v := map[string]string{
		"version_name":        desc.ID,
		"game_directory":      paths.GameDir,
		"assets_root":         assetsRoot(paths.Root),
		"game_assets":         paths.GameAssets,
		"assets_index_name":   desc.AssetsID(),
		"user_properties":     userProperties,
		"natives_directory":   paths.NativesDir,
		"launcher_name":       b.name,
		"launcher_version":    b.version,
		"library_directory":   libraryDir(paths.Root),
		"classpath_separator": opts.Platform.ClasspathSeparator(),
		"classpath":           classpath,
		"clientid":            opts.ClientID,
		"user_type":           s.UserType(),
	}
	if desc.Type != "" {
		v["version_type"] = desc.Type
	}

	id := strings.ReplaceAll(s.Profile.UUID, "-", "")
	if id != "" {
		v["auth_uuid"] = id
	}
	if s.Profile.Name != "" {
		v["auth_player_name"] = s.Profile.Name
	}
	if s.AccessToken != "" {
		v["auth_access_token"] = s.AccessToken
		if id != "" {
			v["auth_session"] = "token:" + s.AccessToken + ":" + id
		}
	}
	v["auth_xuid"] = s.XUID
	if s.XUID == "" {
		v["auth_xuid"] = "0"
	}

	if opts.customResolution() {
		v["resolution_width"] = strconv.Itoa(opts.Width)
		v["resolution_height"] = strconv.Itoa(opts.Height)
	}
	if qp := opts.QuickPlay; qp != nil {
		if qp.LogPath != "" {
			v["quickPlayPath"] = qp.LogPath
		}
		switch qp.Kind {
		case QuickPlaySingleplayer:
			v["quickPlaySingleplayer"] = qp.Target
		case QuickPlayMultiplayer:
			v["quickPlayMultiplayer"] = qp.Target
		case QuickPlayRealms:
			v["quickPlayRealms"] = qp.Target
		}
	}
	return &placeholders{version: desc.ID, values: v}
}

// expand substitutes every ${name} in arg. Text without a closing brace is
// kept as is.
func (p *placeholders) expand(arg string) (string, error) {
	if !strings.Contains(arg, "${") {
		return arg, nil
	}
	var b strings.Builder
	for {
		start := strings.Index(arg, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(arg[start:], '}')
		if end < 0 {
			break
		}
		name := arg[start+2 : start+end]
		val, ok := p.values[name]
		if !ok {
			return "", &manifest.MissingFieldError{Version: p.version, Field: "${" + name + "}"}
		}
		b.WriteString(arg[:start])
		b.WriteString(val)
		arg = arg[start+end+1:]
	}
	b.WriteString(arg)
	return b.String(), nil
}

// expandAll expands each argument in order.
func (p *placeholders) expandAll(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		s, err := p.expand(a)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
