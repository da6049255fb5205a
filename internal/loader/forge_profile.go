// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

const (
	sideClient      = "client"
	downloadMojmaps = "DOWNLOAD_MOJMAPS"
	mojmapsKey      = "MOJMAPS"

	// legacyForgeMaven moved; descriptors from old installers still name it.
	legacyForgeMaven = "http://files.minecraftforge.net/maven/"
	forgeMaven       = "https://maven.minecraftforge.net/"
)

type (
	// installProfile is install_profile.json of installers for 1.13+.
	installProfile struct {
		Version    string               `json:"version"`
		JSON       string               `json:"json"`
		Data       map[string]dataEntry `json:"data"`
		Processors []processorSpec      `json:"processors"`
		Libraries  []manifest.Library   `json:"libraries"`
	}

	dataEntry struct {
		Client string `json:"client"`
		Server string `json:"server"`
	}

	processorSpec struct {
		Sides     []string          `json:"sides"`
		Jar       string            `json:"jar"`
		Classpath []string          `json:"classpath"`
		Args      []string          `json:"args"`
		Outputs   map[string]string `json:"outputs"`
	}

	// legacyInstallProfile is install_profile.json of installers up to 1.12.
	legacyInstallProfile struct {
		Install struct {
			Path     string `json:"path"`
			FilePath string `json:"filePath"`
		} `json:"install"`
		VersionInfo json.RawMessage `json:"versionInfo"`
	}

	// legacyLibrary carries the client flag of old descriptors.
	legacyLibrary struct {
		Name      string `json:"name"`
		ClientReq *bool  `json:"clientreq"`
	}
)

// Plan implements Planner: it downloads and unpacks the installer, stages
// the bundled Maven files and turns the install profile into a Profile.
func (f *forgeLike) Plan(ctx context.Context, ws *Workspace, base *manifest.Version, version string) (*Profile, error) {
	artifact := f.artifact(base.ID)
	installerURL := fmt.Sprintf("%s/%s/%s/%s-%s-installer.jar", f.cfg.baseURL, artifact, version, artifact, version)
	installerJar := ws.InstallerJar()

	err := ws.Downloader.RunAll(ctx, []download.Task{{
		Name:    filepath.Base(installerURL),
		Sources: ws.Mirror.Sources(installerURL),
		Dest:    installerJar,
	}})
	if err != nil {
		return nil, fmt.Errorf("downloading %s installer: %w", f.variant, err)
	}
	if err := extractAll(installerJar, ws.InstallerDir()); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(ws.InstallerDir(), "install_profile.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstaller, err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%w: install_profile.json: %w", ErrInvalidInstaller, err)
	}
	if _, legacy := keys["versionInfo"]; legacy {
		if f.variant != VariantForge {
			return nil, fmt.Errorf("%w: legacy install profile", ErrInvalidInstaller)
		}
		return f.planLegacy(ws, base, version, raw)
	}
	return f.planModern(ws, base, version, raw)
}

func (f *forgeLike) planModern(ws *Workspace, base *manifest.Version, version string, raw []byte) (*Profile, error) {
	var ip installProfile
	if err := json.Unmarshal(raw, &ip); err != nil {
		return nil, fmt.Errorf("%w: install_profile.json: %w", ErrInvalidInstaller, err)
	}

	descName := strings.TrimPrefix(ip.JSON, "/")
	if descName == "" {
		descName = "version.json"
	}
	descData, err := os.ReadFile(filepath.Join(ws.InstallerDir(), filepath.FromSlash(descName)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstaller, err)
	}
	desc, err := manifest.Decode(ip.Version, descData)
	if err != nil {
		return nil, err
	}
	if desc.ID == "" {
		desc.ID = fmt.Sprintf("%s-%s-%s", base.ID, f.variant, version)
	}
	desc.InheritsFrom = base.ID

	if _, err := stageTree(ws, filepath.Join(ws.InstallerDir(), "maven")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data := make(map[string]string, len(ip.Data))
	for k, v := range ip.Data {
		data[k] = v.Client
	}

	env := ws.Environment()
	artifacts := append(artifactsFor(ip.Libraries, env), artifactsFor(desc.Libraries, env)...)
	if mojmaps, ok := mojmapsArtifact(base, data); ok {
		artifacts = append(artifacts, mojmaps)
	}

	steps := make([]Step, 0, len(ip.Processors))
	for _, p := range ip.Processors {
		if slices.Contains(p.Args, downloadMojmaps) {
			continue
		}
		if len(p.Sides) > 0 && !slices.Contains(p.Sides, sideClient) {
			continue
		}
		step, err := newStep(p)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return &Profile{
		Variant:    f.variant,
		Version:    version,
		Descriptor: desc,
		Artifacts:  dedupeArtifacts(artifacts),
		Steps:      steps,
		Data:       data,
	}, nil
}

func newStep(p processorSpec) (Step, error) {
	jar, err := manifest.ParseCoordinate(p.Jar)
	if err != nil {
		return Step{}, fmt.Errorf("%w: processor jar: %w", ErrInvalidInstaller, err)
	}
	step := Step{Jar: jar, Args: p.Args, Outputs: p.Outputs}
	for _, c := range p.Classpath {
		coord, err := manifest.ParseCoordinate(c)
		if err != nil {
			return Step{}, fmt.Errorf("%w: processor classpath: %w", ErrInvalidInstaller, err)
		}
		step.Classpath = append(step.Classpath, coord)
	}
	return step, nil
}

// mojmapsArtifact fetches the official client mappings into the library
// slot MOJMAPS names, replacing the installer's own download processor.
func mojmapsArtifact(base *manifest.Version, data map[string]string) (Artifact, bool) {
	ref, ok := data[mojmapsKey]
	if !ok || !strings.HasPrefix(ref, "[") || !strings.HasSuffix(ref, "]") {
		return Artifact{}, false
	}
	mappings, ok := base.Downloads[manifest.DownloadClientMappings]
	if !ok || mappings.URL == "" {
		return Artifact{}, false
	}
	coord, err := manifest.ParseCoordinate(ref[1 : len(ref)-1])
	if err != nil {
		return Artifact{}, false
	}
	return Artifact{
		Path:   coord.Path(),
		URL:    mappings.URL,
		Digest: digest.SHA1Hex(mappings.SHA1),
		Size:   mappings.Size,
	}, true
}

func (f *forgeLike) planLegacy(ws *Workspace, base *manifest.Version, version string, raw []byte) (*Profile, error) {
	var lp legacyInstallProfile
	if err := json.Unmarshal(raw, &lp); err != nil {
		return nil, fmt.Errorf("%w: install_profile.json: %w", ErrInvalidInstaller, err)
	}
	desc, err := manifest.Decode("", lp.VersionInfo)
	if err != nil {
		return nil, err
	}
	if desc.ID == "" {
		desc.ID = base.ID + "-forge-" + version
	}
	desc.InheritsFrom = base.ID

	// drop server-only libraries and point old Maven URLs at the live host
	var flags []legacyLibrary
	var holder struct {
		Libraries *[]legacyLibrary `json:"libraries"`
	}
	holder.Libraries = &flags
	if err := json.Unmarshal(lp.VersionInfo, &holder); err != nil {
		return nil, fmt.Errorf("%w: versionInfo: %w", ErrInvalidInstaller, err)
	}
	serverOnly := make(map[string]bool)
	for _, l := range flags {
		if l.ClientReq != nil && !*l.ClientReq {
			serverOnly[l.Name] = true
		}
	}
	libs := desc.Libraries[:0]
	for _, l := range desc.Libraries {
		if serverOnly[l.Name] {
			continue
		}
		if strings.HasPrefix(l.URL, legacyForgeMaven) {
			l.URL = forgeMaven + strings.TrimPrefix(l.URL, legacyForgeMaven)
		}
		libs = append(libs, l)
	}
	desc.Libraries = libs

	// the universal jar ships inside the installer
	universal, err := manifest.ParseCoordinate(lp.Install.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: install path: %w", ErrInvalidInstaller, err)
	}
	src, err := os.ReadFile(filepath.Join(ws.InstallerDir(), filepath.FromSlash(lp.Install.FilePath)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstaller, err)
	}
	if err := fspath.WriteFileAtomic(ws.StagedPath(universal.Path()), src, 0o644); err != nil {
		return nil, err
	}

	var artifacts []Artifact
	for _, a := range artifactsFor(desc.Libraries, ws.Environment()) {
		if a.Path != universal.Path() {
			artifacts = append(artifacts, a)
		}
	}

	return &Profile{
		Variant:    f.variant,
		Version:    version,
		Descriptor: desc,
		Artifacts:  dedupeArtifacts(artifacts),
	}, nil
}
