// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blocklaunch/blocklaunch/internal/runtime"
	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

type (
	// templater expands {KEY}, [coordinate] and 'literal' references in
	// step arguments.
	templater struct {
		ws       *Workspace
		specials map[string]string
		data     map[string]string
		// outputs are library-relative paths the current step produces;
		// they always resolve into the stage.
		outputs map[string]bool
	}

	// stepOutput is an expected output file of a step.
	stepOutput struct {
		rel  string
		path string
		want digest.Digest
	}
)

func newTemplater(ws *Workspace, base *manifest.Version, data map[string]string) *templater {
	return &templater{
		ws: ws,
		specials: map[string]string{
			"SIDE":              sideClient,
			"MINECRAFT_JAR":     ws.VersionJar(base.JarID()),
			"MINECRAFT_VERSION": base.ID,
			"ROOT":              ws.Root,
			"INSTALLER":         ws.InstallerJar(),
			"LIBRARY_DIR":       ws.StagedLibraryDir(),
			"BINPATCH":          filepath.Join(ws.InstallerDir(), "data", "client.lzma"),
		},
		data: data,
	}
}

// expand resolves one argument.
func (t *templater) expand(arg string) (string, error) {
	if key, ok := braced(arg, '{', '}'); ok {
		if v, ok := t.specials[key]; ok {
			return v, nil
		}
		v, ok := t.data[key]
		if !ok {
			return "", fmt.Errorf("%w: unknown data key %q", ErrInvalidInstaller, key)
		}
		return t.value(v, true)
	}
	return t.value(arg, false)
}

// value resolves a data value or a plain argument. Only data values may
// name installer-relative paths.
func (t *templater) value(v string, fromData bool) (string, error) {
	if coord, ok := braced(v, '[', ']'); ok {
		rel, err := coordinatePath(coord)
		if err != nil {
			return "", err
		}
		return t.library(rel), nil
	}
	if lit, ok := braced(v, '\'', '\''); ok {
		return lit, nil
	}
	if fromData && strings.HasPrefix(v, "/") {
		return filepath.Join(t.ws.InstallerDir(), filepath.FromSlash(v)), nil
	}
	return v, nil
}

func (t *templater) library(rel string) string {
	if t.outputs[rel] {
		return t.ws.StagedPath(rel)
	}
	return t.ws.LibraryPath(rel)
}

// relOf returns the library-relative path an argument names, if any.
func (t *templater) relOf(arg string) (string, bool) {
	v := arg
	if key, ok := braced(arg, '{', '}'); ok {
		if v, ok = t.data[key]; !ok {
			return "", false
		}
	}
	coord, ok := braced(v, '[', ']')
	if !ok {
		return "", false
	}
	rel, err := coordinatePath(coord)
	return rel, err == nil
}

// prepare binds the templater to step and resolves its expected outputs.
func (t *templater) prepare(step Step) ([]stepOutput, error) {
	t.outputs = make(map[string]bool, len(step.Outputs))
	for k := range step.Outputs {
		if rel, ok := t.relOf(k); ok {
			t.outputs[rel] = true
		}
	}

	outs := make([]stepOutput, 0, len(step.Outputs))
	for k, v := range step.Outputs {
		path, err := t.expand(k)
		if err != nil {
			return nil, err
		}
		sum, err := t.expand(v)
		if err != nil {
			return nil, err
		}
		rel, _ := t.relOf(k)
		outs = append(outs, stepOutput{rel: rel, path: path, want: digest.SHA1Hex(sum)})
	}
	return outs, nil
}

func braced(s string, open, closing byte) (string, bool) {
	if len(s) >= 2 && s[0] == open && s[len(s)-1] == closing {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func coordinatePath(coord string) (string, error) {
	c, err := manifest.ParseCoordinate(coord)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInstaller, err)
	}
	return c.Path(), nil
}

// satisfied reports whether every output already verifies, staged or
// committed.
func (t *templater) satisfied(outs []stepOutput) bool {
	if len(outs) == 0 {
		return false
	}
	for _, o := range outs {
		candidates := []string{o.path}
		if o.rel != "" {
			candidates = append(candidates, t.ws.CommittedPath(o.rel))
		}
		ok := false
		for _, c := range candidates {
			if match, err := digest.Matches(c, o.want, 0); err == nil && match {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// runStep runs step i (0-based) of total. It returns skipped=true when the
// outputs already verified.
func (inst *Installer) runStep(ctx context.Context, t *templater, step Step, i, total int) (skipped bool, err error) {
	fail := func(code runtime.ExitCode, output string, cause error) error {
		return &ProcessorFailedError{Step: i + 1, Total: total, Name: step.Name(), ExitCode: code, Output: output, Err: cause}
	}

	outs, err := t.prepare(step)
	if err != nil {
		return false, fail(0, "", err)
	}
	if t.satisfied(outs) {
		return true, nil
	}

	jar := t.ws.LibraryPath(step.Jar.Path())
	mainClass, err := jarMainClass(jar)
	if err != nil {
		return false, fail(0, "", err)
	}

	cp := make([]string, 0, len(step.Classpath)+1)
	for _, c := range step.Classpath {
		cp = append(cp, t.ws.LibraryPath(c.Path()))
	}
	cp = append(cp, jar)

	args := []string{"-cp", strings.Join(cp, t.ws.Platform.ClasspathSeparator()), mainClass}
	for _, a := range step.Args {
		v, err := t.expand(a)
		if err != nil {
			return false, fail(0, "", err)
		}
		args = append(args, v)
	}

	inst.logger.Info("running install step", "step", i+1, "of", total, "name", step.Name())
	res := inst.runner.Run(ctx, runtime.Command{Path: inst.java, Args: args, Dir: t.ws.Stage})
	if !res.Success() {
		output := res.ErrOutput
		if output == "" {
			output = res.Output
		}
		return false, fail(res.ExitCode, output, res.Err())
	}

	for _, o := range outs {
		if err := digest.VerifyFile(o.path, o.want, 0); err != nil {
			return false, fail(0, res.Output, err)
		}
	}
	return false, nil
}
