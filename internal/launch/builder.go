// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/blocklaunch/blocklaunch/internal/auth"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
	"github.com/blocklaunch/blocklaunch/pkg/platform"
)

// minSecretLen keeps short placeholder tokens, such as the offline "0",
// out of redaction.
const minSecretLen = 8

type (
	// Builder assembles launch commands. A Builder has no mutable state and
	// may be shared.
	Builder struct {
		name    string
		version string
		logger  *log.Logger
	}

	// Option configures a Builder.
	Option func(*Builder)
)

// WithLauncher sets the values of ${launcher_name} and ${launcher_version}.
func WithLauncher(name, version string) Option {
	return func(b *Builder) {
		b.name, b.version = name, version
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		name:    "blocklaunch",
		version: "dev",
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the command line for desc, which must be fully resolved.
//
// Modern descriptors produce their JVM arguments, the memory, logging and
// extra JVM arguments, the main class, their game arguments and the extra
// game arguments, in that order. Legacy descriptors replace the descriptor
// JVM arguments with -Djava.library.path and -cp. A descriptor layering
// modern arguments over a legacy base keeps both: the legacy block and
// minecraftArguments come first, then the layered arguments.
func (b *Builder) Build(desc *manifest.Version, paths Paths, session auth.Session, opts Options) (*Command, error) {
	if desc == nil {
		return nil, errors.New("no version descriptor")
	}
	if desc.MainClass == "" {
		return nil, &manifest.MissingFieldError{Version: desc.ID, Field: "mainClass"}
	}
	if paths.Root == "" {
		return nil, fmt.Errorf("%w: game root is required", ErrInvalidOptions)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Platform.OS == "" {
		opts.Platform = platform.Current()
	}
	if opts.Java == "" {
		opts.Java = "java"
	}
	paths = paths.withDefaults(desc)

	extraJVM, err := shell.Fields(opts.ExtraJVMArgs, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: extra JVM arguments: %w", ErrInvalidOptions, err)
	}

	env := manifest.Environment{Platform: opts.Platform, Features: opts.features()}
	cp := classpath(desc, paths.Root, env)
	joined := strings.Join(cp, opts.Platform.ClasspathSeparator())
	ph := newPlaceholders(b, desc, paths, &session, &opts, joined)

	cmd := &Command{
		Java:      opts.Java,
		MainClass: desc.MainClass,
		Classpath: cp,
		Dir:       paths.GameDir,
	}
	if len(session.AccessToken) >= minSecretLen {
		cmd.secrets = append(cmd.secrets, session.AccessToken)
	}

	legacy := desc.Arguments == nil || (desc.MinecraftArguments != "" && !referencesClasspath(desc.Arguments.JVM))
	if legacy {
		cmd.JVMArgs = []string{"-Djava.library.path=" + paths.NativesDir, "-cp", joined}
	}
	if desc.Arguments != nil {
		jvm, err := expandArguments(desc.Arguments.JVM, env, ph)
		if err != nil {
			return nil, err
		}
		cmd.JVMArgs = append(cmd.JVMArgs, jvm...)
	}
	if ai := opts.AuthlibInjector; ai != nil {
		cmd.JVMArgs = append(cmd.JVMArgs, "-javaagent:"+ai.Jar+"="+ai.APIURL)
		if ai.Prefetched != "" {
			cmd.JVMArgs = append(cmd.JVMArgs, "-Dauthlibinjector.yggdrasil.prefetched="+ai.Prefetched)
		}
	}

	if opts.MinMemoryMB > 0 {
		cmd.JVMArgs = append(cmd.JVMArgs, "-Xms"+strconv.Itoa(opts.MinMemoryMB)+"M")
	}
	if opts.MaxMemoryMB > 0 {
		cmd.JVMArgs = append(cmd.JVMArgs, "-Xmx"+strconv.Itoa(opts.MaxMemoryMB)+"M")
	}
	if arg := loggingArgument(desc, paths.Root); arg != "" {
		cmd.JVMArgs = append(cmd.JVMArgs, arg)
	}
	cmd.JVMArgs = append(cmd.JVMArgs, extraJVM...)

	if legacy {
		if cmd.GameArgs, err = ph.expandAll(strings.Fields(desc.MinecraftArguments)); err != nil {
			return nil, err
		}
	}
	if desc.Arguments != nil {
		game, err := expandArguments(desc.Arguments.Game, env, ph)
		if err != nil {
			return nil, err
		}
		cmd.GameArgs = append(cmd.GameArgs, game...)
	}
	cmd.GameArgs = append(cmd.GameArgs, opts.ExtraGameArgs...)

	b.logger.Debug("launch command built",
		"version", desc.ID, "legacy", legacy, "classpath", len(cp),
		"jvm_args", len(cmd.JVMArgs), "game_args", len(cmd.GameArgs))
	return cmd, nil
}

// referencesClasspath reports whether args pass the classpath themselves,
// which only complete modern argument lists do.
func referencesClasspath(args []manifest.Argument) bool {
	for _, a := range args {
		for _, v := range a.Values {
			if strings.Contains(v, "${classpath}") {
				return true
			}
		}
	}
	return false
}

// expandArguments keeps the arguments whose rules allow env and expands
// their values.
func expandArguments(args []manifest.Argument, env manifest.Environment, ph *placeholders) ([]string, error) {
	var out []string
	for _, a := range args {
		if !manifest.Allowed(a.Rules, env) {
			continue
		}
		vals, err := ph.expandAll(a.Values)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// classpath lists the libraries allowed in env that have a main artifact,
// each path once, followed by the client jar.
func classpath(desc *manifest.Version, root string, env manifest.Environment) []string {
	dir := libraryDir(root)
	seen := make(map[string]bool, len(desc.Libraries))
	cp := make([]string, 0, len(desc.Libraries)+1)
	for i := range desc.Libraries {
		lib := &desc.Libraries[i]
		if !lib.Applies(env) {
			continue
		}
		a, ok := lib.Artifact()
		if !ok {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(a.Path))
		if seen[p] {
			continue
		}
		seen[p] = true
		cp = append(cp, p)
	}
	return append(cp, manifest.VersionJarPath(root, desc.JarID()))
}

// loggingArgument is the client logging argument with its ${path}
// pointing at the downloaded configuration.
func loggingArgument(desc *manifest.Version, root string) string {
	if desc.Logging == nil || desc.Logging.Client == nil {
		return ""
	}
	c := desc.Logging.Client
	if c.Argument == "" || c.File.ID == "" {
		return ""
	}
	return strings.ReplaceAll(c.Argument, "${path}", LoggingConfigPath(root, c.File.ID))
}

func libraryDir(root string) string { return filepath.Join(root, "libraries") }

func assetsRoot(root string) string { return filepath.Join(root, "assets") }
