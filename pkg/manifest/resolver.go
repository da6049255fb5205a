// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocklaunch/blocklaunch/internal/dag"
)

type (
	// Source fetches a single, unmerged version descriptor.
	Source interface {
		Fetch(ctx context.Context, id string) (*Version, error)
	}

	// SourceFunc adapts a function to Source.
	SourceFunc func(ctx context.Context, id string) (*Version, error)

	// Resolver merges inheritance chains fetched from a Source.
	Resolver struct {
		source Source
	}

	// Resolution is a merged descriptor plus the chain it came from,
	// child first.
	Resolution struct {
		Version *Version
		Chain   []string
	}
)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, id string) (*Version, error) {
	return f(ctx, id)
}

// NewResolver creates a Resolver reading from src.
func NewResolver(src Source) *Resolver {
	return &Resolver{source: src}
}

// Resolve returns the merged descriptor for id.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Version, error) {
	res, err := r.ResolveChain(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.Version, nil
}

// ResolveChain resolves id and also reports the inheritance chain.
func (r *Resolver) ResolveChain(ctx context.Context, id string) (*Resolution, error) {
	fetched := make(map[string]*Version)

	chain, err := dag.Walk(id, func(cur string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		v, err := r.source.Fetch(ctx, cur)
		if err != nil {
			return "", err
		}
		if v == nil {
			return "", &NotFoundError{ID: cur}
		}
		fetched[cur] = v
		return v.InheritsFrom, nil
	})
	if err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) {
			return nil, &CycleError{Chain: ce.Cycle}
		}
		return nil, fmt.Errorf("resolving %s: %w", id, unwrapWalk(err))
	}

	merged := fetched[chain[len(chain)-1]].Clone()
	for i := len(chain) - 2; i >= 0; i-- {
		merged = Merge(merged, fetched[chain[i]])
	}

	if err := Validate(merged); err != nil {
		return nil, err
	}
	return &Resolution{Version: merged, Chain: chain}, nil
}

// unwrapWalk drops the walk's own "walking from" wrapper; the resolver adds
// its own context.
func unwrapWalk(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}

// Merge layers child over parent and returns a new descriptor; neither input
// is modified. The result takes the child's ID and drops InheritsFrom.
func Merge(parent, child *Version) *Version {
	out := parent.Clone()
	c := child.Clone()

	out.ID = c.ID
	out.InheritsFrom = ""
	if c.Type != "" {
		out.Type = c.Type
	}
	if c.MainClass != "" {
		out.MainClass = c.MainClass
	}
	if c.MinecraftArguments != "" {
		out.MinecraftArguments = c.MinecraftArguments
	}
	if c.AssetIndex != nil {
		out.AssetIndex = c.AssetIndex
	}
	if c.Assets != "" {
		out.Assets = c.Assets
	}
	if c.JavaVersion != nil {
		out.JavaVersion = c.JavaVersion
	}
	if c.Logging != nil && c.Logging.Client != nil {
		out.Logging = c.Logging
	}
	if c.ReleaseTime != nil {
		out.ReleaseTime = c.ReleaseTime
	}
	if c.Time != nil {
		out.Time = c.Time
	}
	if c.Jar != "" {
		out.Jar = c.Jar
	} else if _, own := c.Downloads[DownloadClient]; !own && out.Jar == "" && parent.ID != "" {
		// a child without its own client jar launches its parent's
		out.Jar = parent.ID
	}
	for k, a := range c.Downloads {
		if out.Downloads == nil {
			out.Downloads = make(map[string]Artifact)
		}
		out.Downloads[k] = a
	}

	if c.Arguments != nil {
		if out.Arguments == nil {
			out.Arguments = &Arguments{}
		}
		out.Arguments.Game = append(out.Arguments.Game, c.Arguments.Game...)
		out.Arguments.JVM = append(out.Arguments.JVM, c.Arguments.JVM...)
	}

	out.Libraries = LayerLibraries(out.Libraries, c.Libraries)
	return out
}

// Validate checks the fields a launchable descriptor needs.
func Validate(v *Version) error {
	if v.MainClass == "" {
		return &MissingFieldError{Version: v.ID, Field: "mainClass"}
	}
	if v.AssetIndex == nil && v.Assets == "" {
		return &MissingFieldError{Version: v.ID, Field: "assetIndex"}
	}
	if v.Arguments == nil && v.MinecraftArguments == "" {
		return &MissingFieldError{Version: v.ID, Field: "arguments"}
	}
	for i, l := range v.Libraries {
		if l.Name == "" {
			return &MissingFieldError{Version: v.ID, Field: fmt.Sprintf("libraries[%d].name", i)}
		}
	}
	return nil
}
