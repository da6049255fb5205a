// SPDX-License-Identifier: MPL-2.0

// Package dag models directed graphs whose edges point from a prerequisite to
// the nodes built on top of it, such as a parent version descriptor and the
// descriptors inheriting from it.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("cycle detected")

type (
	// CycleError reports the nodes forming a cycle. For Walk the slice starts
	// and ends with the repeated node.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by string ids. An edge from A to B
	// means A must be handled before B.
	Graph struct {
		successors map[string][]string
		// insertion order keeps sort results deterministic
		order []string
		known map[string]bool
	}
)

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Cycle, " -> ")
}

// Unwrap returns ErrCycle so callers can use errors.Is.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		successors: make(map[string][]string),
		known:      make(map[string]bool),
	}
}

// AddNode adds id if it is not already present.
func (g *Graph) AddNode(id string) {
	if g.known[id] {
		return
	}
	g.known[id] = true
	g.order = append(g.order, id)
}

// AddEdge adds an edge from -> to, adding missing nodes.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.successors[from] = append(g.successors[from], to)
}

// Nodes returns the node ids in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// TopologicalSort orders the nodes so every edge points forward, using
// Kahn's algorithm. Ties keep insertion order. A cyclic graph yields a
// *CycleError listing the nodes that could not be ordered.
func (g *Graph) TopologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.order))
	for _, succ := range g.successors {
		for _, s := range succ {
			indegree[s]++
		}
	}

	ready := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		sorted = append(sorted, id)
		for _, s := range g.successors[id] {
			indegree[s]--
			if indegree[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	if len(sorted) < len(g.order) {
		var stuck []string
		for _, id := range g.order {
			if indegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, &CycleError{Cycle: stuck}
	}
	return sorted, nil
}

// Walk follows a chain of single-successor links from start. next returns
// the successor of an id, or "" at the end of the chain. Walk keeps a visited
// set and returns a *CycleError as soon as an id repeats, so it terminates on
// any input. The returned slice lists the chain from start to its end.
func Walk(start string, next func(id string) (string, error)) ([]string, error) {
	var chain []string
	position := make(map[string]int)

	for cur := start; cur != ""; {
		if at, seen := position[cur]; seen {
			cycle := append(append([]string(nil), chain[at:]...), cur)
			return chain, &CycleError{Cycle: cycle}
		}
		position[cur] = len(chain)
		chain = append(chain, cur)

		succ, err := next(cur)
		if err != nil {
			return chain, fmt.Errorf("walking from %s: %w", cur, err)
		}
		cur = succ
	}
	return chain, nil
}
