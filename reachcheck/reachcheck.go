// Package reachcheck precomputes whether the permissiveness value of a
// timed automaton is trivially infinite, by testing for an
// infinite-capacity path from a start location to a goal location in the
// automaton's location graph.
//
// The test is a Dinic-style blocking-flow max-flow computation adapted
// from the teacher's flow.Dinic: here capacities are derived from guard
// widths instead of edge weights, and the algorithm short-circuits the
// instant it proves the max flow is unbounded, rather than computing an
// exact value.
//
// Errors:
//
//	ErrUnknownLocation - from or to is not a registered location.
package reachcheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
)

var ErrUnknownLocation = errors.New("reachcheck: unknown location")

// edgeCapacity is the maximum permissiveness width any single transition
// between a pair of locations can contribute: the minimum, over the
// transition's guard constraints, of the constraint bound's size. A
// transition has infinite capacity only when every constraint of its guard
// is unbounded.
func edgeCapacity(t automaton.Transition) delay.Delay {
	cap := delay.Inf
	for _, c := range t.Label.Guard.Constraints {
		size := c.Bound.Size()
		if size.Less(cap) {
			cap = size
		}
	}
	return cap
}

// capGraph[from][to] is the maximal capacity over all transitions from ->
// to (since a player choosing among several enabled actions at a location
// can always pick the most permissive one).
type capGraph map[string]map[string]delay.Delay

func buildCapGraph(ta *automaton.TA) capGraph {
	g := make(capGraph)
	for _, from := range ta.Locations() {
		for _, t := range ta.AvailableTransitions(from) {
			if g[from] == nil {
				g[from] = make(map[string]delay.Delay)
			}
			c := edgeCapacity(t)
			if existing, ok := g[from][t.To]; !ok || existing.Less(c) {
				g[from][t.To] = c
			}
		}
	}
	return g
}

// ExistenceOfInfinitePath reports whether there is a path from `from` to
// `to` in ta all of whose edges have infinite capacity, which implies the
// permissiveness value computed by the backtracking engine would be
// unbounded. It runs a BFS level search (to rule out an unreachable `to`)
// and then a DFS over infinite-capacity edges, in the style of Dinic's
// algorithm, but only needs to detect unboundedness, so it returns true the
// moment a full-infinite-capacity path is found rather than computing the
// exact max flow.
//
// Complexity: O(V + E): one BFS pass and one DFS pass.
func ExistenceOfInfinitePath(ctx context.Context, ta *automaton.TA, from, to string) (bool, error) {
	if !ta.HasLocation(from) {
		return false, fmt.Errorf("reachcheck.ExistenceOfInfinitePath: %w: %s", ErrUnknownLocation, from)
	}
	if !ta.HasLocation(to) {
		return false, fmt.Errorf("reachcheck.ExistenceOfInfinitePath: %w: %s", ErrUnknownLocation, to)
	}
	if from == to {
		return true, nil // a zero-length path is trivially unbounded-capacity
	}

	g := buildCapGraph(ta)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		level, order := bfsLevels(g, from)
		if _, reached := level[to]; !reached {
			return false, nil
		}

		found, err := dfsAllInfinitePath(ctx, g, order, level, from, to, map[string]bool{})
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
		// `to` is reachable, but no path to it is entirely
		// infinite-capacity, so the finite edges bound the flow.
		return false, nil
	}
}

func bfsLevels(g capGraph, source string) (map[string]int, []string) {
	level := map[string]int{source: 0}
	order := []string{source}
	for i := 0; i < len(order); i++ {
		u := order[i]
		for v := range g[u] {
			if _, seen := level[v]; !seen {
				level[v] = level[u] + 1
				order = append(order, v)
			}
		}
	}
	return level, order
}

// dfsAllInfinitePath walks the capacity graph from u looking for any path to
// target using only infinite-capacity edges; each location is visited at
// most once.
func dfsAllInfinitePath(ctx context.Context, g capGraph, order []string, level map[string]int, u, target string, visiting map[string]bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if u == target {
		return true, nil
	}
	visiting[u] = true
	for v, cap := range g[u] {
		if !cap.IsInf() {
			continue
		}
		if visiting[v] {
			continue
		}
		found, err := dfsAllInfinitePath(ctx, g, order, level, v, target, visiting)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}
