// Package engine implements the backtracking search over Moves that
// approximates a timed automaton's permissiveness value: the min-max
// recursion of spec.md §4.6, grounded on the source's explorer.py
// Backtracking class and reworked around this module's automaton/move/
// opponent packages, with the source's exception-based control flow
// (CycleException, BoundException) replaced by ordinary sentinel errors
// returned up the call stack, in the idiomatic-Go style the teacher's
// dfs package uses for its own traversal bounds.
//
// Errors:
//
//	ErrCycleBound              - a location recurred cycle_bound times along one branch.
//	ErrTraceBound              - a trace grew to trace_bound nodes.
//	ErrInfinitePermissiveness  - an infinite-capacity path to the goal exists;
//	                            backtracking would never terminate usefully.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/move"
	"github.com/ta-lab/permissiveness/opponent"
	"github.com/ta-lab/permissiveness/reachcheck"
	"github.com/ta-lab/permissiveness/talog"
)

var ErrCycleBound = errors.New("engine: cycle bound exceeded")
var ErrTraceBound = errors.New("engine: trace bound exceeded")
var ErrInfinitePermissiveness = errors.New("engine: infinite permissiveness")

// TraceNode records one step of a trace: the configuration the step left
// from, the Move the player proposed, and the delay the opponent chose.
type TraceNode struct {
	Config automaton.Configuration
	Move   move.Move
	Delay  delay.Delay
}

type traceLink struct {
	node TraceNode
	tail *traceLink
}

// Trace is a persistent, cons-style sequence of TraceNodes. Appending to a
// Trace never mutates it, so sibling branches explored during backtracking
// share structure instead of copying; Append is O(1).
//
// The zero value, NoTrace, represents "no trace was found" (distinct from
// EmptyTrace, a found-but-empty trace, e.g. when start already satisfies
// the goal condition).
type Trace struct {
	tail   *traceLink
	length int
	ok     bool
}

// NoTrace is the sentinel Trace meaning no path to the goal was found.
var NoTrace = Trace{}

// EmptyTrace is a found trace with zero steps.
func EmptyTrace() Trace { return Trace{ok: true} }

// Ok reports whether t represents an actual found trace (possibly empty),
// as opposed to NoTrace.
func (t Trace) Ok() bool { return t.ok }

// Len returns the number of nodes in t.
func (t Trace) Len() int { return t.length }

// Append returns a new Trace with node appended, sharing structure with t.
func (t Trace) Append(node TraceNode) Trace {
	return Trace{tail: &traceLink{node: node, tail: t.tail}, length: t.length + 1, ok: true}
}

// Nodes returns t's nodes in the order they were appended.
func (t Trace) Nodes() []TraceNode {
	out := make([]TraceNode, t.length)
	cur := t.tail
	for i := t.length - 1; i >= 0; i-- {
		out[i] = cur.node
		cur = cur.tail
	}
	return out
}

// Permissiveness is the result of compute_trace_permissiveness: the
// minimum Move width along a Trace, or negative infinity for NoTrace. It is
// kept distinct from delay.Delay because delay.Delay cannot represent a
// negative value, while permissiveness comparison requires one ("no trace
// found" must compare worse than every found trace).
type Permissiveness struct {
	negInf bool
	value  delay.Delay
}

// NegInfPermissiveness is the permissiveness of NoTrace: worse than any
// found trace.
var NegInfPermissiveness = Permissiveness{negInf: true}

func finitePermissiveness(d delay.Delay) Permissiveness { return Permissiveness{value: d} }

// Less reports whether p is strictly worse (smaller) than other.
func (p Permissiveness) Less(other Permissiveness) bool {
	switch {
	case p.negInf && other.negInf:
		return false
	case p.negInf:
		return true
	case other.negInf:
		return false
	default:
		return p.value.Less(other.value)
	}
}

// Delay returns the underlying delay and true, or (zero, false) if p is
// negative infinity.
func (p Permissiveness) Delay() (delay.Delay, bool) {
	if p.negInf {
		return delay.Zero, false
	}
	return p.value, true
}

func (p Permissiveness) String() string {
	if p.negInf {
		return "-Inf"
	}
	return p.value.String()
}

// Permissiveness computes t's permissiveness: the minimum global-interval
// width across every Move in t, or NegInfPermissiveness if t is NoTrace. An
// empty-but-found trace's permissiveness is +Inf (the reduction's identity
// element), matching the "anything goes, nothing constrains it yet" reading.
func (t Trace) Permissiveness() Permissiveness {
	if !t.ok {
		return NegInfPermissiveness
	}
	acc := delay.Inf
	for _, n := range t.Nodes() {
		g, err := n.Move.GlobalInterval()
		if err != nil {
			continue
		}
		acc = acc.Min(g.Size())
	}
	return finitePermissiveness(acc)
}

// PlayerSample proposes the player's sampled sub-Moves for a given maximal
// Move, mirroring the source's strategy_player hook (move.Sample's shape).
type PlayerSample func(m move.Move, step, bound delay.Delay) ([]move.Move, error)

// Backtracker runs the min-max backtracking search. Build one with
// NewBacktracker and functional options, then call Run.
type Backtracker struct {
	traceBound           int
	cycleBound           int
	filterOpt            bool
	intervalSamplingStep delay.Delay
	playerSample         PlayerSample
	opponentStrategy     opponent.Strategy
	sink                 talog.Sink
}

// Option configures a Backtracker at construction time.
type Option func(*Backtracker)

// WithTraceBound overrides the default maximum trace length (50).
func WithTraceBound(n int) Option { return func(b *Backtracker) { b.traceBound = n } }

// WithCycleBound overrides the default maximum per-location recurrence
// count along one branch (50).
func WithCycleBound(n int) Option { return func(b *Backtracker) { b.cycleBound = n } }

// WithFilterOpt toggles the pruning optimization that skips a Move whose
// global interval cannot possibly beat the current best trace.
func WithFilterOpt(enabled bool) Option { return func(b *Backtracker) { b.filterOpt = enabled } }

// WithIntervalSamplingStep sets the granularity the player's strategy
// samples Moves at. Default is delay 1.
func WithIntervalSamplingStep(step delay.Delay) Option {
	return func(b *Backtracker) { b.intervalSamplingStep = step }
}

// WithPlayerSample overrides the player's sampling strategy. Default is
// move.Sample.
func WithPlayerSample(s PlayerSample) Option { return func(b *Backtracker) { b.playerSample = s } }

// WithOpponentStrategy sets the opponent's delay-selection strategy.
// Default is opponent.WorstCaseBranchFree.
func WithOpponentStrategy(s opponent.Strategy) Option {
	return func(b *Backtracker) { b.opponentStrategy = s }
}

// WithLogger sets the event sink the search reports its progress through.
// Default is talog.NopSink.
func WithLogger(sink talog.Sink) Option { return func(b *Backtracker) { b.sink = sink } }

// NewBacktracker builds a Backtracker with spec.md's documented defaults,
// then applies opts in order.
func NewBacktracker(opts ...Option) *Backtracker {
	one, _ := delay.FromInt(1)
	b := &Backtracker{
		traceBound:           50,
		cycleBound:           50,
		filterOpt:            true,
		intervalSamplingStep: one,
		playerSample:         move.Sample,
		opponentStrategy:     opponent.WorstCaseBranchFree(),
		sink:                 talog.NopSink,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run searches from start for the best min-max trace to goal in ta,
// returning the best Trace found and its Permissiveness, or an error.
//
// Run first checks whether an infinite-capacity path from start to goal
// exists (reachcheck.ExistenceOfInfinitePath); if so it returns
// ErrInfinitePermissiveness immediately, since backtracking over an
// unbounded automaton cannot produce a useful finite answer. Otherwise it
// recurses the min-max search, returning ErrTraceBound if some branch's
// trace grew past the configured bound (the best trace found before that
// point is still returned, recoverable via errors.Is).
func (b *Backtracker) Run(ctx context.Context, ta *automaton.TA, start automaton.Configuration, goal string) (Trace, Permissiveness, error) {
	if start.Location == goal {
		empty := EmptyTrace()
		return empty, empty.Permissiveness(), nil
	}

	infinite, err := reachcheck.ExistenceOfInfinitePath(ctx, ta, start.Location, goal)
	if err != nil {
		return NoTrace, NegInfPermissiveness, fmt.Errorf("engine.Run: %w", err)
	}
	if infinite {
		return NoTrace, NegInfPermissiveness, ErrInfinitePermissiveness
	}

	bound := ta.MaximalLowerBound().Add(ta.MaximalUpperBound())
	best, err := b.backtrack(ctx, ta, goal, bound, start, EmptyTrace())
	return best, best.Permissiveness(), err
}

func (b *Backtracker) checkFail(trace Trace) error {
	if trace.length >= b.traceBound {
		return ErrTraceBound
	}
	visited := make(map[string]int, trace.length)
	for _, n := range trace.Nodes() {
		visited[n.Config.Location]++
		if visited[n.Config.Location] >= b.cycleBound {
			return ErrCycleBound
		}
	}
	return nil
}

func (b *Backtracker) filterPoss(possibility move.Move, best Trace) bool {
	if !b.filterOpt {
		return true
	}
	g, err := possibility.GlobalInterval()
	if err != nil {
		return true
	}
	bestPerm, ok := best.Permissiveness().Delay()
	if !ok {
		return true // best is NoTrace; nothing to beat yet
	}
	return bestPerm.Less(g.Size())
}

// backtrack is the min-max recursion: at current, it enumerates every
// maximal Move, samples each into sub-Moves, and for each sub-Move takes
// the opponent's worst delay choice (the inner min), then takes the best
// such result across all sub-Moves (the outer max).
func (b *Backtracker) backtrack(ctx context.Context, ta *automaton.TA, goal string, bound delay.Delay, current automaton.Configuration, trace Trace) (Trace, error) {
	if err := ctx.Err(); err != nil {
		return NoTrace, err
	}
	if err := b.checkFail(trace); err != nil {
		if errors.Is(err, ErrCycleBound) {
			b.sink(talog.Event{Kind: talog.CycleBoundHit, TraceLength: trace.Len()})
		} else {
			b.sink(talog.Event{Kind: talog.TraceBoundHit, TraceLength: trace.Len()})
		}
		return NoTrace, err
	}

	if current.Location == goal {
		b.sink(talog.Event{Kind: talog.GoalReached, TraceLength: trace.Len()})
		return trace, nil
	}

	perm := trace.Permissiveness()
	permDelay, hasPerm := perm.Delay()
	var permPtr *delay.Delay
	if hasPerm {
		permPtr = &permDelay
	}
	b.sink(talog.Event{Kind: talog.StartConfig, TraceLength: trace.Len(), Config: &current, Permissiveness: permPtr})

	possibleMoves, err := move.Moves(ta, current)
	if err != nil {
		return NoTrace, fmt.Errorf("engine.backtrack: %w", err)
	}

	best := NoTrace
	sampleCount := 0
	for _, maximalMove := range possibleMoves {
		sampled, err := b.playerSample(maximalMove, b.intervalSamplingStep, bound)
		if err != nil {
			return NoTrace, fmt.Errorf("engine.backtrack: %w", err)
		}
		for _, poss := range sampled {
			sampleCount++
			g, err := poss.GlobalInterval()
			if err != nil {
				return NoTrace, err
			}
			b.sink(talog.Event{Kind: talog.StartInterval, TraceLength: trace.Len(), Action: poss.Action, Interval: &g})

			if !b.filterPoss(poss, best) {
				b.sink(talog.Event{Kind: talog.FilteredOutInterval, TraceLength: trace.Len()})
				continue
			}

			minimal, err := b.backtrackDelay(ctx, ta, goal, bound, current, trace, poss)
			if err != nil {
				if errors.Is(err, ErrTraceBound) {
					return best, err
				}
				return NoTrace, err
			}

			minimalPerm := minimal.Permissiveness()
			if mp, ok := minimalPerm.Delay(); ok {
				b.sink(talog.Event{Kind: talog.EndAllDelays, TraceLength: trace.Len(), Permissiveness: &mp})
				b.sink(talog.Event{Kind: talog.EndInterval, TraceLength: trace.Len(), Permissiveness: &mp})
			} else {
				b.sink(talog.Event{Kind: talog.EndAllDelays, TraceLength: trace.Len()})
				b.sink(talog.Event{Kind: talog.EndInterval, TraceLength: trace.Len()})
			}

			if !best.ok || best.Permissiveness().Less(minimalPerm) {
				best = minimal
			}
		}
	}

	if bp, ok := best.Permissiveness().Delay(); ok {
		b.sink(talog.Event{Kind: talog.EndAllIntervals, TraceLength: trace.Len(), Permissiveness: &bp, SampleCount: sampleCount})
	} else {
		b.sink(talog.Event{Kind: talog.EndAllIntervals, TraceLength: trace.Len(), SampleCount: sampleCount})
	}

	return best, nil
}

// backtrackDelay is the inner min: for one sub-Move, it asks the opponent
// strategy for its candidate delays, applies each, and recurses (or
// terminates if the goal is reached), keeping the worst (minimal-
// permissiveness) resulting Trace. A branch that hits the cycle bound is
// skipped rather than aborting the whole search, matching the source's
// CycleException being caught one level above _backtrack_delay.
func (b *Backtracker) backtrackDelay(ctx context.Context, ta *automaton.TA, goal string, bound delay.Delay, current automaton.Configuration, trace Trace, poss move.Move) (Trace, error) {
	delayMoves, err := b.opponentStrategy(poss)
	if err != nil {
		return NoTrace, fmt.Errorf("engine.backtrackDelay: %w", err)
	}

	minimal := NoTrace
	for _, delayMove := range delayMoves {
		d := delayMove.Steps[0].Interval.Left
		b.sink(talog.Event{Kind: talog.StartDelay, TraceLength: trace.Len(), Delay: &d})

		next, ok, err := move.NextStep(ta, current, delayMove, d)
		if err != nil {
			return NoTrace, fmt.Errorf("engine.backtrackDelay: %w", err)
		}
		if !ok {
			continue
		}
		nextTrace := trace.Append(TraceNode{Config: current, Move: poss, Delay: d})

		var future Trace
		if next.Location == goal {
			future = nextTrace
		} else {
			future, err = b.backtrack(ctx, ta, goal, bound, next, nextTrace)
			if err != nil {
				if errors.Is(err, ErrCycleBound) {
					continue
				}
				return NoTrace, err
			}
		}

		futurePerm := future.Permissiveness()
		if fp, ok := futurePerm.Delay(); ok {
			b.sink(talog.Event{Kind: talog.EndDelay, TraceLength: trace.Len(), Permissiveness: &fp})
		} else {
			b.sink(talog.Event{Kind: talog.EndDelay, TraceLength: trace.Len()})
		}

		if !minimal.ok || futurePerm.Less(minimal.Permissiveness()) {
			minimal = future
		}

		if b.filterOpt && !minimal.ok {
			break // a NoTrace branch is already as bad as possible; no need to keep sampling
		}
	}

	return minimal, nil
}
