// Package move implements Step, Move, and the move-generation, restriction,
// sampling, and transition-application operations the backtracking engine
// drives: the Go counterpart of the source's moves.py, reworked around
// automaton.TA instead of a bespoke graph wrapper.
//
// Errors:
//
//	ErrEmptySteps       - a Move was built with zero Steps.
//	ErrIntervalNotFound - Restrict was asked for an interval not covered by
//	                      (or not contiguous across) the Move's Steps.
//	ErrNonDeterministic - Moves was called on a non-deterministic automaton.
package move

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/interval"
)

var ErrEmptySteps = errors.New("move: empty step list")
var ErrIntervalNotFound = errors.New("move: interval not covered by move")
var ErrNonDeterministic = errors.New("move: automaton is not deterministic")

// Step is one leg of a Move: an interval of delays that all lead to Target
// via the Move's action.
type Step struct {
	Interval interval.Interval
	Target   string
}

// Move is a contiguous, ordered sequence of Steps sharing one action: the
// player's proposal of "delay somewhere in this combined interval, via this
// action". Steps must be non-empty, and consecutive Steps must be
// contiguous (the previous Step's right endpoint equals the next Step's
// left endpoint, closed on at least one side).
type Move struct {
	Action string
	Steps  []Step
}

// New builds a Move, rejecting an empty Steps slice.
func New(action string, steps []Step) (Move, error) {
	if len(steps) == 0 {
		return Move{}, fmt.Errorf("move.New: %w", ErrEmptySteps)
	}
	return Move{Action: action, Steps: append([]Step(nil), steps...)}, nil
}

// GlobalInterval returns the merge of the first and last Step's intervals:
// the overall delay interval the Move proposes.
func (m Move) GlobalInterval() (interval.Interval, error) {
	if len(m.Steps) == 0 {
		return interval.Interval{}, fmt.Errorf("move.GlobalInterval: %w", ErrEmptySteps)
	}
	first := m.Steps[0].Interval
	last := m.Steps[len(m.Steps)-1].Interval
	mode := interval.ModeOf(first.ClosedLeft(), last.ClosedRight())
	return interval.New(first.Left, last.Right, mode)
}

// adjacent reports whether prev and cur are contiguous in the sense
// check_continuous_move requires: cur starts exactly where prev ends, and
// at least one of the two is closed at that shared point.
func adjacent(prev, cur interval.Interval) bool {
	return cur.Left.Equal(prev.Right) && (cur.ClosedLeft() || prev.ClosedRight())
}

// Restrict rebuilds m over the sub-interval target, which must be included
// in m.GlobalInterval(). The result walks m's Steps, trimming or dropping
// them to land exactly on target, preserving each retained Step's Target.
func Restrict(m Move, target interval.Interval) (Move, error) {
	global, err := m.GlobalInterval()
	if err != nil {
		return Move{}, err
	}
	if !global.Include(target) {
		return Move{}, fmt.Errorf("move.Restrict(%s): %w", target, ErrIntervalNotFound)
	}

	var out []Step
	foundStart := false
	for _, step := range m.Steps {
		switch {
		case step.Interval.Include(target):
			out = append(out, Step{Interval: target, Target: step.Target})
			return Move{Action: m.Action, Steps: out}, nil

		case (target.ClosedLeft() && step.Interval.Contains(target.Left)) ||
			(!target.ClosedLeft() && step.Interval.Left.LessEqual(target.Left) && target.Left.Less(step.Interval.Right)):
			mode := interval.ModeOf(target.ClosedLeft(), step.Interval.ClosedRight())
			iv, err := interval.New(target.Left, step.Interval.Right, mode)
			if err != nil {
				return Move{}, fmt.Errorf("move.Restrict: %w", err)
			}
			out = append(out, Step{Interval: iv, Target: step.Target})
			foundStart = true

		case foundStart && target.ClosedRight() && !step.Interval.Contains(target.Right):
			out = append(out, step)

		case foundStart && !target.ClosedRight() && step.Interval.Right.Less(target.Right):
			out = append(out, step)

		case foundStart && target.ClosedRight() && step.Interval.Contains(target.Right):
			mode := interval.ModeOf(step.Interval.ClosedLeft(), target.ClosedRight())
			iv, err := interval.New(step.Interval.Left, target.Right, mode)
			if err != nil {
				return Move{}, fmt.Errorf("move.Restrict: %w", err)
			}
			out = append(out, Step{Interval: iv, Target: step.Target})
			return Move{Action: m.Action, Steps: out}, nil

		case foundStart && !target.ClosedRight() && target.Right.LessEqual(step.Interval.Right):
			mode := interval.ModeOf(step.Interval.ClosedLeft(), target.ClosedRight())
			iv, err := interval.New(step.Interval.Left, target.Right, mode)
			if err != nil {
				return Move{}, fmt.Errorf("move.Restrict: %w", err)
			}
			out = append(out, Step{Interval: iv, Target: step.Target})
			return Move{Action: m.Action, Steps: out}, nil

		default:
			return Move{}, fmt.Errorf("move.Restrict(%s): %w", target, ErrIntervalNotFound)
		}
	}
	return Move{}, fmt.Errorf("move.Restrict(%s): %w", target, ErrIntervalNotFound)
}

// Sample enumerates the deterministic finite family of sub-Moves of m
// produced by sampling m's global interval at granularity step (see
// interval.SemiSortedSampling), restricting m onto each sampled interval in
// turn. The first returned Move always covers the full global interval.
func Sample(m Move, step, bound delay.Delay) ([]Move, error) {
	global, err := m.GlobalInterval()
	if err != nil {
		return nil, err
	}
	samples, err := global.SemiSortedSampling(step, bound)
	if err != nil {
		return nil, fmt.Errorf("move.Sample: %w", err)
	}
	out := make([]Move, 0, len(samples))
	for _, iv := range samples {
		restricted, err := Restrict(m, iv)
		if err != nil {
			return nil, fmt.Errorf("move.Sample: %w", err)
		}
		out = append(out, restricted)
	}
	return out, nil
}

// Moves computes the list of Moves available from config in ta: one Move
// per action enabled at config.Location, each proposing the widest
// interval of delays that keep the corresponding guard(s) satisfied.
//
// ta must be branch-free, single-action, or deterministic; a
// non-deterministic automaton has no well-defined Moves (a delay could lead
// to more than one successor) and returns ErrNonDeterministic.
func Moves(ta *automaton.TA, config automaton.Configuration) ([]Move, error) {
	transitions := ta.AvailableTransitions(config.Location)

	if ta.IsBranchFree() || ta.IsSingleAction() {
		out := make([]Move, 0, len(transitions))
		for _, t := range transitions {
			iv := t.Label.Guard.EnabledDelaySet(config.Valuation)
			out = append(out, Move{Action: t.Action, Steps: []Step{{Interval: iv, Target: t.To}}})
		}
		return out, nil
	}

	if !ta.IsDeterministic() {
		return nil, fmt.Errorf("move.Moves: %w", ErrNonDeterministic)
	}

	partial := make([]Move, 0, len(transitions))
	for _, t := range transitions {
		iv := t.Label.Guard.EnabledDelaySet(config.Valuation)
		partial = append(partial, Move{Action: t.Action, Steps: []Step{{Interval: iv, Target: t.To}}})
	}
	sort.SliceStable(partial, func(i, j int) bool {
		if partial[i].Action != partial[j].Action {
			return partial[i].Action < partial[j].Action
		}
		return partial[i].Steps[0].Interval.Left.Less(partial[j].Steps[0].Interval.Left)
	})

	return fuseMoves(partial), nil
}

// fuseMoves merges consecutive same-action Moves in partial whenever the
// previous Move's last Step is adjacent to the current Move's first Step,
// so the engine sees one contiguous Move per maximal run of fusible
// transitions rather than one Move per edge.
func fuseMoves(partial []Move) []Move {
	var out []Move
	for _, mv := range partial {
		if len(out) == 0 {
			out = append(out, mv)
			continue
		}
		last := &out[len(out)-1]
		prevLast := last.Steps[len(last.Steps)-1]
		curFirst := mv.Steps[0]
		if last.Action == mv.Action && adjacent(prevLast.Interval, curFirst.Interval) {
			last.Steps = append(last.Steps, mv.Steps...)
		} else {
			out = append(out, mv)
		}
	}
	return out
}

// NextStep applies delay d along mv, a Move already restricted to a single
// Step (i.e. a single target), from config. It returns the configuration
// reached, or ok=false if d does not satisfy the corresponding transition's
// guard.
func NextStep(ta *automaton.TA, config automaton.Configuration, mv Move, d delay.Delay) (automaton.Configuration, bool, error) {
	if len(mv.Steps) != 1 {
		return automaton.Configuration{}, false, fmt.Errorf("move.NextStep: move must have exactly one step, got %d", len(mv.Steps))
	}
	target := mv.Steps[0].Target
	label, ok := ta.TransitionLabel(config.Location, target, mv.Action)
	if !ok {
		return automaton.Configuration{}, false, fmt.Errorf("move.NextStep: no transition %s -[%s]-> %s", config.Location, mv.Action, target)
	}
	valuation, ok := label.ValuationAfterPassingGuard(config.Valuation, d)
	if !ok {
		return automaton.Configuration{}, false, nil
	}
	return automaton.Configuration{Location: target, Valuation: valuation}, true, nil
}
