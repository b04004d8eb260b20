// Package opponent implements the six opponent delay-selection
// strategies from spec.md §4.5: pure functions from a proposed Move to the
// list of point-Moves (single delay, single target) the strategy picks
// from it. Grounded on the source's opponentstrategy.py, reworked as
// closures in the teacher's functional-option constructor style (each
// "WithX" in builder/config.go returns a closure configuring state; here
// each constructor returns a closure implementing Strategy).
//
// Errors:
//
//	ErrOpenInterval  - a strategy requiring a closed bound was given an open one.
//	ErrDelayNotFound - a sampled delay did not land in any of the Move's Steps.
package opponent

import (
	"errors"
	"fmt"

	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/interval"
	"github.com/ta-lab/permissiveness/move"
)

var ErrOpenInterval = errors.New("opponent: strategy requires a closed bound")
var ErrDelayNotFound = errors.New("opponent: delay not found in move's steps")

// Strategy selects the delay(s) the opponent proposes in response to a
// player's Move, returning each as a single-Step, single-delay Move.
type Strategy func(m move.Move) ([]move.Move, error)

func pointMove(action string, d delay.Delay, target string) move.Move {
	point := interval.MustNew(d, d, interval.Both)
	mv, _ := move.New(action, []move.Step{{Interval: point, Target: target}})
	return mv
}

func targetForDelay(m move.Move, d delay.Delay) (string, bool) {
	for _, s := range m.Steps {
		if s.Interval.Contains(d) {
			return s.Target, true
		}
	}
	return "", false
}

func delayMoveFromDelay(m move.Move, d delay.Delay) (move.Move, error) {
	target, ok := targetForDelay(m, d)
	if !ok {
		return move.Move{}, fmt.Errorf("opponent.delayMoveFromDelay(%s): %w", d, ErrDelayNotFound)
	}
	return pointMove(m.Action, d, target), nil
}

// WorstCaseBranchFree returns the two endpoints of m's global interval, one
// Move per endpoint, mirroring the two extremes a worst-case opponent would
// pick between. Requires the interval be closed on both sides.
func WorstCaseBranchFree() Strategy {
	return func(m move.Move) ([]move.Move, error) {
		g, err := m.GlobalInterval()
		if err != nil {
			return nil, err
		}
		if g.IsEmpty() {
			return nil, nil
		}
		if !g.ClosedLeft() || !g.ClosedRight() {
			return nil, fmt.Errorf("opponent.WorstCaseBranchFree(%s): %w", g, ErrOpenInterval)
		}
		return []move.Move{
			pointMove(m.Action, g.Left, m.Steps[0].Target),
			pointMove(m.Action, g.Right, m.Steps[len(m.Steps)-1].Target),
		}, nil
	}
}

// WorstCaseBranchFreeApproximate behaves like WorstCaseBranchFree but
// proposes Left+epsilon and Right-epsilon, shrinking both sides whether or
// not they are open, so it never fails with ErrOpenInterval.
func WorstCaseBranchFreeApproximate(epsilon delay.Delay) Strategy {
	return func(m move.Move) ([]move.Move, error) {
		g, err := m.GlobalInterval()
		if err != nil {
			return nil, err
		}
		if g.IsEmpty() {
			return nil, nil
		}
		left := g.Left.Add(epsilon)
		right, err := g.Right.Sub(epsilon)
		if err != nil {
			return nil, fmt.Errorf("opponent.WorstCaseBranchFreeApproximate: %w", err)
		}
		leftMove, err := delayMoveFromDelay(m, left)
		if err != nil {
			return nil, err
		}
		rightMove, err := delayMoveFromDelay(m, right)
		if err != nil {
			return nil, err
		}
		return []move.Move{leftMove, rightMove}, nil
	}
}

// BruteForce samples every multiple of step within m's global interval
// (which must be closed on both sides) and returns one point-Move per
// sample.
func BruteForce(step delay.Delay) Strategy {
	return func(m move.Move) ([]move.Move, error) {
		g, err := m.GlobalInterval()
		if err != nil {
			return nil, err
		}
		if g.IsEmpty() {
			return nil, nil
		}
		if !g.ClosedLeft() || !g.ClosedRight() {
			return nil, fmt.Errorf("opponent.BruteForce(%s): %w", g, ErrOpenInterval)
		}
		var out []move.Move
		for d := g.Left; d.LessEqual(g.Right); d = d.Add(step) {
			mv, err := delayMoveFromDelay(m, d)
			if err != nil {
				return nil, err
			}
			out = append(out, mv)
			if step.IsZero() {
				break
			}
		}
		return out, nil
	}
}

// BruteForceApproximate shrinks m's global interval by epsilon on each side
// (tolerating open bounds) before sampling every step-multiple within it.
func BruteForceApproximate(step, epsilon delay.Delay) Strategy {
	return func(m move.Move) ([]move.Move, error) {
		g, err := m.GlobalInterval()
		if err != nil {
			return nil, err
		}
		if g.IsEmpty() {
			return nil, nil
		}
		left := g.Left.Add(epsilon)
		right, err := g.Right.Sub(epsilon)
		if err != nil {
			return nil, fmt.Errorf("opponent.BruteForceApproximate: %w", err)
		}
		var out []move.Move
		for d := left; d.LessEqual(right); d = d.Add(step) {
			mv, err := delayMoveFromDelay(m, d)
			if err != nil {
				return nil, err
			}
			out = append(out, mv)
			if step.IsZero() {
				break
			}
		}
		return out, nil
	}
}

// LowCase always proposes the left endpoint of m's global interval, which
// must be closed on the left.
func LowCase() Strategy {
	return func(m move.Move) ([]move.Move, error) {
		g, err := m.GlobalInterval()
		if err != nil {
			return nil, err
		}
		if g.IsEmpty() {
			return nil, nil
		}
		if !g.ClosedLeft() {
			return nil, fmt.Errorf("opponent.LowCase(%s): %w", g, ErrOpenInterval)
		}
		return []move.Move{pointMove(m.Action, g.Left, m.Steps[0].Target)}, nil
	}
}

// UpCase always proposes the right endpoint of m's global interval, which
// must be closed on the right.
func UpCase() Strategy {
	return func(m move.Move) ([]move.Move, error) {
		g, err := m.GlobalInterval()
		if err != nil {
			return nil, err
		}
		if g.IsEmpty() {
			return nil, nil
		}
		if !g.ClosedRight() {
			return nil, fmt.Errorf("opponent.UpCase(%s): %w", g, ErrOpenInterval)
		}
		return []move.Move{pointMove(m.Action, g.Right, m.Steps[len(m.Steps)-1].Target)}, nil
	}
}
