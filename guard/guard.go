// Package guard implements per-clock linear constraints, their conjunction
// into a Guard, and the (Guard, resets) pairing into a Label, as described
// in spec.md §4.2.
//
// Errors:
//
//	ErrNoConstraints  - a Guard was built with zero constraints.
//	ErrClockOutOfRange - a constraint or reset references a clock >= num_clocks.
//	ErrNegativeBound   - a constraint bound is negative.
package guard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/interval"
)

// ErrNoConstraints indicates an attempt to build a Guard with no constraints.
var ErrNoConstraints = errors.New("guard: no constraints")

// ErrClockOutOfRange indicates a clock index >= num_clocks.
var ErrClockOutOfRange = errors.New("guard: clock index out of range")

// ErrNegativeBound indicates a constraint bound is negative.
var ErrNegativeBound = errors.New("guard: negative bound")

// LinearConstraint restricts one clock to lie within a closed interval after
// a delay is applied.
type LinearConstraint struct {
	ClockIndex int
	Bound      interval.Interval // always closed, per spec.md §3 "Linear Constraint"
}

// NewLinearConstraint builds a per-clock constraint over the closed interval
// [lower, upper]. clockIndex must be >= 0.
func NewLinearConstraint(clockIndex int, lower, upper delay.Delay) (LinearConstraint, error) {
	if clockIndex < 0 {
		return LinearConstraint{}, fmt.Errorf("guard.NewLinearConstraint: %w: clock index %d", ErrClockOutOfRange, clockIndex)
	}
	bound, err := interval.New(lower, upper, interval.Both)
	if err != nil {
		return LinearConstraint{}, fmt.Errorf("guard.NewLinearConstraint: %w", err)
	}
	return LinearConstraint{ClockIndex: clockIndex, Bound: bound}, nil
}

// ConstraintCheck reports whether valuation[ClockIndex] + delay satisfies the bound.
func (c LinearConstraint) ConstraintCheck(valuation []delay.Delay, d delay.Delay) bool {
	return c.Bound.Contains(valuation[c.ClockIndex].Add(d))
}

// ConstraintCheckInterval reports whether every delay in iv, applied to
// valuation, satisfies the bound (i.e. the shifted interval is included in
// Bound). Supplements the distilled spec per the original's
// constraint_check_interval.
func (c LinearConstraint) ConstraintCheckInterval(valuation []delay.Delay, iv interval.Interval) bool {
	shifted, err := interval.New(
		iv.Left.Add(valuation[c.ClockIndex]),
		addOrInf(iv.Right, valuation[c.ClockIndex]),
		iv.Mode,
	)
	if err != nil {
		return false
	}
	return c.Bound.Include(shifted)
}

func addOrInf(a, b delay.Delay) delay.Delay {
	return a.Add(b)
}

// EnabledDelaySet returns the interval of delays d for which
// valuation[ClockIndex] + d satisfies the bound: [max(0, low-v), high-v].
// Returns the canonical empty interval when high < v (mirrors the source
// raising EmptyInterval, caught here rather than surfaced).
func (c LinearConstraint) EnabledDelaySet(valuation []delay.Delay) interval.Interval {
	v := valuation[c.ClockIndex]
	lower, err := c.Bound.Left.Sub(v)
	if err != nil {
		lower = delay.Zero // Bound.Left < v: clamp, matching max(0, ...)
	}
	lower = lower.Max(delay.Zero)

	upper, err := c.Bound.Right.Sub(v)
	if err != nil {
		// Bound.Right < v (or the finite-minus-inf case, which cannot occur
		// since v is always finite): treat as empty, matching the source's
		// EmptyInterval branch.
		return canonicalEmpty()
	}
	if upper.Less(lower) {
		return canonicalEmpty()
	}
	iv, err := interval.New(lower, upper, interval.Both)
	if err != nil {
		return canonicalEmpty()
	}
	return iv
}

func canonicalEmpty() interval.Interval {
	return interval.MustNew(delay.Zero, delay.Zero, interval.Neither)
}

// Guard is a non-empty conjunction of LinearConstraints.
type Guard struct {
	Constraints []LinearConstraint
}

// NewGuard builds a Guard from a non-empty constraint list.
func NewGuard(constraints []LinearConstraint) (Guard, error) {
	if len(constraints) == 0 {
		return Guard{}, fmt.Errorf("guard.NewGuard: %w", ErrNoConstraints)
	}
	return Guard{Constraints: append([]LinearConstraint(nil), constraints...)}, nil
}

// WellFormed reports whether every constraint references a clock index in
// [0, numClocks) with a non-negative bound.
func (g Guard) WellFormed(numClocks int) error {
	for _, c := range g.Constraints {
		if c.ClockIndex < 0 || c.ClockIndex >= numClocks {
			return fmt.Errorf("guard.WellFormed: %w: clock %d, num_clocks %d", ErrClockOutOfRange, c.ClockIndex, numClocks)
		}
		if c.Bound.Left.Less(delay.Zero) || c.Bound.Right.Less(delay.Zero) {
			return fmt.Errorf("guard.WellFormed: %w", ErrNegativeBound)
		}
	}
	return nil
}

// ConstraintCheck reports whether valuation+delay satisfies every constraint.
func (g Guard) ConstraintCheck(valuation []delay.Delay, d delay.Delay) bool {
	for _, c := range g.Constraints {
		if !c.ConstraintCheck(valuation, d) {
			return false
		}
	}
	return true
}

// GuardCheckInterval reports whether every delay in iv, applied to
// valuation, satisfies every constraint (supplemented per original_source).
func (g Guard) GuardCheckInterval(valuation []delay.Delay, iv interval.Interval) bool {
	for _, c := range g.Constraints {
		if !c.ConstraintCheckInterval(valuation, iv) {
			return false
		}
	}
	return true
}

// EnabledDelaySet returns the intersection of each constraint's enabled-delay
// interval: [max(lows), min(highs)], closed, or the canonical empty interval
// if the intersection is empty. The choice to always return a closed
// interval is intentional (spec.md §4.2) — opponent strategies requiring
// closed bounds depend on it.
func (g Guard) EnabledDelaySet(valuation []delay.Delay) interval.Interval {
	lo := delay.Zero
	hi := delay.Inf
	first := true
	for _, c := range g.Constraints {
		iv := c.EnabledDelaySet(valuation)
		if iv.IsEmpty() {
			return canonicalEmpty()
		}
		if first {
			lo, hi = iv.Left, iv.Right
			first = false
			continue
		}
		lo = lo.Max(iv.Left)
		hi = hi.Min(iv.Right)
	}
	if hi.Less(lo) {
		return canonicalEmpty()
	}
	return interval.MustNew(lo, hi, interval.Both)
}

// Disjoint reports whether, for every clock index shared between g and
// other, the two constraints' bounds do not overlap.
func (g Guard) Disjoint(other Guard) bool {
	for _, c := range g.Constraints {
		for _, oc := range other.Constraints {
			if oc.ClockIndex == c.ClockIndex && oc.Bound.Overlaps(c.Bound) {
				return false
			}
		}
	}
	return true
}

// Label pairs a Guard with a sorted, deduplicated set of clock indices to
// reset after the transition fires.
type Label struct {
	Guard  Guard
	Resets []int
}

// NewLabel builds a Label, sorting and deduplicating resets.
func NewLabel(g Guard, resets []int) Label {
	r := append([]int(nil), resets...)
	sort.Ints(r)
	r = dedupSorted(r)
	return Label{Guard: g, Resets: r}
}

func dedupSorted(xs []int) []int {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// WellFormed reports whether the Guard is well-formed and every reset index
// lies in [0, numClocks).
func (l Label) WellFormed(numClocks int) error {
	for _, r := range l.Resets {
		if r < 0 || r >= numClocks {
			return fmt.Errorf("guard.Label.WellFormed: %w: reset %d, num_clocks %d", ErrClockOutOfRange, r, numClocks)
		}
	}
	return l.Guard.WellFormed(numClocks)
}

// ValuationAfterPassingGuard returns the post-guard, pre-reset-then-reset
// valuation after delay d passes the label's guard, or (nil, false) if it
// does not. Resets are applied to the result per spec.md §4.4 NextStep.
func (l Label) ValuationAfterPassingGuard(valuation []delay.Delay, d delay.Delay) ([]delay.Delay, bool) {
	if !l.Guard.ConstraintCheck(valuation, d) {
		return nil, false
	}
	out := make([]delay.Delay, len(valuation))
	resetSet := make(map[int]struct{}, len(l.Resets))
	for _, r := range l.Resets {
		resetSet[r] = struct{}{}
	}
	for i, v := range valuation {
		if _, reset := resetSet[i]; reset {
			out[i] = delay.Zero
		} else {
			out[i] = v.Add(d)
		}
	}
	return out, true
}
