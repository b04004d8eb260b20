// Package interval implements the Interval type over delay.Delay: a pair of
// bounds with an independent open/closed state per endpoint, plus the
// containment, overlap, merge, inclusion, sub-interval, and deterministic
// sampling operations the backtracking engine builds on.
//
// Errors:
//
//	ErrBadBounds      - lower bound greater than upper bound, or negative.
//	ErrNotMergeable    - Merge called on intervals that are not disjoint-and-mergeable.
//	ErrNotIncluded     - SubInterval called with bounds outside the receiver.
package interval

import (
	"errors"
	"fmt"

	"github.com/ta-lab/permissiveness/delay"
)

// ErrBadBounds indicates a negative lower bound or lower bound greater than upper.
var ErrBadBounds = errors.New("interval: invalid bounds")

// ErrNotMergeable indicates two intervals that are not disjoint-and-mergeable.
var ErrNotMergeable = errors.New("interval: not disjoint and mergeable")

// ErrNotIncluded indicates a requested sub-interval is not contained in the receiver.
var ErrNotIncluded = errors.New("interval: sub-interval not included")

// Mode encodes which endpoints of an Interval are closed.
type Mode int

const (
	// Neither endpoint is closed: (l, r).
	Neither Mode = iota
	// Left endpoint only is closed: [l, r).
	Left
	// Right endpoint only is closed: (l, r].
	Right
	// Both endpoints are closed: [l, r].
	Both
)

// ClosedLeft reports whether m closes the left endpoint.
func (m Mode) ClosedLeft() bool { return m == Left || m == Both }

// ClosedRight reports whether m closes the right endpoint.
func (m Mode) ClosedRight() bool { return m == Right || m == Both }

// ModeOf maps independent left/right closedness flags to the corresponding Mode.
// This is the single source of truth for endpoint-preservation rules used by
// SubInterval, Merge, and the move package's Restrict.
func ModeOf(closedLeft, closedRight bool) Mode {
	switch {
	case closedLeft && closedRight:
		return Both
	case closedLeft && !closedRight:
		return Left
	case !closedLeft && !closedRight:
		return Neither
	default:
		return Right
	}
}

func (m Mode) String() string {
	switch m {
	case Left:
		return "left"
	case Right:
		return "right"
	case Both:
		return "both"
	default:
		return "neither"
	}
}

// Interval is a pair of delay.Delay bounds with an open/closed Mode.
// Left must be finite and non-negative; Left <= Right.
type Interval struct {
	Left, Right Delay
	Mode        Mode
}

// Delay is a local alias so the doc comments below read naturally; it is
// exactly delay.Delay.
type Delay = delay.Delay

// New constructs an Interval, validating Left >= 0, Left finite, and Left <= Right.
// Complexity: O(1).
func New(left, right Delay, mode Mode) (Interval, error) {
	if left.IsInf() {
		return Interval{}, fmt.Errorf("interval.New(%s, %s): %w: left bound must be finite", left, right, ErrBadBounds)
	}
	if left.Less(delay.Zero) {
		return Interval{}, fmt.Errorf("interval.New(%s, %s): %w: left bound negative", left, right, ErrBadBounds)
	}
	if right.Less(left) {
		return Interval{}, fmt.Errorf("interval.New(%s, %s): %w: left > right", left, right, ErrBadBounds)
	}
	return Interval{Left: left, Right: right, Mode: mode}, nil
}

// MustNew is New but panics on error; intended for tests and literal construction.
func MustNew(left, right Delay, mode Mode) Interval {
	iv, err := New(left, right, mode)
	if err != nil {
		panic(err)
	}
	return iv
}

// ClosedLeft reports whether the left endpoint is included.
func (iv Interval) ClosedLeft() bool { return iv.Mode.ClosedLeft() }

// ClosedRight reports whether the right endpoint is included.
func (iv Interval) ClosedRight() bool { return iv.Mode.ClosedRight() }

// IsEmpty reports whether iv contains no delay: Left == Right and Mode != Both.
func (iv Interval) IsEmpty() bool {
	return iv.Left.Equal(iv.Right) && iv.Mode != Both
}

// Size returns Right - Left, or +Inf if Right is infinite.
func (iv Interval) Size() Delay {
	if iv.Right.IsInf() {
		return delay.Inf
	}
	size, err := iv.Right.Sub(iv.Left)
	if err != nil {
		// Left <= Right is a constructor invariant; this cannot occur.
		return delay.Zero
	}
	return size
}

// Contains reports whether d lies within iv, honoring Mode's strictness.
func (iv Interval) Contains(d Delay) bool {
	leftOK := d.Equal(iv.Left) && iv.ClosedLeft() || iv.Left.Less(d)
	rightOK := d.Equal(iv.Right) && iv.ClosedRight() || d.Less(iv.Right)
	return leftOK && rightOK
}

// Equal reports whether iv and other have the same (Left, Right). Per the
// source this deliberately ignores Mode — sampling equivalences in the
// backtracking engine rely on this (see SPEC_FULL.md Open Questions).
func (iv Interval) Equal(other Interval) bool {
	return iv.Left.Equal(other.Left) && iv.Right.Equal(other.Right)
}

// Less reports whether iv is lexicographically less than other on (Left, Right).
func (iv Interval) Less(other Interval) bool {
	if !iv.Left.Equal(other.Left) {
		return iv.Left.Less(other.Left)
	}
	return iv.Right.Less(other.Right)
}

// Overlaps reports whether iv and other share any point.
func (iv Interval) Overlaps(other Interval) bool {
	// self.left vs other.right
	cond1 := iv.Left.Less(other.Right)
	if iv.ClosedLeft() && other.ClosedRight() {
		cond1 = cond1 || iv.Left.Equal(other.Right)
	}
	// other.left vs self.right
	cond2 := other.Left.Less(iv.Right)
	if other.ClosedLeft() && iv.ClosedRight() {
		cond2 = cond2 || other.Left.Equal(iv.Right)
	}
	return cond1 && cond2
}

// IsDisjointAndMergeable reports whether iv and other are non-overlapping and
// share exactly one endpoint, closed on at least one side at that point.
func (iv Interval) IsDisjointAndMergeable(other Interval) bool {
	lowest, highest := iv, other
	if other.Left.Less(iv.Left) {
		lowest, highest = other, iv
	}
	return highest.Left.Equal(lowest.Right) &&
		(highest.ClosedLeft() || lowest.ClosedRight()) &&
		!iv.Overlaps(other)
}

// Merge combines iv and other into their union, requiring IsDisjointAndMergeable.
func (iv Interval) Merge(other Interval) (Interval, error) {
	if !iv.IsDisjointAndMergeable(other) {
		return Interval{}, fmt.Errorf("interval.Merge(%s, %s): %w", iv, other, ErrNotMergeable)
	}
	lowest, highest := iv, other
	if other.Left.Less(iv.Left) {
		lowest, highest = other, iv
	}
	mode := ModeOf(lowest.ClosedLeft(), highest.ClosedRight())
	return New(lowest.Left, highest.Right, mode)
}

// Include reports whether every point of other lies in iv, honoring both
// intervals' Modes at shared endpoints.
func (iv Interval) Include(other Interval) bool {
	leftOK := iv.Left.Less(other.Left) ||
		(iv.Left.Equal(other.Left) && (iv.ClosedLeft() || !other.ClosedLeft()))
	rightOK := other.Right.Less(iv.Right) ||
		(other.Right.Equal(iv.Right) && (iv.ClosedRight() || !other.ClosedRight()))
	return leftOK && rightOK
}

// SubInterval builds the interval [left, right] restricted within iv,
// requiring [left, right] subset iv numerically. Mode is copied from iv at
// whichever endpoints coincide with iv's own bounds, and closed otherwise —
// this endpoint-preservation rule is the single source of truth relied on
// by move.Restrict and move sampling.
func (iv Interval) SubInterval(left, right Delay) (Interval, error) {
	if left.Less(iv.Left) || iv.Right.Less(right) {
		return Interval{}, fmt.Errorf("interval.SubInterval(%s, %s) of %s: %w", left, right, iv, ErrNotIncluded)
	}
	switch {
	case left.Equal(iv.Left) && right.Equal(iv.Right):
		return New(left, right, iv.Mode)
	case left.Equal(iv.Left) && (iv.Mode == Right || iv.Mode == Neither):
		return New(left, right, Right)
	case right.Equal(iv.Right) && (iv.Mode == Left || iv.Mode == Neither):
		return New(left, right, Left)
	default:
		return New(left, right, Both)
	}
}

// SemiSortedSampling enumerates a deterministic finite list of sub-intervals
// of iv at granularity step, substituting bound for an infinite right
// endpoint. The first element is always the full interval; §8 relies on
// this for pruning.
//
// Complexity: O((Size/step)^2) time and space.
func (iv Interval) SemiSortedSampling(step, bound Delay) ([]Interval, error) {
	sleft := iv.Left
	sright := iv.Right
	if sright.IsInf() {
		sright = bound
	}

	full, err := New(sleft, sright, iv.Mode)
	if err != nil {
		return nil, fmt.Errorf("interval.SemiSortedSampling: %w", err)
	}
	out := []Interval{full}

	for left := sleft; left.LessEqual(sright); left = left.Add(step) {
		for right := mustSub(sright, step); left.Less(right); right = mustSub(right, step) {
			sub, err := full.SubInterval(left, right)
			if err != nil {
				return nil, fmt.Errorf("interval.SemiSortedSampling: %w", err)
			}
			out = append(out, sub)
			if step.IsZero() {
				break // guard against an infinite loop on a degenerate zero step
			}
		}
		if step.IsZero() {
			break
		}
	}

	for left := sleft.Add(step); left.Less(sright); left = left.Add(step) {
		sub, err := full.SubInterval(left, sright)
		if err != nil {
			return nil, fmt.Errorf("interval.SemiSortedSampling: %w", err)
		}
		out = append(out, sub)
		if step.IsZero() {
			break
		}
	}

	return out, nil
}

// mustSub returns a-b, or Zero if that would be negative (a < b), which the
// sampling loops above use purely as a loop-bound probe, never as a value
// placed in the output.
func mustSub(a, b Delay) Delay {
	r, err := a.Sub(b)
	if err != nil {
		return delay.Zero
	}
	return r
}

// InitialOf maps independent left/right closedness flags to the
// corresponding Mode; kept as an alias for the source's interval_type name.
func InitialOf(closedLeft, closedRight bool) Mode { return ModeOf(closedLeft, closedRight) }

func (iv Interval) String() string {
	l := "("
	if iv.ClosedLeft() {
		l = "["
	}
	r := ")"
	if iv.ClosedRight() {
		r = "]"
	}
	return fmt.Sprintf("%s%s, %s%s", l, iv.Left, iv.Right, r)
}
