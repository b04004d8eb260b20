// Package delay provides an exact, non-negative rational scalar with a
// symbolic positive-infinity value, used throughout the permissiveness
// engine to represent clock readings and transition delays.
//
// All arithmetic is exact: Delay wraps math/big.Rat and never rounds. The
// zero value of Delay is the rational 0, so a freshly declared Delay is
// usable without construction.
//
// Errors:
//
//	ErrNegative     - a constructor or arithmetic result would be negative.
//	ErrIndeterminate - subtraction of an infinite delay (finite - ∞ or ∞ - ∞; undefined).
package delay

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrNegative indicates an attempt to construct or produce a negative Delay.
var ErrNegative = errors.New("delay: negative value")

// ErrIndeterminate indicates an arithmetic operation with no defined result,
// such as subtracting infinity from infinity.
var ErrIndeterminate = errors.New("delay: indeterminate operation on infinities")

// Delay is a non-negative exact rational, or the symbolic value +Inf.
// The zero value represents the rational 0.
type Delay struct {
	rat *big.Rat // nil means either 0 (when inf is false) or unused (when inf is true)
	inf bool
}

// Zero is the Delay representing 0.
var Zero = Delay{}

// Inf is the Delay representing +∞.
var Inf = Delay{inf: true}

// FromInt builds a Delay from a non-negative integer.
// Complexity: O(1).
func FromInt(n int64) (Delay, error) {
	if n < 0 {
		return Delay{}, fmt.Errorf("delay.FromInt(%d): %w", n, ErrNegative)
	}
	return Delay{rat: big.NewRat(n, 1)}, nil
}

// FromFraction builds a Delay from an exact fraction num/den, den != 0.
// Complexity: O(1).
func FromFraction(num, den int64) (Delay, error) {
	if den == 0 {
		return Delay{}, fmt.Errorf("delay.FromFraction(%d, %d): zero denominator", num, den)
	}
	r := big.NewRat(num, den)
	if r.Sign() < 0 {
		return Delay{}, fmt.Errorf("delay.FromFraction(%d, %d): %w", num, den, ErrNegative)
	}
	return Delay{rat: r}, nil
}

// FromRat builds a Delay from a *big.Rat, copying it. r must be non-negative.
// Complexity: O(1).
func FromRat(r *big.Rat) (Delay, error) {
	if r == nil {
		return Delay{}, fmt.Errorf("delay.FromRat: nil rat")
	}
	if r.Sign() < 0 {
		return Delay{}, fmt.Errorf("delay.FromRat(%s): %w", r.String(), ErrNegative)
	}
	return Delay{rat: new(big.Rat).Set(r)}, nil
}

// IsInf reports whether d is the symbolic +∞ value.
func (d Delay) IsInf() bool { return d.inf }

// IsZero reports whether d is exactly 0.
func (d Delay) IsZero() bool { return !d.inf && (d.rat == nil || d.rat.Sign() == 0) }

// Rat returns the underlying rational value and true, or (nil, false) if d is +∞.
func (d Delay) Rat() (*big.Rat, bool) {
	if d.inf {
		return nil, false
	}
	if d.rat == nil {
		return big.NewRat(0, 1), true
	}
	return new(big.Rat).Set(d.rat), true
}

// Cmp returns -1, 0, or +1 as d is less than, equal to, or greater than other,
// with +∞ comparing greater than every finite value and equal to itself.
func (d Delay) Cmp(other Delay) int {
	switch {
	case d.inf && other.inf:
		return 0
	case d.inf:
		return 1
	case other.inf:
		return -1
	default:
		return d.ratOrZero().Cmp(other.ratOrZero())
	}
}

func (d Delay) ratOrZero() *big.Rat {
	if d.rat == nil {
		return big.NewRat(0, 1)
	}
	return d.rat
}

// Less reports whether d < other.
func (d Delay) Less(other Delay) bool { return d.Cmp(other) < 0 }

// LessEqual reports whether d <= other.
func (d Delay) LessEqual(other Delay) bool { return d.Cmp(other) <= 0 }

// Equal reports whether d == other.
func (d Delay) Equal(other Delay) bool { return d.Cmp(other) == 0 }

// Max returns the greater of d and other.
func (d Delay) Max(other Delay) Delay {
	if d.Less(other) {
		return other
	}
	return d
}

// Min returns the lesser of d and other.
func (d Delay) Min(other Delay) Delay {
	if other.Less(d) {
		return other
	}
	return d
}

// Add returns d + other. ∞ + anything = ∞.
func (d Delay) Add(other Delay) Delay {
	if d.inf || other.inf {
		return Inf
	}
	return Delay{rat: new(big.Rat).Add(d.ratOrZero(), other.ratOrZero())}
}

// Sub returns d - other. Requires the result be well-defined and non-negative:
//   - ∞ - finite = ∞
//   - finite - ∞ is indeterminate (ErrIndeterminate), as is ∞ - ∞
//   - finite - finite must not be negative (ErrNegative)
func (d Delay) Sub(other Delay) (Delay, error) {
	if d.inf && other.inf {
		return Delay{}, ErrIndeterminate
	}
	if d.inf {
		return Inf, nil
	}
	if other.inf {
		return Delay{}, fmt.Errorf("delay.Sub(%s, %s): %w", d, other, ErrIndeterminate)
	}
	r := new(big.Rat).Sub(d.ratOrZero(), other.ratOrZero())
	if r.Sign() < 0 {
		return Delay{}, fmt.Errorf("delay.Sub(%s, %s): %w", d, other, ErrNegative)
	}
	return Delay{rat: r}, nil
}

// String renders d in human-readable form ("p/q", an integer, or "+Inf").
func (d Delay) String() string {
	if d.inf {
		return "+Inf"
	}
	r := d.ratOrZero()
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}
