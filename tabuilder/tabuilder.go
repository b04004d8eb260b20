// Package tabuilder constructs an automaton.TA from a JSON-shaped
// description, the wire counterpart of the source's creators.py
// (timed_automaton_creator/edge_creator/label_creator/linear_guard_creator/
// linear_constraint_creator chain). It follows the teacher's
// builder.BuildGraph contract: one orchestrator function, typed wire
// structs, functional-option-free since every setting comes from the
// decoded document itself.
//
// Errors:
//
//	ErrUnknownGuardType      - a GuardSpec's Type is not "linear".
//	ErrConstraintTypeMismatch - a ConstraintSpec's Type is not "linear".
package tabuilder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/guard"
)

var ErrUnknownGuardType = errors.New("tabuilder: unknown guard type")
var ErrConstraintTypeMismatch = errors.New("tabuilder: constraint type mismatch")

// Bound decodes a wire-format delay bound: a JSON integer, a
// {"num":..,"den":..} object for exact rationals, or the string "inf"/"+Inf"
// for infinity. It unmarshals directly into a delay.Delay.
type Bound delay.Delay

func (b *Bound) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == `"inf"` || trimmed == `"+Inf"` || trimmed == `"Inf"` {
		*b = Bound(delay.Inf)
		return nil
	}

	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		d, err := delay.FromInt(asInt)
		if err != nil {
			return fmt.Errorf("tabuilder: bound %s: %w", trimmed, err)
		}
		*b = Bound(d)
		return nil
	}

	var frac struct {
		Num int64 `json:"num"`
		Den int64 `json:"den"`
	}
	if err := json.Unmarshal(data, &frac); err != nil {
		return fmt.Errorf("tabuilder: bound %s is neither an integer, a fraction, nor \"inf\"", trimmed)
	}
	d, err := delay.FromFraction(frac.Num, frac.Den)
	if err != nil {
		return fmt.Errorf("tabuilder: bound %s: %w", trimmed, err)
	}
	*b = Bound(d)
	return nil
}

func (b Bound) delay() delay.Delay { return delay.Delay(b) }

// ConstraintSpec is the wire shape of a single per-clock linear constraint.
type ConstraintSpec struct {
	Type string `json:"type"`
	Data struct {
		ClockIndex int   `json:"clock_index"`
		LowerBound Bound `json:"lower_bound"`
		UpperBound Bound `json:"upper_bound"`
	} `json:"data"`
}

// GuardSpec is the wire shape of a conjunction of constraints.
type GuardSpec struct {
	Type        string           `json:"type"`
	Constraints []ConstraintSpec `json:"constraints"`
}

// LabelSpec is the wire shape of one action's guard and reset set, nested
// under an edge's "data" list.
type LabelSpec struct {
	Action string    `json:"action"`
	Guard  GuardSpec `json:"guard"`
	Resets []int     `json:"resets"`
}

// EdgeSpec is the wire shape of a group of transitions sharing a
// (start_location, end_location) pair, one LabelSpec per action.
type EdgeSpec struct {
	StartLocation string      `json:"start_location"`
	EndLocation   string      `json:"end_location"`
	Data          []LabelSpec `json:"data"`
}

// TASpec is the top-level wire document describing an entire automaton.
type TASpec struct {
	Transitions  []EdgeSpec `json:"transitions"`
	InitLocation string     `json:"init_location"`
	GoalLocation string     `json:"goal_location"`
	NumberClocks int        `json:"number_clocks"`
	Overwrite    []string   `json:"overwrite"`
}

func buildConstraint(spec ConstraintSpec) (guard.LinearConstraint, error) {
	if spec.Type != "linear" {
		return guard.LinearConstraint{}, fmt.Errorf("tabuilder: constraint type %q: %w", spec.Type, ErrConstraintTypeMismatch)
	}
	return guard.NewLinearConstraint(spec.Data.ClockIndex, spec.Data.LowerBound.delay(), spec.Data.UpperBound.delay())
}

func buildGuard(spec GuardSpec) (guard.Guard, error) {
	if spec.Type != "linear" {
		return guard.Guard{}, fmt.Errorf("tabuilder: guard type %q: %w", spec.Type, ErrUnknownGuardType)
	}
	constraints := make([]guard.LinearConstraint, 0, len(spec.Constraints))
	for _, cs := range spec.Constraints {
		c, err := buildConstraint(cs)
		if err != nil {
			return guard.Guard{}, err
		}
		constraints = append(constraints, c)
	}
	return guard.NewGuard(constraints)
}

func buildLabel(spec LabelSpec) (guard.Label, error) {
	g, err := buildGuard(spec.Guard)
	if err != nil {
		return guard.Label{}, err
	}
	return guard.NewLabel(g, spec.Resets), nil
}

// hasOverwrite reports whether name appears in the spec's overwrite list,
// the wire counterpart of the source's optional per-automaton override set.
func hasOverwrite(overwrite []string, name string) bool {
	for _, o := range overwrite {
		if o == name {
			return true
		}
	}
	return false
}

// Build decodes spec into a fully validated automaton.TA: every location
// referenced by a transition is registered, every label is checked
// well-formed against NumberClocks, and WithOverwriteDeterministic is
// applied when spec.Overwrite contains "deterministic".
func Build(spec TASpec) (*automaton.TA, error) {
	var opts []automaton.Option
	if hasOverwrite(spec.Overwrite, "deterministic") {
		opts = append(opts, automaton.WithOverwriteDeterministic())
	}
	ta, err := automaton.New(spec.NumberClocks, opts...)
	if err != nil {
		return nil, fmt.Errorf("tabuilder.Build: %w", err)
	}

	ta.AddLocation(spec.InitLocation)
	ta.AddLocation(spec.GoalLocation)
	for _, edge := range spec.Transitions {
		ta.AddLocation(edge.StartLocation)
		ta.AddLocation(edge.EndLocation)
	}

	for _, edge := range spec.Transitions {
		for _, labelSpec := range edge.Data {
			label, err := buildLabel(labelSpec)
			if err != nil {
				return nil, fmt.Errorf("tabuilder.Build(%s->%s via %s): %w", edge.StartLocation, edge.EndLocation, labelSpec.Action, err)
			}
			if err := ta.AddEdge(edge.StartLocation, edge.EndLocation, labelSpec.Action, label); err != nil {
				return nil, fmt.Errorf("tabuilder.Build(%s->%s via %s): %w", edge.StartLocation, edge.EndLocation, labelSpec.Action, err)
			}
		}
	}

	if err := ta.WellFormed(); err != nil {
		return nil, fmt.Errorf("tabuilder.Build: %w", err)
	}
	if !hasOverwrite(spec.Overwrite, "deterministic") && !ta.IsDeterministic() {
		return nil, fmt.Errorf("tabuilder.Build: %w", automaton.ErrNonDeterministic)
	}
	return ta, nil
}
