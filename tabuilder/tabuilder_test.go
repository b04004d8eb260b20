package tabuilder_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/tabuilder"
)

const simpleDoc = `{
	"transitions": [
		{
			"start_location": "l0",
			"end_location": "l1",
			"data": [{
				"action": "a",
				"guard": {
					"type": "linear",
					"constraints": [{
						"type": "linear",
						"data": {"clock_index": 0, "lower_bound": 0, "upper_bound": 5}
					}]
				},
				"resets": [0]
			}]
		}
	],
	"init_location": "l0",
	"goal_location": "l1",
	"number_clocks": 1
}`

func TestBuildSimpleAutomaton(t *testing.T) {
	var spec tabuilder.TASpec
	require.NoError(t, json.Unmarshal([]byte(simpleDoc), &spec))

	ta, err := tabuilder.Build(spec)
	require.NoError(t, err)
	assert.True(t, ta.HasLocation("l0"))
	assert.True(t, ta.HasLocation("l1"))

	to, ok := ta.FutureLocation("l0", "a")
	require.True(t, ok)
	assert.Equal(t, "l1", to)
}

func TestBuildRejectsUnknownGuardType(t *testing.T) {
	var spec tabuilder.TASpec
	require.NoError(t, json.Unmarshal([]byte(simpleDoc), &spec))
	spec.Transitions[0].Data[0].Guard.Type = "quadratic"

	_, err := tabuilder.Build(spec)
	require.ErrorIs(t, err, tabuilder.ErrUnknownGuardType)
}

func TestBuildRejectsConstraintTypeMismatch(t *testing.T) {
	var spec tabuilder.TASpec
	require.NoError(t, json.Unmarshal([]byte(simpleDoc), &spec))
	spec.Transitions[0].Data[0].Guard.Constraints[0].Type = "diagonal"

	_, err := tabuilder.Build(spec)
	require.ErrorIs(t, err, tabuilder.ErrConstraintTypeMismatch)
}

func TestBuildRejectsNonDeterministicWithoutOverwrite(t *testing.T) {
	doc := `{
		"transitions": [
			{
				"start_location": "l0",
				"end_location": "l1",
				"data": [{
					"action": "a",
					"guard": {"type": "linear", "constraints": [
						{"type": "linear", "data": {"clock_index": 0, "lower_bound": 0, "upper_bound": 5}}
					]},
					"resets": []
				}]
			},
			{
				"start_location": "l0",
				"end_location": "l2",
				"data": [{
					"action": "a",
					"guard": {"type": "linear", "constraints": [
						{"type": "linear", "data": {"clock_index": 0, "lower_bound": 0, "upper_bound": 5}}
					]},
					"resets": []
				}]
			}
		],
		"init_location": "l0",
		"goal_location": "l2",
		"number_clocks": 1
	}`
	var spec tabuilder.TASpec
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))

	_, err := tabuilder.Build(spec)
	require.ErrorIs(t, err, automaton.ErrNonDeterministic)
}

func TestBuildAcceptsNonDeterministicWithOverwrite(t *testing.T) {
	doc := `{
		"transitions": [
			{
				"start_location": "l0",
				"end_location": "l1",
				"data": [{
					"action": "a",
					"guard": {"type": "linear", "constraints": [
						{"type": "linear", "data": {"clock_index": 0, "lower_bound": 0, "upper_bound": 5}}
					]},
					"resets": []
				}]
			},
			{
				"start_location": "l0",
				"end_location": "l2",
				"data": [{
					"action": "a",
					"guard": {"type": "linear", "constraints": [
						{"type": "linear", "data": {"clock_index": 0, "lower_bound": 0, "upper_bound": 5}}
					]},
					"resets": []
				}]
			}
		],
		"init_location": "l0",
		"goal_location": "l2",
		"number_clocks": 1,
		"overwrite": ["deterministic"]
	}`
	var spec tabuilder.TASpec
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))

	ta, err := tabuilder.Build(spec)
	require.NoError(t, err)
	assert.True(t, ta.IsDeterministic())
}

func TestBoundUnmarshalAcceptsIntFractionAndInf(t *testing.T) {
	var doc struct {
		A tabuilder.Bound `json:"a"`
		B tabuilder.Bound `json:"b"`
		C tabuilder.Bound `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3, "b": {"num": 1, "den": 2}, "c": "inf"}`), &doc))
}
