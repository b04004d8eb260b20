package move_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/guard"
	"github.com/ta-lab/permissiveness/interval"
	"github.com/ta-lab/permissiveness/move"
)

func d(n int64) delay.Delay {
	v, err := delay.FromInt(n)
	if err != nil {
		panic(err)
	}
	return v
}

func labelWithBound(t *testing.T, lo, hi int64) guard.Label {
	t.Helper()
	c, err := guard.NewLinearConstraint(0, d(lo), d(hi))
	require.NoError(t, err)
	g, err := guard.NewGuard([]guard.LinearConstraint{c})
	require.NoError(t, err)
	return guard.NewLabel(g, nil)
}

func TestGlobalInterval(t *testing.T) {
	m, err := move.New("a", []move.Step{
		{Interval: interval.MustNew(d(0), d(2), interval.Both), Target: "l1"},
		{Interval: interval.MustNew(d(2), d(5), interval.Right), Target: "l2"},
	})
	require.NoError(t, err)
	g, err := m.GlobalInterval()
	require.NoError(t, err)
	assert.True(t, g.Equal(interval.MustNew(d(0), d(5), interval.Both)))
}

func TestRestrictWithinSingleStep(t *testing.T) {
	m, err := move.New("a", []move.Step{
		{Interval: interval.MustNew(d(0), d(5), interval.Both), Target: "l1"},
	})
	require.NoError(t, err)
	r, err := move.Restrict(m, interval.MustNew(d(1), d(3), interval.Both))
	require.NoError(t, err)
	require.Len(t, r.Steps, 1)
	assert.Equal(t, "l1", r.Steps[0].Target)
}

func TestRestrictSpanningTwoSteps(t *testing.T) {
	m, err := move.New("a", []move.Step{
		{Interval: interval.MustNew(d(0), d(2), interval.Both), Target: "l1"},
		{Interval: interval.MustNew(d(2), d(5), interval.Right), Target: "l2"},
	})
	require.NoError(t, err)
	r, err := move.Restrict(m, interval.MustNew(d(1), d(4), interval.Both))
	require.NoError(t, err)
	require.Len(t, r.Steps, 2)
	assert.Equal(t, "l1", r.Steps[0].Target)
	assert.Equal(t, "l2", r.Steps[1].Target)
}

func TestRestrictRejectsUncoveredInterval(t *testing.T) {
	m, err := move.New("a", []move.Step{
		{Interval: interval.MustNew(d(0), d(2), interval.Both), Target: "l1"},
	})
	require.NoError(t, err)
	_, err = move.Restrict(m, interval.MustNew(d(3), d(4), interval.Both))
	require.ErrorIs(t, err, move.ErrIntervalNotFound)
}

func TestSampleFirstCoversFullInterval(t *testing.T) {
	m, err := move.New("a", []move.Step{
		{Interval: interval.MustNew(d(0), d(4), interval.Both), Target: "l1"},
	})
	require.NoError(t, err)
	samples, err := move.Sample(m, d(1), d(100))
	require.NoError(t, err)
	require.Len(t, samples, 10)
	g, err := samples[0].GlobalInterval()
	require.NoError(t, err)
	assert.True(t, g.Equal(interval.MustNew(d(0), d(4), interval.Both)))
}

func TestMovesBranchFreeSingleAction(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("l0")
	ta.AddLocation("l1")
	require.NoError(t, ta.AddEdge("l0", "l1", "a", labelWithBound(t, 0, 5)))

	moves, err := move.Moves(ta, automaton.Configuration{Location: "l0", Valuation: []delay.Delay{d(0)}})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "a", moves[0].Action)
}

func TestMovesRejectsNonDeterministic(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("l0")
	ta.AddLocation("l1")
	ta.AddLocation("l2")
	require.NoError(t, ta.AddEdge("l0", "l1", "a", labelWithBound(t, 0, 5)))
	require.NoError(t, ta.AddEdge("l0", "l2", "a", labelWithBound(t, 0, 5)))

	_, err = move.Moves(ta, automaton.Configuration{Location: "l0", Valuation: []delay.Delay{d(0)}})
	require.ErrorIs(t, err, move.ErrNonDeterministic)
}

func TestMovesFusesAdjacentDeterministicTransitions(t *testing.T) {
	ta, err := automaton.New(1, automaton.WithOverwriteDeterministic())
	require.NoError(t, err)
	ta.AddLocation("l0")
	ta.AddLocation("l1")
	ta.AddLocation("l2")
	require.NoError(t, ta.AddEdge("l0", "l1", "a", labelWithBound(t, 0, 2)))
	require.NoError(t, ta.AddEdge("l0", "l2", "a", labelWithBound(t, 3, 5)))
	// not branch-free, not single-action by itself (two targets share
	// action "a"), but asserted deterministic; enabled-delay sets [0,2]
	// and [3,5] are not adjacent (the delays strictly between 2 and 3
	// belong to neither) so they would not fuse. Use contiguous bounds
	// instead:
	_ = ta

	ta2, err := automaton.New(1, automaton.WithOverwriteDeterministic())
	require.NoError(t, err)
	ta2.AddLocation("l0")
	ta2.AddLocation("l1")
	ta2.AddLocation("l2")
	require.NoError(t, ta2.AddEdge("l0", "l1", "a", labelWithBound(t, 0, 2)))
	require.NoError(t, ta2.AddEdge("l0", "l2", "a", labelWithBound(t, 2, 5)))

	moves, err := move.Moves(ta2, automaton.Configuration{Location: "l0", Valuation: []delay.Delay{d(0)}})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Len(t, moves[0].Steps, 2)
}

func TestNextStep(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("l0")
	ta.AddLocation("l1")
	require.NoError(t, ta.AddEdge("l0", "l1", "a", labelWithBound(t, 0, 5)))

	mv, err := move.New("a", []move.Step{{Interval: interval.MustNew(d(2), d(2), interval.Both), Target: "l1"}})
	require.NoError(t, err)
	config := automaton.Configuration{Location: "l0", Valuation: []delay.Delay{d(0)}}
	next, ok, err := move.NextStep(ta, config, mv, d(2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "l1", next.Location)
	assert.True(t, next.Valuation[0].Equal(d(2)))
}
