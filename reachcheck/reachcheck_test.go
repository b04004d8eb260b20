package reachcheck_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/guard"
	"github.com/ta-lab/permissiveness/reachcheck"
)

func d(n int64) delay.Delay {
	v, err := delay.FromInt(n)
	if err != nil {
		panic(err)
	}
	return v
}

func boundedLabel(t *testing.T, lo, hi int64) guard.Label {
	t.Helper()
	c, err := guard.NewLinearConstraint(0, d(lo), d(hi))
	require.NoError(t, err)
	g, err := guard.NewGuard([]guard.LinearConstraint{c})
	require.NoError(t, err)
	return guard.NewLabel(g, nil)
}

func unboundedLabel(t *testing.T, lo int64) guard.Label {
	t.Helper()
	c, err := guard.NewLinearConstraint(0, d(lo), delay.Inf)
	require.NoError(t, err)
	g, err := guard.NewGuard([]guard.LinearConstraint{c})
	require.NoError(t, err)
	return guard.NewLabel(g, nil)
}

func TestExistenceOfInfinitePathFalseWhenAllBounded(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("start")
	ta.AddLocation("goal")
	require.NoError(t, ta.AddEdge("start", "goal", "a", boundedLabel(t, 0, 5)))

	infinite, err := reachcheck.ExistenceOfInfinitePath(context.Background(), ta, "start", "goal")
	require.NoError(t, err)
	assert.False(t, infinite)
}

func TestExistenceOfInfinitePathTrueWhenFullPathUnbounded(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("start")
	ta.AddLocation("mid")
	ta.AddLocation("goal")
	require.NoError(t, ta.AddEdge("start", "mid", "a", unboundedLabel(t, 0)))
	require.NoError(t, ta.AddEdge("mid", "goal", "b", unboundedLabel(t, 0)))

	infinite, err := reachcheck.ExistenceOfInfinitePath(context.Background(), ta, "start", "goal")
	require.NoError(t, err)
	assert.True(t, infinite)
}

func TestExistenceOfInfinitePathFalseWhenOnlyPartiallyUnbounded(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("start")
	ta.AddLocation("mid")
	ta.AddLocation("goal")
	require.NoError(t, ta.AddEdge("start", "mid", "a", unboundedLabel(t, 0)))
	require.NoError(t, ta.AddEdge("mid", "goal", "b", boundedLabel(t, 0, 3)))

	infinite, err := reachcheck.ExistenceOfInfinitePath(context.Background(), ta, "start", "goal")
	require.NoError(t, err)
	assert.False(t, infinite)
}

func TestExistenceOfInfinitePathRejectsUnknownLocation(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("start")

	_, err = reachcheck.ExistenceOfInfinitePath(context.Background(), ta, "start", "nope")
	require.ErrorIs(t, err, reachcheck.ErrUnknownLocation)
}

func TestExistenceOfInfinitePathUnreachable(t *testing.T) {
	ta, err := automaton.New(1)
	require.NoError(t, err)
	ta.AddLocation("start")
	ta.AddLocation("isolated")

	infinite, err := reachcheck.ExistenceOfInfinitePath(context.Background(), ta, "start", "isolated")
	require.NoError(t, err)
	assert.False(t, infinite)
}
