package delay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ta-lab/permissiveness/delay"
)

func TestFromInt_RejectsNegative(t *testing.T) {
	_, err := delay.FromInt(-1)
	require.ErrorIs(t, err, delay.ErrNegative)
}

func TestFromFraction(t *testing.T) {
	d, err := delay.FromFraction(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "1/2", d.String())
}

func TestCmpOrdersInfinityLast(t *testing.T) {
	one, _ := delay.FromInt(1)
	assert.True(t, one.Less(delay.Inf))
	assert.True(t, delay.Inf.Equal(delay.Inf))
	assert.False(t, delay.Inf.Less(one))
}

func TestAddInfinityAbsorbs(t *testing.T) {
	one, _ := delay.FromInt(1)
	assert.True(t, one.Add(delay.Inf).Equal(delay.Inf))
	assert.True(t, delay.Inf.Add(delay.Inf).Equal(delay.Inf))
}

func TestSubFiniteMinusInfIsIndeterminate(t *testing.T) {
	one, _ := delay.FromInt(1)
	_, err := one.Sub(delay.Inf)
	require.ErrorIs(t, err, delay.ErrIndeterminate)

	_, err = delay.Inf.Sub(delay.Inf)
	require.ErrorIs(t, err, delay.ErrIndeterminate)
}

func TestSubNegativeResultRejected(t *testing.T) {
	one, _ := delay.FromInt(1)
	two, _ := delay.FromInt(2)
	_, err := one.Sub(two)
	require.ErrorIs(t, err, delay.ErrNegative)
}

func TestSubInfMinusFiniteIsInf(t *testing.T) {
	one, _ := delay.FromInt(1)
	got, err := delay.Inf.Sub(one)
	require.NoError(t, err)
	assert.True(t, got.IsInf())
}

func TestZeroValueIsUsable(t *testing.T) {
	var z delay.Delay
	assert.True(t, z.IsZero())
	assert.Equal(t, "0", z.String())
}
