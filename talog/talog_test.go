package talog_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ta-lab/permissiveness/automaton"
	"github.com/ta-lab/permissiveness/delay"
	"github.com/ta-lab/permissiveness/talog"
)

func TestNopSinkDoesNothing(t *testing.T) {
	assert.NotPanics(t, func() { talog.NopSink(talog.Event{Kind: talog.GoalReached}) })
}

func TestConsoleSinkWritesConfigLine(t *testing.T) {
	var buf bytes.Buffer
	sink := talog.NewConsoleSink(&buf)
	perm, err := delay.FromInt(3)
	if err != nil {
		t.Fatal(err)
	}
	sink(talog.Event{
		Kind:           talog.StartConfig,
		Config:         &automaton.Configuration{Location: "l0"},
		Permissiveness: &perm,
	})
	assert.Contains(t, buf.String(), "l0")
	assert.Contains(t, buf.String(), "3")
}

func TestConsoleSinkIndentsByTraceLength(t *testing.T) {
	var buf bytes.Buffer
	sink := talog.NewConsoleSink(&buf)
	sink(talog.Event{Kind: talog.GoalReached, TraceLength: 2})
	assert.Contains(t, buf.String(), "    [goal reached]")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "goal_reached", talog.GoalReached.String())
	assert.Equal(t, "unknown", talog.Kind(999).String())
}
