package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDoc = `{
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
				"resets": []
			}]
		}
	],
	"init_location": "l0",
	"goal_location": "l1",
	"number_clocks": 1
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ta.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureDoc), 0o644))
	return path
}

func TestRunFindsPermissiveness(t *testing.T) {
	path := writeFixture(t)
	var stdout, stderr bytes.Buffer
	err := run([]string{"-ta", path, "-start", "l0:0", "-goal", "l1"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "permissiveness:")
}

func TestRunRequiresFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-ta", "x.json"}, &stdout, &stderr)
	require.Error(t, err)
}

func TestRunRejectsUnknownOpponent(t *testing.T) {
	path := writeFixture(t)
	var stdout, stderr bytes.Buffer
	err := run([]string{"-ta", path, "-start", "l0:0", "-goal", "l1", "-opponent", "nonexistent"}, &stdout, &stderr)
	require.Error(t, err)
}
