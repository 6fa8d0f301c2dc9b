package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineLayout = `
name: line
now: 4
stations:
  - id: Q1
    kind: queue
    next: [M1]
  - id: M1
    kind: machine
    operations: [Load]
    pool: [W1]
operators:
  - id: W1
    rule: EDD
jobs:
  - id: J1
    station: Q1
    due_date: 10
    route:
      - stations: [M1]
        processing_time:
          mean: 2.5
`

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var le *Error
	require.True(t, errors.As(err, &le), "expected *layout.Error, got %T: %v", err, err)
	return le.Code
}

func TestParse_Valid(t *testing.T) {
	l, err := Parse([]byte(lineLayout))
	require.NoError(t, err)

	assert.Equal(t, "line", l.Name)
	assert.Equal(t, 4.0, l.Now)
	require.Len(t, l.Stations, 2)
	assert.Equal(t, []string{"M1"}, l.Stations[0].Next)
	assert.Equal(t, "EDD", l.Operators[0].Rule)
	require.Len(t, l.Jobs, 1)
	assert.True(t, l.Jobs[0].Proceeds())
	assert.Equal(t, 2.5, l.Jobs[0].Route[0].ProcessingTime.Mean)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("name: x\nstations:\n  - id: A\n    kind: queue\n    colour: red\n"))
	require.Error(t, err)
	assert.Equal(t, ErrCodeParse, codeOf(t, err))
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "name: x\nstations:\n  - id: A\n    kind: conveyor\n"},
		{"no stations", "name: x\nstations: []\n"},
		{"bad operation", "name: x\nstations:\n  - id: A\n    kind: machine\n    operations: [Weld]\n"},
		{"negative capacity", "name: x\nstations:\n  - id: A\n    kind: queue\n    capacity: -1\n"},
		{"whitespace id", "name: x\nstations:\n  - id: \"A B\"\n    kind: queue\n"},
		{"negative mean", "name: x\nstations:\n  - id: A\n    kind: queue\njobs:\n  - id: J\n    station: A\n    route:\n      - processing_time: {mean: -1}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, ErrCodeSchema, codeOf(t, err))
		})
	}
}

func TestParse_ReferenceViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"unknown successor",
			"name: x\nstations:\n  - id: A\n    kind: queue\n    next: [B]\n",
			`unknown successor "B"`,
		},
		{
			"unknown pool operator",
			"name: x\nstations:\n  - id: A\n    kind: machine\n    pool: [W]\n",
			`unknown pool operator "W"`,
		},
		{
			"duplicate station",
			"name: x\nstations:\n  - id: A\n    kind: queue\n  - id: A\n    kind: machine\n",
			`duplicate station "A"`,
		},
		{
			"job at unknown station",
			"name: x\nstations:\n  - id: A\n    kind: queue\njobs:\n  - id: J\n    station: Z\n",
			`unknown station "Z"`,
		},
		{
			"unknown manager",
			"name: x\nstations:\n  - id: A\n    kind: queue\njobs:\n  - id: J\n    station: A\n    manager: W\n",
			`unknown manager "W"`,
		},
		{
			"serving unknown station",
			"name: x\nstations:\n  - id: A\n    kind: queue\noperators:\n  - id: W\n    serving: Z\n",
			`serving unknown station "Z"`,
		},
		{
			"exit not a successor",
			"name: x\nstations:\n  - id: A\n    kind: queue\n    exit_assigned_to: B\n  - id: B\n    kind: machine\n",
			`not a successor`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, ErrCodeReference, codeOf(t, err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_NormalizesIdentifiers(t *testing.T) {
	// Combining acute accent (NFD) and precomposed é (NFC) name the same station.
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"
	doc := "name: x\nstations:\n  - id: " + decomposed + "\n    kind: queue\njobs:\n  - id: J\n    station: " + composed + "\n"

	l, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, composed, l.Stations[0].ID)
	assert.Equal(t, composed, l.Jobs[0].Station)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ErrCodeNotFound, codeOf(t, err))
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "line.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lineLayout), 0644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "line", l.Name)
}

func TestJob_Proceeds(t *testing.T) {
	no := false
	assert.True(t, Job{}.Proceeds())
	assert.False(t, Job{CanProceed: &no}.Proceeds())
}
