package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineLayout = `
name: line
stations:
  - id: Q1
    kind: queue
    capacity: 3
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
    due_date: 9
    route:
      - stations: [M1]
        processing_time: {mean: 1}
  - id: J2
    station: Q1
    due_date: 4
    route:
      - stations: [M1]
        processing_time: {mean: 6}
  - id: J3
    station: Q1
    due_date: 7
    route:
      - stations: [M1]
        processing_time: {mean: 3}
`

// writeLayout writes doc to a temp file and returns its absolute path.
func writeLayout(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestValidate_ValidLayout(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeLayout(t, lineLayout)})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "✓ line: 2 station(s), 1 operator(s), 3 job(s)\n", buf.String())
}

func TestValidate_ValidLayoutJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeLayout(t, lineLayout)})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Jobs)
}

func TestValidate_InvalidLayout(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	path := writeLayout(t, "name: bad\nstations:\n  - id: A\n    kind: queue\n    next: [B]\n")
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLayoutInvalid, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `unknown successor "B"`)
	assert.Equal(t, map[string]any{"file": path, "code": "LAYOUT_REFERENCE"}, resp.Error.Details)
}

func TestValidate_SchemaViolation(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{writeLayout(t, "name: bad\nstations:\n  - id: A\n    kind: conveyor\n")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E101]")
}

func TestValidate_MissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E000]")
}

func TestValidate_RequiresArgument(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.Error(t, cmd.Execute())
}
