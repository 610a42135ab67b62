package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingScenario(t *testing.T) string {
	t.Helper()
	dir := writeFiles(t, map[string]string{"neg.yaml": fmt.Sprintf(`name: neg-expectations
description: "A clean negation expected to mismatch"
specs:
  - %s
instances:
  - kind: tf.Neg
    location: neg0
    operands: { x: ["tensor<4xf32>"] }
    results: { y: ["tensor<4xf32>"] }
    expect:
      diagnostics:
        - { kind: TYPE_MISMATCH }
`, absSpecs(t))})
	return filepath.Join(dir, "neg.yaml")
}

func TestVerifyScenario(t *testing.T) {
	out, err := execute(t, NewVerifyCommand, "text", specsDir, filepath.Join(scenariosDir, "broadcast-ref.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ broadcast-ref: 6 instance(s), 4 diagnostic(s)")
	assert.Contains(t, out, "add0 tf.AddV2: clean")
	assert.Contains(t, out, "add1 tf.AddV2: 1 diagnostic(s)")
	assert.Contains(t, out, "add2 tf.AddV2: build failed")
	assert.Contains(t, out, "NON_BROADCASTABLE: tf.AddV2")
	assert.Contains(t, out, "add4 tf.AddV2: 2 diagnostic(s)")
	assert.NotContains(t, out, "Recorded run")
}

func TestVerifyScenarioJSON(t *testing.T) {
	out, err := execute(t, NewVerifyCommand, "json", specsDir, filepath.Join(scenariosDir, "derived-attrs.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data.Report)
	assert.True(t, resp.Data.Report.Pass)
	assert.Equal(t, "2.15.0", resp.Data.Report.Version)
	assert.Empty(t, resp.Data.RunID)
}

func TestVerifyFailedExpectations(t *testing.T) {
	out, err := execute(t, NewVerifyCommand, "text", specsDir, failingScenario(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 expectation(s) failed")
	assert.Contains(t, out, "✗ neg-expectations")
	assert.Contains(t, out, "Failed expectations:\n  neg0: ")
}

func TestVerifyFailedExpectationsJSON(t *testing.T) {
	out, err := execute(t, NewVerifyCommand, "json", specsDir, failingScenario(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeExpectation, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "neg0")
	assert.False(t, resp.Data.Report.Pass)
}

func TestVerifyRecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	scenario := filepath.Join(scenariosDir, "broadcast-ref.yaml")

	out, err := execute(t, NewVerifyCommand, "json", specsDir, scenario, "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.RunID)

	out, err = execute(t, NewHistoryCommand, "text", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, resp.Data.RunID)
	assert.Contains(t, out, "broadcast-ref  tf 2.15.0  PASS  6 instance(s)  4 diagnostic(s)")

	out, err = execute(t, NewHistoryCommand, "text", "--db", db, "--run", resp.Data.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE_MISMATCH: 2")
	assert.Contains(t, out, "ARITY_MISMATCH: 1")
	assert.Contains(t, out, "build: NON_BROADCASTABLE")
}

func TestVerifyCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing scenario", []string{specsDir, "/nonexistent/scenario.yaml"}, ErrCodeScenario},
		{"missing specs", []string{"/nonexistent/specs", filepath.Join(scenariosDir, "broadcast-ref.yaml")}, ErrCodeNotFound},
		{"unknown version", []string{specsDir, filepath.Join(scenariosDir, "broadcast-ref.yaml"), "--dialect-version", "soon"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewVerifyCommand, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			if tt.code != "" {
				assert.Contains(t, err.Error(), tt.code)
			}
		})
	}
}

func TestVerifyDialectVersionOverride(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bmm.yaml": fmt.Sprintf(`name: batch-matmul
description: "A kind introduced in 2.16.0"
specs:
  - %s
instances:
  - kind: tf.BatchMatMulV3
    location: bmm0
    operands: { x: ["tensor<2x3xf32>"], y: ["tensor<3x4xf32>"] }
    results: { output: ["tensor<2x4xf32>"] }
`, absSpecs(t))})
	scenario := filepath.Join(dir, "bmm.yaml")

	_, err := execute(t, NewVerifyCommand, "text", specsDir, scenario)
	require.Error(t, err, "tf.BatchMatMulV3 is not in the 2.15.0 catalog")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, NewVerifyCommand, "text", specsDir, scenario, "--dialect-version", "2.16.0")
	require.NoError(t, err)
	assert.Contains(t, out, "bmm0 tf.BatchMatMulV3: clean")
}
