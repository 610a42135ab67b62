package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const badTraitSpec = `package tf

dialect: {name: "tf", version: "1.0.0"}

op: "tf.Bad": {
	operands: [{name: "x", type: "TF_Tensor"}]
	traits: ["Nope"]
	effects: ["Variable.Peek"]
}
`

func decodeCatalog(t *testing.T, out string) CatalogResult {
	t.Helper()
	var resp struct {
		Status string        `json:"status"`
		Data   CatalogResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestCompileTestdata(t *testing.T) {
	out, err := execute(t, NewCompileCommand, "text", specsDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 11 op kind(s) for dialect tf 2.15.0")
	assert.Contains(t, out, "tf.AddV2: 2 operand(s), 1 result(s) [SameOperandsAndResultElementTypeResolveRef, CwiseBinary, Commutative, NoSideEffect]")
	assert.Contains(t, out, "Not available at 2.15.0:\n  tf.BatchMatMulV3")
	assert.Contains(t, out, "Fingerprint: ")
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, NewCompileCommand, "json", specsDir)
	require.NoError(t, err)

	result := decodeCatalog(t, out)
	assert.Equal(t, "tf", result.Dialect)
	assert.Equal(t, "2.15.0", result.Version)
	assert.NotEmpty(t, result.Fingerprint)
	require.Len(t, result.Kinds, 11)
	assert.Equal(t, "tf.AddN", result.Kinds[0].Name, "kinds are sorted by name")
	assert.Equal(t, []string{"tf.BatchMatMulV3"}, result.Skipped)
}

func TestCompileDialectVersion(t *testing.T) {
	out, err := execute(t, NewCompileCommand, "json", specsDir, "--dialect-version", "2.16.0")
	require.NoError(t, err)

	result := decodeCatalog(t, out)
	assert.Equal(t, "2.16.0", result.Version)
	assert.Len(t, result.Kinds, 12)
	assert.Empty(t, result.Skipped)
}

func TestCompileFingerprintIsStable(t *testing.T) {
	first, err := execute(t, NewCompileCommand, "json", specsDir)
	require.NoError(t, err)
	second, err := execute(t, NewCompileCommand, "json", specsDir)
	require.NoError(t, err)

	assert.Equal(t, decodeCatalog(t, first).Fingerprint, decodeCatalog(t, second).Fingerprint)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "catalog.json")

	out, err := execute(t, NewCompileCommand, "text", specsDir, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote catalog to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	var result CatalogResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Kinds, 11)
}

func TestCompileLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
		text string
	}{
		{
			name: "nonexistent directory",
			dir:  func(t *testing.T) string { return "/nonexistent/directory/path" },
			code: ErrCodeNotFound,
			text: "not found",
		},
		{
			name: "empty directory",
			dir:  func(t *testing.T) string { return t.TempDir() },
			code: ErrCodeNoFiles,
			text: "no CUE files found",
		},
		{
			name: "syntax error",
			dir: func(t *testing.T) string {
				return writeFiles(t, map[string]string{"bad.cue": "package tf\nop: {"})
			},
			code: ErrCodeLoadFailed,
			text: "Error [E004]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewCompileCommand, "text", tt.dir(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, tt.text)
		})
	}
}

func TestCompileMalformedOp(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ops.cue": `package tf

dialect: {name: "tf"}

op: "tf.Bad": {
	operands: [{name: "x"}]
}
`})

	out, err := execute(t, NewCompileCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 1 error(s)")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, ErrCodeMalformedOp+": type is required")
}

func TestCompileRegistrationFailureJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ops.cue": badTraitSpec})

	out, err := execute(t, NewCompileCommand, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRegistration, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "tf.Bad")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"cue", ErrCodeBuildFailed},
		{"dialect", "E100"},
		{"op", "E101"},
		{"type", ErrCodeMalformedOp},
		{"operands", ErrCodeMalformedOp},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}
