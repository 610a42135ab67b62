package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveInstance(t *testing.T) {
	scenario := filepath.Join(scenariosDir, "derived-attrs.yaml")

	out, err := execute(t, NewDeriveCommand, "text", specsDir, scenario, "--instance", "read0")
	require.NoError(t, err)
	assert.Equal(t, "read0 tf.ReadVariableOp\n  dtype = f32\n  shape = [4x?]\n", out)
}

func TestDeriveAllInstances(t *testing.T) {
	scenario := filepath.Join(scenariosDir, "derived-attrs.yaml")

	out, err := execute(t, NewDeriveCommand, "text", specsDir, scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "addn0 tf.AddN\n  N = 3\n  T = i32\n")
	assert.Contains(t, out, "idn0 tf.IdentityN")
	assert.Contains(t, out, "conv0 tf.Conv2D\n  T = i32\n")
}

func TestDeriveReportsErrorsAndBuildFailures(t *testing.T) {
	scenario := filepath.Join(scenariosDir, "broadcast-ref.yaml")

	out, err := execute(t, NewDeriveCommand, "json", specsDir, scenario)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []DerivedAttrs `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	byLoc := make(map[string]DerivedAttrs)
	for _, d := range resp.Data {
		byLoc[d.Location] = d
	}

	assert.Equal(t, map[string]string{"T": "f32"}, byLoc["add0"].Derived)
	assert.Contains(t, byLoc["add2"].BuildError, "NON_BROADCASTABLE")
	assert.Empty(t, byLoc["add2"].Derived)
	assert.Contains(t, byLoc["add4"].Errors, "T", "x is unbound so T cannot be derived")
}

func TestDeriveUnknownInstance(t *testing.T) {
	scenario := filepath.Join(scenariosDir, "derived-attrs.yaml")

	out, err := execute(t, NewDeriveCommand, "text", specsDir, scenario, "--instance", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `no instance at location "nope"`)
}
