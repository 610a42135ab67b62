package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamarrr/tensorflow/internal/diag"
	"github.com/lamarrr/tensorflow/internal/harness"
	"github.com/lamarrr/tensorflow/internal/store"
	"github.com/lamarrr/tensorflow/internal/testutil"
)

// seedHistory records n runs with deterministic IDs and timestamps.
func seedHistory(t *testing.T, n int) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(db,
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDGenerator(testutil.NewSequentialRunIDs("")),
	)
	require.NoError(t, err)
	defer st.Close()

	for i := range n {
		report := harness.NewReport("seeded")
		report.Dialect = "tf"
		report.Version = "2.15.0"
		report.CatalogFingerprint = "catalog"
		report.AddInstance(harness.InstanceReport{
			Kind:     "tf.AddV2",
			Location: "add0",
			Diagnostics: diag.List{{
				Kind:     diag.KindTypeMismatch,
				Op:       "tf.AddV2",
				Location: "add0",
				Slots:    []string{"x", "z"},
				Types:    []string{"tensor<4xf32>", "tensor<4xf64>"},
				Message:  "element types differ",
			}},
		})
		if i%2 == 1 {
			report.AddError("add0: expectation failed")
		}
		_, err := st.WriteRun(context.Background(), report)
		require.NoError(t, err)
	}
	return db
}

func TestHistoryListsNewestFirst(t *testing.T) {
	db := seedHistory(t, 2)

	out, err := execute(t, NewHistoryCommand, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t,
		"run-0002  2024-01-01T00:00:01Z  seeded  tf 2.15.0  FAIL  1 instance(s)  1 diagnostic(s)\n"+
			"run-0001  2024-01-01T00:00:00Z  seeded  tf 2.15.0  PASS  1 instance(s)  1 diagnostic(s)\n",
		out)
}

func TestHistoryLimit(t *testing.T) {
	db := seedHistory(t, 3)

	out, err := execute(t, NewHistoryCommand, "json", "--db", db, "--limit", "2")
	require.NoError(t, err)

	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "run-0003", resp.Data[0].ID)
	assert.Equal(t, "run-0002", resp.Data[1].ID)
}

func TestHistoryEmptyDatabase(t *testing.T) {
	db := seedHistory(t, 0)

	out, err := execute(t, NewHistoryCommand, "text", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestHistoryRunDetail(t *testing.T) {
	db := seedHistory(t, 1)

	out, err := execute(t, NewHistoryCommand, "text", "--db", db, "--run", "run-0001")
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-0001\n")
	assert.Contains(t, out, "scenario:  seeded")
	assert.Contains(t, out, "TYPE_MISMATCH: 1")
	assert.Contains(t, out, "TYPE_MISMATCH: tf.AddV2 at add0: element types differ (x: tensor<4xf32>, z: tensor<4xf64>)")

	out, err = execute(t, NewHistoryCommand, "json", "--db", db, "--run", "run-0001")
	require.NoError(t, err)
	var resp struct {
		Data RunDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "run-0001", resp.Data.ID)
	assert.Equal(t, map[diag.Kind]int{diag.KindTypeMismatch: 1}, resp.Data.Counts)
	require.Len(t, resp.Data.Diagnostics, 1)
	assert.Equal(t, []string{"x", "z"}, resp.Data.Diagnostics[0].Slots)
}

func TestHistoryErrors(t *testing.T) {
	db := seedHistory(t, 1)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing database", []string{"--db", filepath.Join(t.TempDir(), "none.db")}, ErrCodeNotFound},
		{"unknown run", []string{"--db", db, "--run", "run-9999"}, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewHistoryCommand, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
		})
	}

	_, err := execute(t, NewHistoryCommand, "text")
	require.Error(t, err, "--db is required")
}
