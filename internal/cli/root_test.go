package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tfverify", cmd.Use)
	assert.Contains(t, cmd.Long, "traits")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "verify", "derive", "effects", "history", "watch"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command   string
		flag      string
		shorthand string
		defValue  string
	}{
		{"compile", "output", "o", ""},
		{"compile", "dialect-version", "", ""},
		{"verify", "db", "", ""},
		{"verify", "dialect-version", "", ""},
		{"derive", "instance", "", ""},
		{"effects", "against", "", ""},
		{"history", "db", "", ""},
		{"history", "limit", "", "20"},
		{"history", "run", "", ""},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "validate", specsDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootVerboseLogsToStderr(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--verbose", "compile", specsDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "✓ Compiled")
	assert.Contains(t, errOut.String(), "operation kind registered")
	assert.Contains(t, errOut.String(), "Found 3 CUE file(s)")
}

func TestLoggerDefaultsToDiscard(t *testing.T) {
	opts := &RootOptions{}
	require.NotNil(t, opts.Logger())
	assert.False(t, opts.Logger().Enabled(t.Context(), 0))
}
