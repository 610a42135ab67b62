package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const negSpec = `package tf

dialect: {name: "tf", version: "2.15.0"}

op: "tf.Neg": {
	operands: [{name: "x", type: "TF_NumberTensor"}]
	results: [{name: "y", type: "TF_NumberTensor"}]
	traits: ["CwiseUnary"]
}
`

func TestIsSpecEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write cue", fsnotify.Event{Name: "specs/math.cue", Op: fsnotify.Write}, true},
		{"create cue", fsnotify.Event{Name: "specs/new.cue", Op: fsnotify.Create}, true},
		{"remove cue", fsnotify.Event{Name: "specs/old.cue", Op: fsnotify.Remove}, true},
		{"rename cue", fsnotify.Event{Name: "specs/old.cue", Op: fsnotify.Rename}, true},
		{"chmod cue", fsnotify.Event{Name: "specs/math.cue", Op: fsnotify.Chmod}, false},
		{"editor swap file", fsnotify.Event{Name: "specs/.math.cue.swp", Op: fsnotify.Write}, false},
		{"yaml", fsnotify.Event{Name: "specs/scenario.yaml", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSpecEvent(tt.ev))
		})
	}
}

func TestWatchInitialPass(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ops.cue": negSpec})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)

	require.NoError(t, runWatch(ctx, &RootOptions{Format: "text"}, dir, cmd))
	assert.Contains(t, buf.String(), "✓ All descriptors valid (1 op(s))")
}

func TestWatchMissingDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)

	err := runWatch(context.Background(), &RootOptions{Format: "text"}, "/nonexistent/specs", cmd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWatchRevalidatesOnChange(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ops.cue": negSpec})
	ctx, cancel := context.WithCancel(context.Background())

	buf := &syncBuffer{}
	cmd := NewWatchCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)

	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, &RootOptions{Format: "text"}, dir, cmd) }()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte("✓ All descriptors valid"))
	}, 5*time.Second, 10*time.Millisecond)

	bad := "package tf\n\nop: \"tf.Bad\": {\n\toperands: [{name: \"x\", type: \"TF_Tensor\"}]\n\ttraits: [\"Nope\"]\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(bad), 0o644))

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(buf.String()), []byte(`E105: unknown trait "Nope"`))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
