package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs generates run IDs "run-0001", "run-0002", ... for tests.
//
// It stands in for the UUIDv7 generator so that recorded histories and golden
// reports are reproducible.
//
// Thread-safety: safe for concurrent use.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs creates a generator. An empty prefix defaults to "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
