package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/oprouter/internal/layout"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestLayout creates a minimal valid layout with the given name.
func createTestLayout(name string) *layout.Layout {
	return &layout.Layout{
		Name: name,
		Now:  1.5,
		Stations: []layout.Station{
			{ID: "Q1", Kind: layout.KindQueue, Next: []string{"M1"}},
			{ID: "M1", Kind: layout.KindMachine, Operations: []string{layout.OpLoad}, Pool: []string{"W1"}},
		},
		Operators: []layout.Operator{{ID: "W1", Rule: "EDD"}},
		Jobs:      []layout.Job{{ID: "J1", Station: "Q1", DueDate: 4}},
	}
}
