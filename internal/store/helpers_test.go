package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rewind/internal/snapshot"
)

// createTestStore opens a store on a fresh temp file.
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

// createTestSession writes a minimal session and returns it.
func createTestSession(t *testing.T, s *Store, token string) Session {
	t.Helper()
	sess := Session{Token: token, Kind: "Counter", TypeKey: "Counter:0000000000000000", Model: "linear"}
	if err := s.WriteSession(context.Background(), sess); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
	return sess
}

func counterSnapshot(n int64) snapshot.Snapshot {
	return snapshot.Snapshot{Fields: snapshot.Object{"value": snapshot.Int(n)}}
}
