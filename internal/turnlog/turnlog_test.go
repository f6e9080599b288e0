package turnlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNilStoreIsDisabled(t *testing.T) {
	var s *Store
	s.Record(Turn{ID: "turn_x"})
	turns, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() on nil store: %v", err)
	}
	if turns != nil {
		t.Errorf("Recent() on nil store = %v, want nil", turns)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil store: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	s.Record(Turn{
		ID:        "turn_aaa",
		SessionID: "sess-1",
		Platform:  "chatgpt",
		Prompt:    "hello",
		Reply:     "hi there",
		Status:    "ok",
		CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	s.Record(Turn{
		ID:        "turn_bbb",
		SessionID: "sess-1",
		Platform:  "chatgpt",
		Prompt:    "again",
		Status:    "error",
		Error:     "timed out waiting for the reply to finish",
		CreatedAt: time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC),
	})
	// Close drains the writer queue, so a reopen sees both rows.
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = s.Close() }()

	turns, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Recent() returned %d turns, want 2", len(turns))
	}
	if turns[0].ID != "turn_bbb" {
		t.Errorf("Recent()[0].ID = %q, want %q (newest first)", turns[0].ID, "turn_bbb")
	}
	if turns[0].Status != "error" || turns[0].Error == "" {
		t.Errorf("Recent()[0] = %+v, want error status with message", turns[0])
	}
	if turns[1].Reply != "hi there" {
		t.Errorf("Recent()[1].Reply = %q, want %q", turns[1].Reply, "hi there")
	}
}

func TestBySessionOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"turn_1", "turn_2", "turn_3"} {
		s.Record(Turn{
			ID:        id,
			SessionID: "sess-9",
			Platform:  "claude",
			Prompt:    "p",
			Status:    "ok",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	s.Record(Turn{ID: "turn_other", SessionID: "sess-other", Platform: "claude", Status: "ok", CreatedAt: base})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = s.Close() }()

	turns, err := s.BySession(context.Background(), "sess-9", 10)
	if err != nil {
		t.Fatalf("BySession() error: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("BySession() returned %d turns, want 3", len(turns))
	}
	for i, want := range []string{"turn_1", "turn_2", "turn_3"} {
		if turns[i].ID != want {
			t.Errorf("BySession()[%d].ID = %q, want %q (oldest first)", i, turns[i].ID, want)
		}
	}
}

func TestRecordFillsCreatedAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	s.Record(Turn{ID: "turn_ts", Platform: "gemini", Status: "ok"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = s.Close() }()

	turns, err := s.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("Recent() returned %d turns, want 1", len(turns))
	}
	if turns[0].CreatedAt.IsZero() {
		t.Error("CreatedAt was not defaulted on record")
	}
}
