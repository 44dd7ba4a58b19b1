package store

import (
	"context"
	"testing"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "sess-a", RoleUser, "how do I log in?"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if err := s.Append(ctx, "sess-a", RoleAssistant, "use your company email"); err != nil {
		t.Fatalf("append assistant: %v", err)
	}

	turns, err := s.Recent(ctx, "sess-a", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("want 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "how do I log in?" {
		t.Errorf("turn[0]: got %s/%s", turns[0].Role, turns[0].Content)
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "use your company email" {
		t.Errorf("turn[1]: got %s/%s", turns[1].Role, turns[1].Content)
	}
	if turns[0].SessionID != "sess-a" {
		t.Errorf("turn[0] session: got %q", turns[0].SessionID)
	}
}

func Test_Store_RecentLimitRespected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 6 {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if err := s.Append(ctx, "sess-b", role, "turn"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := s.Recent(ctx, "sess-b", 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(turns) != 4 {
		t.Errorf("want 4 turns, got %d", len(turns))
	}
}

func Test_Store_SessionIsolation(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, "sess-x", RoleUser, "from x"); err != nil {
		t.Fatalf("append x: %v", err)
	}
	if err := s.Append(ctx, "sess-y", RoleUser, "from y"); err != nil {
		t.Fatalf("append y: %v", err)
	}

	turnsX, err := s.Recent(ctx, "sess-x", 10)
	if err != nil {
		t.Fatalf("recent x: %v", err)
	}
	turnsY, err := s.Recent(ctx, "sess-y", 10)
	if err != nil {
		t.Fatalf("recent y: %v", err)
	}

	if len(turnsX) != 1 || turnsX[0].Content != "from x" {
		t.Errorf("session x isolation failed: got %v", turnsX)
	}
	if len(turnsY) != 1 || turnsY[0].Content != "from y" {
		t.Errorf("session y isolation failed: got %v", turnsY)
	}
}

func Test_Store_EmptySessionReturnsNil(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	turns, err := s.Recent(ctx, "sess-empty", 10)
	if err != nil {
		t.Fatalf("recent empty: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("want 0 turns, got %d", len(turns))
	}
}

func Test_Store_OldestFirstOrdering(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		if err := s.Append(ctx, "sess-order", RoleUser, c); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	turns, err := s.Recent(ctx, "sess-order", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	for i, want := range contents {
		if turns[i].Content != want {
			t.Errorf("turn[%d]: want %q, got %q", i, want, turns[i].Content)
		}
	}
}

func Test_Store_HistoryDBEnvOverride(t *testing.T) {
	t.Setenv("FAQBOT_HISTORY_DB", "/tmp/custom.db")
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != "/tmp/custom.db" {
		t.Errorf("path = %q, want env override", p)
	}
}
