package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := openStore(t)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	start := time.Date(2026, time.February, 14, 20, 0, 0, 0, time.UTC)

	if err := store.StartSession(ctx, Session{ID: "s1", StoryTitle: "Carinho OS", StartTS: start}); err != nil {
		t.Fatalf("start session: %v", err)
	}
	for i, line := range []string{"ls", "ls", "cat .love_virus.log"} {
		if err := store.RecordCommand(ctx, Command{SessionID: "s1", Seq: i + 1, Line: line, Mode: "interactive", TS: start.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("record command: %v", err)
		}
	}
	if err := store.RecordDecision(ctx, "s1", false, start.Add(5*time.Second)); err != nil {
		t.Fatalf("record decision: %v", err)
	}
	if err := store.RecordDecision(ctx, "s1", true, start.Add(9*time.Second)); err != nil {
		t.Fatalf("record second decision: %v", err)
	}
	finale := start.Add(time.Minute)
	if err := store.MarkFinale(ctx, "s1", finale); err != nil {
		t.Fatalf("mark finale: %v", err)
	}
	if err := store.MarkFinale(ctx, "s1", finale.Add(time.Hour)); err != nil {
		t.Fatalf("mark finale again: %v", err)
	}

	sessions, err := store.RecentSessions(ctx, 5)
	if err != nil {
		t.Fatalf("recent sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.ID != "s1" || got.StoryTitle != "Carinho OS" || got.Mode != "tui" {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.Commands != 3 || got.Decision != DecisionYes {
		t.Fatalf("expected 3 commands and a yes decision, got %+v", got)
	}
	if !got.Reached() || !got.FinaleTS.Equal(finale) || !got.StartTS.Equal(start) {
		t.Fatalf("unexpected timestamps %+v", got)
	}
}

func TestStartSessionRequiresID(t *testing.T) {
	store := openStore(t)
	if err := store.StartSession(context.Background(), Session{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSummaryAndRecentOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := store.StartSession(ctx, Session{ID: id, Mode: "play", StartTS: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}
	_ = store.RecordCommand(ctx, Command{SessionID: "a", Seq: 1, Line: "ls"})
	_ = store.RecordCommand(ctx, Command{SessionID: "b", Seq: 1, Line: "ls"})
	_ = store.RecordCommand(ctx, Command{SessionID: "b", Seq: 2, Line: "clear"})
	_ = store.RecordDecision(ctx, "a", true, time.Time{})
	_ = store.RecordDecision(ctx, "b", false, time.Time{})
	_ = store.MarkFinale(ctx, "b", time.Time{})

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := Summary{Sessions: 3, Commands: 3, Finales: 1, Accepted: 1, Resisted: 1, Undecided: 1}
	if sum != want {
		t.Fatalf("unexpected summary %+v", sum)
	}

	recent, err := store.RecentSessions(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("unexpected order %+v", recent)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.SaveSettings(ctx, map[string]string{"last_theme": "valentine", " ": "skip"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"last_theme": "matrix"}); err != nil {
		t.Fatalf("overwrite settings: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if len(got) != 1 || got["last_theme"] != "matrix" {
		t.Fatalf("unexpected settings %v", got)
	}
}

func TestEmptySummary(t *testing.T) {
	store := openStore(t)
	sum, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum != (Summary{}) {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}
