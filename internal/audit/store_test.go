package audit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/audit"
)

func openStore(t *testing.T) *audit.Store {
	t.Helper()
	store, err := audit.OpenPath(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entries := []audit.Entry{
		{OperationID: "op-1", SourcePath: "/watch/a.pdf", DestinationPath: "/org/Documents/a.pdf", Outcome: audit.OutcomeSucceeded, Attempt: 1},
		{OperationID: "op-2", SourcePath: "/watch/b.zip", Outcome: audit.OutcomeRetried, Reason: "share unreachable", Attempt: 1},
		{OperationID: "op-2", SourcePath: "/watch/b.zip", Outcome: audit.OutcomeFailed, Reason: "retry budget exhausted", Attempt: 5},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, audit.Query{Limit: 10})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Outcome != audit.OutcomeFailed || recent[0].Attempt != 5 {
		t.Fatalf("unexpected newest entry %+v", recent[0])
	}
	if recent[0].RecordedAt.IsZero() {
		t.Fatal("recorded timestamp must be set")
	}
}

func TestRecentFiltersByOutcome(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, outcome := range []audit.Outcome{audit.OutcomeSucceeded, audit.OutcomeFailed, audit.OutcomeSucceeded} {
		if err := store.Record(ctx, audit.Entry{OperationID: "op", SourcePath: "/watch/x", Outcome: outcome, Attempt: 1}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	succeeded, err := store.Recent(ctx, audit.Query{Outcome: audit.OutcomeSucceeded, Limit: 10})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(succeeded) != 2 {
		t.Fatalf("expected 2 succeeded entries, got %d", len(succeeded))
	}
}

func TestOperationHistoryOrdersOldestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for attempt := 1; attempt <= 3; attempt++ {
		outcome := audit.OutcomeRetried
		if attempt == 3 {
			outcome = audit.OutcomeSucceeded
		}
		if err := store.Record(ctx, audit.Entry{OperationID: "op-9", SourcePath: "/watch/a", Outcome: outcome, Attempt: attempt}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := store.Record(ctx, audit.Entry{OperationID: "other", SourcePath: "/watch/b", Outcome: audit.OutcomeSucceeded, Attempt: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}

	history, err := store.OperationHistory(ctx, "op-9")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(history))
	}
	for i, entry := range history {
		if entry.Attempt != i+1 {
			t.Fatalf("attempt order broken at %d: %+v", i, entry)
		}
	}
}

func TestPruneRemovesNothingRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, audit.Entry{OperationID: "op", SourcePath: "/watch/a", Outcome: audit.OutcomeSucceeded, Attempt: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	removed, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no entries pruned, got %d", removed)
	}
	removed, err = store.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 entry pruned, got %d", removed)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")
	store, err := audit.OpenPath(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Record(context.Background(), audit.Entry{OperationID: "op", SourcePath: "/a", Outcome: audit.OutcomeSucceeded, Attempt: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	store.Close()

	reopened, err := audit.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.Recent(context.Background(), audit.Query{Limit: 10})
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected persisted entry to survive reopen, got %d", len(entries))
	}
}
