package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/watcher"
)

func engineConfig() config.Engine {
	return config.Engine{WatchRetryBase: 1, WatchRetryCap: 5}
}

func collect(t *testing.T, events <-chan watcher.Event, want int, timeout time.Duration) []watcher.Event {
	t.Helper()
	var got []watcher.Event
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out with %d/%d events", len(got), want)
		}
	}
	return got
}

func TestInitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	events := make(chan watcher.Event, 16)
	w := watcher.New(config.Watch{ID: "watch-1", Enabled: true}, dir, events, engineConfig(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	got := collect(t, events, 1, 5*time.Second)
	if got[0].SourcePath != filepath.Join(dir, "existing.pdf") {
		t.Fatalf("unexpected event path %q", got[0].SourcePath)
	}
	if got[0].WatchID != "watch-1" {
		t.Fatalf("unexpected watch id %q", got[0].WatchID)
	}
}

func TestDetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	events := make(chan watcher.Event, 16)
	w := watcher.New(config.Watch{ID: "watch-1", Enabled: true}, dir, events, engineConfig(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watch a moment to establish before writing.
	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(dir, "incoming.zip")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := collect(t, events, 1, 5*time.Second)
	if got[0].SourcePath != path {
		t.Fatalf("unexpected event path %q", got[0].SourcePath)
	}
}

func TestRecursiveDetectsSubdirectoryFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	events := make(chan watcher.Event, 16)
	w := watcher.New(config.Watch{ID: "watch-1", Recursive: true, Enabled: true}, dir, events, engineConfig(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(sub, "deep.pdf")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := collect(t, events, 1, 5*time.Second)
	if got[0].SourcePath != path {
		t.Fatalf("unexpected event path %q", got[0].SourcePath)
	}
}

func TestNonRecursiveIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "deep.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	events := make(chan watcher.Event, 16)
	w := watcher.New(config.Watch{ID: "watch-1", Enabled: true}, dir, events, engineConfig(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	got := collect(t, events, 1, 5*time.Second)
	if got[0].SourcePath != filepath.Join(dir, "top.pdf") {
		t.Fatalf("unexpected event path %q", got[0].SourcePath)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected event from subdirectory: %q", ev.SourcePath)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDegradedWhenRootMissing(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent")

	events := make(chan watcher.Event, 1)
	w := watcher.New(config.Watch{ID: "watch-1", Enabled: true}, missing, events, engineConfig(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	deadline := time.After(5 * time.Second)
	for {
		status := w.Status()
		if status.State == watcher.StateDegraded {
			if status.LastError == "" {
				t.Fatal("degraded status must carry the error")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("watcher never degraded, state %q", status.State)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestStoppedAfterCancel(t *testing.T) {
	dir := t.TempDir()
	events := make(chan watcher.Event, 1)
	w := watcher.New(config.Watch{ID: "watch-1", Enabled: true}, dir, events, engineConfig(), logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
	if state := w.Status().State; state != watcher.StateStopped {
		t.Fatalf("expected stopped, got %q", state)
	}
}
