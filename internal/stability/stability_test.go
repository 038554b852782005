package stability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/logging"
	"curator/internal/stability"
)

func newGate(t *testing.T) *stability.Gate {
	t.Helper()
	return stability.NewGate(10*time.Millisecond, 3, nil, logging.NewNop())
}

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestAssessIgnoresInProgressExtensions(t *testing.T) {
	dir := t.TempDir()
	gate := newGate(t)
	for _, name := range []string{"movie.mp4.crdownload", "iso.part", "scratch.TMP"} {
		path := writeFile(t, dir, name, 64)
		status, err := gate.Assess(context.Background(), path)
		if err != nil {
			t.Fatalf("assess %s: %v", name, err)
		}
		if status != stability.StatusIgnored {
			t.Fatalf("expected %s ignored, got %s", name, status)
		}
	}
}

func TestAssessStableFile(t *testing.T) {
	dir := t.TempDir()
	gate := newGate(t)
	path := writeFile(t, dir, "report.pdf", 1024)

	status, err := gate.Assess(context.Background(), path)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if status != stability.StatusStable {
		t.Fatalf("expected stable, got %s", status)
	}
}

func TestAssessZeroByteFileIsStable(t *testing.T) {
	dir := t.TempDir()
	gate := newGate(t)
	path := writeFile(t, dir, "empty.txt", 0)

	status, err := gate.Assess(context.Background(), path)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if status != stability.StatusStable {
		t.Fatalf("expected zero-byte file stable, got %s", status)
	}
}

func TestAssessGrowingFileIsPending(t *testing.T) {
	dir := t.TempDir()
	gate := stability.NewGate(50*time.Millisecond, 3, nil, logging.NewNop())
	path := writeFile(t, dir, "download.zip", 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(20 * time.Millisecond)
		os.WriteFile(path, make([]byte, 500), 0o644)
	}()

	status, err := gate.Assess(context.Background(), path)
	<-done
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if status != stability.StatusPending {
		t.Fatalf("expected growing file pending, got %s", status)
	}
}

func TestAssessMissingFileIsIgnored(t *testing.T) {
	gate := newGate(t)
	status, err := gate.Assess(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if status != stability.StatusIgnored {
		t.Fatalf("expected vanished file ignored, got %s", status)
	}
}

func TestAssessDirectoryIsIgnored(t *testing.T) {
	gate := newGate(t)
	status, err := gate.Assess(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if status != stability.StatusIgnored {
		t.Fatalf("expected directory ignored, got %s", status)
	}
}

func TestAwaitSettles(t *testing.T) {
	dir := t.TempDir()
	gate := newGate(t)
	path := writeFile(t, dir, "report.pdf", 128)

	status, err := gate.Await(context.Background(), path)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if status != stability.StatusStable {
		t.Fatalf("expected stable, got %s", status)
	}
}

func TestAwaitUnreadablePathPollsOverTime(t *testing.T) {
	dir := t.TempDir()
	blocker := writeFile(t, dir, "blocker", 8)
	settle := 50 * time.Millisecond
	gate := stability.NewGate(settle, 3, nil, logging.NewNop())

	// Statting through a regular file fails with something other than
	// not-exist, which must pace like any pending verdict.
	start := time.Now()
	status, err := gate.Await(context.Background(), filepath.Join(blocker, "child.pdf"))
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if status != stability.StatusIgnored {
		t.Fatalf("expected unreadable path given up as ignored, got %s", status)
	}
	if elapsed := time.Since(start); elapsed < 3*settle {
		t.Fatalf("attempt budget consumed in %v, faster than the settle pacing allows", elapsed)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	dir := t.TempDir()
	gate := stability.NewGate(time.Second, 10, nil, logging.NewNop())
	path := writeFile(t, dir, "report.pdf", 128)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gate.Await(ctx, path); err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestExtraIgnoredExtensions(t *testing.T) {
	dir := t.TempDir()
	gate := stability.NewGate(10*time.Millisecond, 3, []string{"partial"}, logging.NewNop())
	path := writeFile(t, dir, "video.partial", 32)

	status, err := gate.Assess(context.Background(), path)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if status != stability.StatusIgnored {
		t.Fatalf("expected extra extension ignored, got %s", status)
	}
}
