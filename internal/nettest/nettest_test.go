package nettest_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"curator/internal/nettest"
	"curator/internal/pathresolve"
)

func TestProbeReachableDirectory(t *testing.T) {
	dir := t.TempDir()
	p := nettest.New(pathresolve.New(), time.Second)

	report, err := p.Probe(context.Background(), "scratch", dir)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !report.Reachable {
		t.Fatalf("expected reachable, got %+v", report)
	}
	if !report.Writable {
		t.Fatal("temp dir must be writable")
	}
	if report.TotalBytes == 0 || report.FreeBytes == 0 {
		t.Fatalf("expected filesystem capacity figures, got %+v", report)
	}
	if report.Format != "unix-absolute" {
		t.Fatalf("unexpected format %q", report.Format)
	}
}

func TestProbeMissingPath(t *testing.T) {
	p := nettest.New(pathresolve.New(), time.Second)
	report, err := p.Probe(context.Background(), "gone", filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if report.Reachable {
		t.Fatal("missing path must not be reachable")
	}
	if report.Error == "" {
		t.Fatal("unreachable report must carry the error text")
	}
}

func TestProbeInvalidTemplate(t *testing.T) {
	p := nettest.New(pathresolve.New(), time.Second)
	if _, err := p.Probe(context.Background(), "bad", "relative/target"); err == nil {
		t.Fatal("expected configuration error for relative target path")
	}
}
