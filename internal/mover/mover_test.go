package mover_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"curator/internal/errclass"
	"curator/internal/logging"
	"curator/internal/mover"
	"curator/internal/pathresolve"
)

func newMover(t *testing.T) *mover.Mover {
	t.Helper()
	return mover.New(time.Second, logging.NewNop())
}

func TestMoveSucceeds(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	dst := filepath.Join(dir, "Documents", "report.pdf")
	if err := os.WriteFile(src, []byte("content"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	m := newMover(t)
	if err := m.Move(context.Background(), src, dst, pathresolve.FormatUnixAbsolute); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source must be gone")
	}
}

func TestMoveLateCollisionIsTransient(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	dst := filepath.Join(dir, "taken.pdf")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("write occupant: %v", err)
	}

	m := newMover(t)
	err := m.Move(context.Background(), src, dst, pathresolve.FormatUnixAbsolute)
	if !errclass.IsTransient(err) {
		t.Fatalf("expected transient late-collision error, got %v", err)
	}
	// The occupant must be untouched.
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatal("existing destination must never be overwritten")
	}
}

func TestMoveMissingSourceIsPermanent(t *testing.T) {
	dir := t.TempDir()
	m := newMover(t)
	err := m.Move(context.Background(), filepath.Join(dir, "gone.pdf"), filepath.Join(dir, "dst.pdf"), pathresolve.FormatUnixAbsolute)
	if err == nil || !errclass.IsTerminal(err) {
		t.Fatalf("expected permanent error for vanished source, got %v", err)
	}
}

func TestClassification(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.pdf")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	readonly := filepath.Join(dir, "ro")
	if err := os.Mkdir(readonly, 0o555); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if os.Getuid() == 0 {
		t.Skip("permission checks do not bind for root")
	}

	m := newMover(t)
	err := m.Move(context.Background(), src, filepath.Join(readonly, "dst.pdf"), pathresolve.FormatUnixAbsolute)
	if err == nil {
		t.Fatal("expected failure writing into read-only directory")
	}
	if !errors.Is(err, errclass.ErrPermanent) {
		t.Fatalf("expected permission failure to be permanent, got %v", err)
	}
	if !errors.Is(err, syscall.EACCES) && !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected EACCES in chain, got %v", err)
	}
}
