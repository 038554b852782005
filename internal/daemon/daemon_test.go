package daemon_test

import (
	"context"
	"testing"

	"curator/internal/daemon"
	"curator/internal/logging"
	"curator/internal/testsupport"
)

func TestStartStopLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	d, err := daemon.New(&cfg, "", store, logging.NewNop())
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon must report running")
	}
	status := d.Status()
	if !status.Running || status.PID <= 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Engine.Workers != 2 {
		t.Fatalf("unexpected engine workers %d", status.Engine.Workers)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon must stop")
	}
	// A stopped daemon can be restarted.
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	d.Stop()
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	first, err := daemon.New(&cfg, "", store, logging.NewNop())
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(&cfg, "", store, logging.NewNop())
	if err != nil {
		t.Fatalf("build second daemon: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance must be rejected by the lock")
	}
}

func TestStartFailsOnBadWatchPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watches[0].Path = "relative/watch"
	store := testsupport.OpenStore(t, cfg)

	if _, err := daemon.New(&cfg, "", store, logging.NewNop()); err == nil {
		t.Fatal("expected constructor failure for unresolvable watch path")
	}
}
