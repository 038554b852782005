package ipc_test

import (
	"context"
	"path/filepath"
	"testing"

	"curator/internal/daemon"
	"curator/internal/ipc"
	"curator/internal/logging"
	"curator/internal/testsupport"
)

type harness struct {
	daemon *daemon.Daemon
	client *ipc.Client
	socket string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	d, err := daemon.New(&cfg, filepath.Join(cfg.Paths.StateDir, "config.toml"), store, logging.NewNop())
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		d.Stop()
	})

	socket := filepath.Join(cfg.Paths.StateDir, "curatord.sock")
	server, err := ipc.NewServer(ctx, socket, d, func() {}, logging.NewNop())
	if err != nil {
		t.Fatalf("build ipc server: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return &harness{daemon: d, client: client, socket: socket}
}

func TestStatusRoundTrip(t *testing.T) {
	h := newHarness(t)

	status, err := h.client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Running {
		t.Fatal("daemon must report running")
	}
	if status.Workers != 2 {
		t.Fatalf("unexpected worker count %d", status.Workers)
	}
	if len(status.Watches) != 1 || status.Watches[0].WatchID != "watch-1" {
		t.Fatalf("unexpected watches %+v", status.Watches)
	}
	if status.PID <= 0 {
		t.Fatal("status must carry the daemon pid")
	}
}

func TestRoutesRoundTrip(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	if len(resp.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(resp.Routes))
	}
	if resp.Routes[0].Category != "Documents" {
		t.Fatalf("unexpected first route %+v", resp.Routes[0])
	}
	if resp.DefaultCategory != "Other" {
		t.Fatalf("unexpected default category %q", resp.DefaultCategory)
	}
}

func TestPathTestRoundTrip(t *testing.T) {
	h := newHarness(t)

	dir := t.TempDir()
	resp, err := h.client.PathTest(dir)
	if err != nil {
		t.Fatalf("path test: %v", err)
	}
	if !resp.Report.Exists || !resp.Report.Writable {
		t.Fatalf("expected existing writable dir, got %+v", resp.Report)
	}

	if _, err := h.client.PathTest("not/absolute"); err == nil {
		t.Fatal("expected error for invalid path format")
	}
}

func TestAuditListEmpty(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.AuditList(ipc.AuditListRequest{Limit: 10})
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("expected empty audit log, got %d entries", len(resp.Entries))
	}
}

func TestStopInvokesCallback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.OpenStore(t, cfg)

	d, err := daemon.New(&cfg, "", store, logging.NewNop())
	if err != nil {
		t.Fatalf("build daemon: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	defer d.Stop()

	stopped := make(chan struct{})
	socket := filepath.Join(cfg.Paths.StateDir, "curatord.sock")
	server, err := ipc.NewServer(ctx, socket, d, func() { close(stopped) }, logging.NewNop())
	if err != nil {
		t.Fatalf("build ipc server: %v", err)
	}
	server.Serve()
	defer server.Close()

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stop acknowledgement")
	}
	select {
	case <-stopped:
	default:
		t.Fatal("stop callback was not invoked")
	}
}

func TestTargetTestUnknownName(t *testing.T) {
	h := newHarness(t)
	if _, err := h.client.TargetTest("nonexistent"); err == nil {
		t.Fatal("expected error for unknown target")
	}
}
