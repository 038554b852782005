package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"curator/internal/ipc"
)

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	var resp ipc.StatusResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode status JSON: %v", err)
	}
	if !resp.Running {
		t.Fatal("daemon must report running")
	}
	if len(resp.Watches) != 1 || resp.Watches[0].WatchID != "watch-1" {
		t.Fatalf("unexpected watches %+v", resp.Watches)
	}
}

func TestStatusCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "watch-1")
}

func TestRoutesCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"routes"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	requireContains(t, out, "Documents")
	requireContains(t, out, "Archives")
}

func TestWatchesCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	// The watcher session is established asynchronously after start.
	deadline := time.Now().Add(5 * time.Second)
	for {
		out, _, err := runCLI(t, []string{"watches"}, env.socketPath, env.configPath)
		if err != nil {
			t.Fatalf("watches: %v", err)
		}
		requireContains(t, out, "watch-1")
		if strings.Contains(out, "active") {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher never became active:\n%s", out)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestAuditListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"audit", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	requireContains(t, out, "No audit entries")
}

func TestPathTestCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	dir := t.TempDir()
	out, _, err := runCLI(t, []string{"path", "test", dir, "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("path test: %v", err)
	}
	requireContains(t, out, `"exists": true`)
}

func TestStopCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopping")
}

func TestDialErrorMentionsSocket(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"status"}, env.socketPath+".missing", env.configPath)
	if err == nil {
		t.Fatal("expected dial failure for missing socket")
	}
	requireContains(t, err.Error(), "not found")
}
