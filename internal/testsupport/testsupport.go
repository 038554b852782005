// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"curator/internal/audit"
	"curator/internal/config"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory, with one enabled watch and routes for pdf and zip files. Timings
// are shortened so pipeline tests finish quickly.
func NewConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	watchDir := filepath.Join(root, "watch")
	destDir := filepath.Join(root, "organized")
	for _, dir := range []string{watchDir, destDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Watches = []config.Watch{{ID: "watch-1", Path: watchDir, Enabled: true}}
	cfg.Routes = []config.Route{
		{Extensions: []string{"pdf"}, Category: "Documents", Destination: filepath.Join(destDir, "Documents")},
		{Extensions: []string{"zip"}, Category: "Archives", Destination: filepath.Join(destDir, "Archives")},
	}
	cfg.Engine.Workers = 2
	cfg.Engine.QueueSize = 32
	cfg.Engine.SettleInterval = 1
	cfg.Engine.StabilityAttempts = 3
	cfg.Engine.MaxAttempts = 2
	cfg.Engine.RetryBackoffBase = 1
	cfg.Engine.RetryBackoffCap = 2
	cfg.Engine.WatchRetryBase = 1
	cfg.Engine.WatchRetryCap = 2
	cfg.Health.Enabled = false
	return cfg
}

// WatchDir returns the watch folder NewConfig created.
func WatchDir(cfg config.Config) string {
	return cfg.Watches[0].Path
}

// DestDir returns the organized-files root NewConfig created.
func DestDir(cfg config.Config) string {
	return filepath.Dir(cfg.Routes[0].Destination)
}

// OpenStore opens an audit store in the config's state directory.
func OpenStore(t *testing.T, cfg config.Config) *audit.Store {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := audit.OpenPath(filepath.Join(cfg.Paths.StateDir, "audit.db"))
	if err != nil {
		t.Fatalf("open audit store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// WriteFile drops a file with content into dir and returns its path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
