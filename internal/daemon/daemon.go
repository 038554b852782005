// Package daemon coordinates the organization engine, enforces
// single-instance execution, and answers control-plane queries from the IPC
// layer.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"curator/internal/audit"
	"curator/internal/config"
	"curator/internal/engine"
	"curator/internal/logging"
	"curator/internal/nettest"
	"curator/internal/pathresolve"
	"curator/internal/routes"
	"curator/internal/watcher"
)

// Daemon owns the engine lifecycle.
type Daemon struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	store      *audit.Store
	engine     *engine.Engine
	logPath    string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	AuditDBPath string
	LockPath    string
	ConfigPath  string
	Engine      engine.Status
}

// New constructs a daemon with initialized dependencies. configPath is kept
// so reload re-reads the same file the daemon started from.
func New(cfg *config.Config, configPath string, store *audit.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and audit store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	eng, err := engine.New(cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "curatord.lock")
	return &Daemon{
		cfg:        cfg,
		configPath: configPath,
		logger:     logging.WithComponent(logger, "daemon"),
		store:      store,
		engine:     eng,
		logPath:    filepath.Join(cfg.Paths.LogDir, "curator.log"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and launches the engine.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another curator daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start engine: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop tears down the engine and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.engine.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the engine is active.
func (d *Daemon) Running() bool { return d.running.Load() }

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string { return d.logPath }

// Status aggregates daemon and engine state.
func (d *Daemon) Status() Status {
	return Status{
		Running:     d.running.Load(),
		PID:         os.Getpid(),
		AuditDBPath: d.store.Path(),
		LockPath:    d.lockPath,
		ConfigPath:  d.configPath,
		Engine:      d.engine.Status(),
	}
}

// Reload re-reads the configuration file and swaps the routing snapshot.
// Structural settings (watches, worker count, queue size) need a restart; the
// returned message says what applied.
func (d *Daemon) Reload() (string, error) {
	cfg, path, existed, err := config.Load(d.configPath)
	if err != nil {
		return "", fmt.Errorf("reload config: %w", err)
	}
	if !existed {
		return "", fmt.Errorf("config file %s no longer exists", path)
	}
	d.engine.Reload(cfg)
	d.cfg.Routes = cfg.Routes
	d.cfg.Routing = cfg.Routing
	d.cfg.Duplicates = cfg.Duplicates
	return fmt.Sprintf("routes, default category, and duplicate policy reloaded from %s; watch and worker changes need a restart", path), nil
}

// AuditRecent lists recent audit entries.
func (d *Daemon) AuditRecent(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	return d.store.Recent(ctx, q)
}

// AuditHistory lists every entry recorded for one operation, oldest first.
func (d *Daemon) AuditHistory(ctx context.Context, operationID string) ([]audit.Entry, error) {
	return d.store.OperationHistory(ctx, operationID)
}

// AuditPrune removes audit entries older than the configured retention.
func (d *Daemon) AuditPrune(ctx context.Context) (int64, error) {
	return d.store.Prune(ctx, d.cfg.Logging.Retention())
}

// Routes returns the active routing snapshot.
func (d *Daemon) Routes() ([]routes.Route, string) {
	return d.engine.RouteList()
}

// Watches returns per-folder watcher status.
func (d *Daemon) Watches() []watcher.Status {
	return d.engine.Status().Watches
}

// TestPath probes a path or template without side effects.
func (d *Daemon) TestPath(path string) (pathresolve.Report, error) {
	return d.engine.TestPath(path)
}

// TestTarget probes a configured network target.
func (d *Daemon) TestTarget(ctx context.Context, name string) (nettest.Report, error) {
	return d.engine.TestTarget(ctx, name)
}
