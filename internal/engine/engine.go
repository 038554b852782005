// Package engine wires the watch, stabilize, classify, resolve, dedup, move,
// and audit stages into a worker pool with bounded intake and per-path
// serialization. It owns the move operation state machine and the retry
// scheduler.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"curator/internal/audit"
	"curator/internal/config"
	"curator/internal/dedup"
	"curator/internal/health"
	"curator/internal/logging"
	"curator/internal/mover"
	"curator/internal/pathresolve"
	"curator/internal/routes"
	"curator/internal/stability"
	"curator/internal/watcher"
)

// snapshot is the routing state workers read. Reload publishes a new snapshot
// atomically; in-flight operations finish against the one they started with.
type snapshot struct {
	table      *routes.Table
	duplicates config.Duplicates
}

// Engine runs the organization pipeline.
type Engine struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *audit.Store
	gate       *stability.Gate
	resolver   *pathresolve.Resolver
	index      *dedup.Index
	mover      *mover.Mover
	healthGate *health.Gate

	snap atomic.Pointer[snapshot]

	events   chan watcher.Event
	watchers []*watcher.Watcher

	// retries carries operations whose backoff expired back to the pool;
	// waiting holds the ones still on a timer. Workers never sleep out a
	// backoff themselves.
	retries chan *pendingRetry
	retryMu sync.Mutex
	waiting map[string]*pendingRetry

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	countsMu sync.Mutex
	counts   map[OpState]int

	started   atomic.Bool
	startedAt time.Time
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

// New assembles an engine from validated configuration. Watch paths are
// resolved here; a watch whose path cannot be resolved is a configuration
// error and fails construction rather than silently dropping the folder.
func New(cfg *config.Config, store *audit.Store, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	engineLogger := logging.WithComponent(logger, "engine")

	resolver := pathresolve.New(pathresolve.WithCollisionLimit(cfg.Engine.CollisionLimit))
	e := &Engine{
		cfg:        cfg,
		logger:     engineLogger,
		store:      store,
		resolver:   resolver,
		index:      dedup.NewIndex(),
		gate:       stability.NewGate(cfg.Engine.SettleDuration(), cfg.Engine.StabilityAttempts, nil, engineLogger),
		mover:      mover.New(cfg.Engine.NetworkTimeoutDuration(), logger),
		healthGate: health.NewGate(cfg.Health, logger),
		events:     make(chan watcher.Event, cfg.Engine.QueueSize),
		retries:    make(chan *pendingRetry, cfg.Engine.QueueSize),
		waiting:    make(map[string]*pendingRetry),
		inflight:   make(map[string]struct{}),
		counts:     make(map[OpState]int),
	}
	e.snap.Store(&snapshot{
		table:      routes.NewTable(cfg, engineLogger),
		duplicates: cfg.Duplicates,
	})

	for _, w := range cfg.EnabledWatches() {
		resolved, _, err := resolver.ResolveRoot(w.Path)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", w.ID, err)
		}
		e.watchers = append(e.watchers, watcher.New(w, resolved, e.events, cfg.Engine, logger))
	}
	return e, nil
}

// Start launches watchers, workers, and the health sampler. It returns once
// everything is running; Stop tears it down.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("engine already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.startedAt = time.Now()

	if e.cfg.Duplicates.Rehydrate {
		table := e.snap.Load().table
		added, err := e.index.Rehydrate(runCtx, e.rehydrateRoots(table), e.logger)
		if err != nil {
			e.logger.Warn("duplicate index rehydration incomplete",
				logging.String(logging.FieldEventType, "rehydrate_incomplete"),
				logging.Error(err),
			)
		}
		e.logger.Info("duplicate index rehydrated",
			logging.String(logging.FieldEventType, "rehydrate_done"),
			logging.Int("payloads", added),
		)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.healthGate.Run(runCtx)
	}()

	for _, w := range e.watchers {
		w := w
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			w.Run(runCtx)
		}()
	}

	workers := e.cfg.Engine.Workers
	for i := 0; i < workers; i++ {
		id := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.worker(runCtx, id)
		}()
	}

	e.logger.Info("engine started",
		logging.String(logging.FieldEventType, "engine_started"),
		logging.Int("workers", workers),
		logging.Int("watches", len(e.watchers)),
		logging.Int("queue_capacity", cap(e.events)),
	)
	return nil
}

// Stop cancels the run context and waits for workers to drain. Operations
// caught mid-flight or awaiting a retry record an Interrupted audit entry on
// the way out.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.drainRetries()
	e.started.Store(false)
	e.logger.Info("engine stopped", logging.String(logging.FieldEventType, "engine_stopped"))
}

// Reload publishes a new routing snapshot. Route, default-category, and
// duplicate-policy changes take effect for operations dequeued after the
// swap; watch folders and pool sizing are fixed for the life of the process.
func (e *Engine) Reload(cfg *config.Config) {
	e.snap.Store(&snapshot{
		table:      routes.NewTable(cfg, e.logger),
		duplicates: cfg.Duplicates,
	})
	e.logger.Info("routing snapshot reloaded",
		logging.String(logging.FieldEventType, "routes_reloaded"),
		logging.Int("routes", len(cfg.Routes)),
	)
}

// rehydrateRoots expands destination templates into walkable roots, skipping
// ones that fail expansion; they will fail per-operation too, with auditing.
func (e *Engine) rehydrateRoots(table *routes.Table) []string {
	var roots []string
	for _, tmpl := range table.Destinations() {
		root, _, err := e.resolver.ResolveRoot(tmpl)
		if err != nil {
			continue
		}
		roots = append(roots, root)
	}
	return roots
}

func (e *Engine) tryAcquire(path string) bool {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	if _, busy := e.inflight[path]; busy {
		return false
	}
	e.inflight[path] = struct{}{}
	return true
}

func (e *Engine) release(path string) {
	e.inflightMu.Lock()
	defer e.inflightMu.Unlock()
	delete(e.inflight, path)
}

func (e *Engine) noteState(prev, next OpState) {
	e.countsMu.Lock()
	defer e.countsMu.Unlock()
	if prev != "" {
		e.counts[prev]--
		if e.counts[prev] <= 0 {
			delete(e.counts, prev)
		}
	}
	if next != "" {
		e.counts[next]++
	}
}

func (e *Engine) setOpState(op *Operation, next OpState) {
	e.noteState(op.State, next)
	op.transition(next)
}
