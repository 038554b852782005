package engine

import (
	"context"
	"fmt"
	"time"

	"curator/internal/health"
	"curator/internal/nettest"
	"curator/internal/pathresolve"
	"curator/internal/routes"
	"curator/internal/watcher"
)

// Status is a point-in-time view of the engine for the CLI and dashboard.
type Status struct {
	Running       bool             `json:"running"`
	StartedAt     time.Time        `json:"started_at"`
	Workers       int              `json:"workers"`
	Throttled     bool             `json:"throttled"`
	QueueDepth    int              `json:"queue_depth"`
	QueueCapacity int              `json:"queue_capacity"`
	States        map[string]int   `json:"states"`
	IndexedHashes int              `json:"indexed_hashes"`
	Health        health.Sample    `json:"health"`
	Watches       []watcher.Status `json:"watches"`
}

// Status reports the engine's current shape. Counts for terminal states are
// cumulative since start; counts for in-flight states are instantaneous.
func (e *Engine) Status() Status {
	status := Status{
		Running:       e.started.Load(),
		StartedAt:     e.startedAt,
		Workers:       e.cfg.Engine.Workers,
		Throttled:     e.healthGate.Throttled(),
		QueueDepth:    len(e.events),
		QueueCapacity: cap(e.events),
		States:        make(map[string]int),
		IndexedHashes: e.index.Len(),
		Health:        e.healthGate.Snapshot(),
	}
	e.countsMu.Lock()
	for state, count := range e.counts {
		status.States[string(state)] = count
	}
	e.countsMu.Unlock()
	for _, w := range e.watchers {
		status.Watches = append(status.Watches, w.Status())
	}
	return status
}

// RouteList returns the active routing snapshot for display.
func (e *Engine) RouteList() ([]routes.Route, string) {
	snap := e.snap.Load()
	return snap.table.Routes(), snap.table.DefaultCategory()
}

// TestPath runs a side-effect-free probe of a path or template.
func (e *Engine) TestPath(path string) (pathresolve.Report, error) {
	return e.resolver.Probe(path)
}

// TestTarget probes a configured network target by name.
func (e *Engine) TestTarget(ctx context.Context, name string) (nettest.Report, error) {
	target, ok := e.cfg.TargetByName(name)
	if !ok {
		return nettest.Report{}, fmt.Errorf("unknown target %q", name)
	}
	prober := nettest.New(e.resolver, e.cfg.Engine.NetworkTimeoutDuration())
	return prober.Probe(ctx, target.Name, target.Path)
}
