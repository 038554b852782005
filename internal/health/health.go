// Package health samples the engine's own CPU and memory consumption and
// tells the worker pool when to shed concurrency. The engine must never
// monopolize the host it organizes files on.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/procfs"

	"curator/internal/config"
	"curator/internal/logging"
)

// Sample is one observation of process resource usage.
type Sample struct {
	SampledAt  time.Time `json:"sampled_at"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   int64     `json:"rss_bytes"`
	Throttled  bool      `json:"throttled"`
}

// Gate watches /proc for the current process and flips into a throttled state
// when usage crosses the configured thresholds. Safe for concurrent use.
type Gate struct {
	enabled    bool
	interval   time.Duration
	cpuLimit   float64
	memLimitMB int64
	logger     *slog.Logger
	readSample func() (cpuSeconds float64, rssBytes int64, err error)

	mu           sync.Mutex
	lastCPU      float64
	lastAt       time.Time
	current      Sample
	havePrevious bool
}

// NewGate builds a gate from configuration. A disabled gate never throttles.
func NewGate(cfg config.Health, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := cfg.SampleIntervalDuration()
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Gate{
		enabled:    cfg.Enabled,
		interval:   interval,
		cpuLimit:   cfg.CPUThresholdPct,
		memLimitMB: int64(cfg.MemoryThresholdMB),
		logger:     logging.WithComponent(logger, "health"),
		readSample: readProcSelf,
	}
}

func readProcSelf() (float64, int64, error) {
	proc, err := procfs.Self()
	if err != nil {
		return 0, 0, err
	}
	stat, err := proc.Stat()
	if err != nil {
		return 0, 0, err
	}
	return stat.CPUTime(), int64(stat.ResidentMemory()), nil
}

// Run samples until ctx is done. Sampling failures are logged and skipped; a
// gate that cannot read /proc simply never throttles.
func (g *Gate) Run(ctx context.Context) {
	if !g.enabled {
		return
	}
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	g.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sample()
		}
	}
}

func (g *Gate) sample() {
	cpuSeconds, rssBytes, err := g.readSample()
	if err != nil {
		g.logger.Warn("resource sample failed",
			logging.String(logging.FieldEventType, "health_sample_failed"),
			logging.Error(err),
		)
		return
	}
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	sample := Sample{SampledAt: now, RSSBytes: rssBytes}
	if g.havePrevious {
		elapsed := now.Sub(g.lastAt).Seconds()
		if elapsed > 0 {
			sample.CPUPercent = (cpuSeconds - g.lastCPU) / elapsed * 100
		}
	}
	g.lastCPU = cpuSeconds
	g.lastAt = now
	g.havePrevious = true

	overCPU := g.cpuLimit > 0 && sample.CPUPercent > g.cpuLimit
	overMem := g.memLimitMB > 0 && rssBytes > g.memLimitMB*1024*1024
	sample.Throttled = overCPU || overMem

	if sample.Throttled && !g.current.Throttled {
		g.logger.Warn("entering throttled state",
			logging.String(logging.FieldEventType, "health_throttle_on"),
			logging.Float64("cpu_percent", sample.CPUPercent),
			logging.Int64("rss_bytes", rssBytes),
		)
	} else if !sample.Throttled && g.current.Throttled {
		g.logger.Info("leaving throttled state",
			logging.String(logging.FieldEventType, "health_throttle_off"),
			logging.Float64("cpu_percent", sample.CPUPercent),
			logging.Int64("rss_bytes", rssBytes),
		)
	}
	g.current = sample
}

// Throttled reports whether workers should shed load right now.
func (g *Gate) Throttled() bool {
	if !g.enabled {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Throttled
}

// Snapshot returns the most recent sample.
func (g *Gate) Snapshot() Sample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
