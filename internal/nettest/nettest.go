// Package nettest probes configured network targets: reachability, round-trip
// latency of a metadata operation, free space, and effective write access.
// Probes are side-effect free.
package nettest

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"curator/internal/pathresolve"
)

// Report is the outcome of probing one target.
type Report struct {
	Target     string  `json:"target"`
	Path       string  `json:"path"`
	Resolved   string  `json:"resolved,omitempty"`
	Format     string  `json:"format,omitempty"`
	Reachable  bool    `json:"reachable"`
	LatencyMS  float64 `json:"latency_ms"`
	FreeBytes  uint64  `json:"free_bytes"`
	TotalBytes uint64  `json:"total_bytes"`
	Writable   bool    `json:"writable"`
	Error      string  `json:"error,omitempty"`
}

// Prober runs target probes with a per-probe timeout.
type Prober struct {
	resolver *pathresolve.Resolver
	timeout  time.Duration
}

// New builds a Prober.
func New(resolver *pathresolve.Resolver, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Prober{resolver: resolver, timeout: timeout}
}

// Probe checks a single target path. A target that cannot be reached yields a
// Report with Reachable false and the error text, not a Go error; hard errors
// are reserved for invalid configuration.
func (p *Prober) Probe(ctx context.Context, name, path string) (Report, error) {
	report := Report{Target: name, Path: path}

	resolved, format, err := p.resolver.ResolveRoot(path)
	if err != nil {
		return report, err
	}
	report.Resolved = resolved
	report.Format = format.String()

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		report Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		r := report
		start := time.Now()
		_, statErr := os.Stat(resolved)
		r.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
		if statErr != nil {
			r.Error = statErr.Error()
			done <- result{report: r}
			return
		}
		r.Reachable = true

		var stat unix.Statfs_t
		if err := unix.Statfs(resolved, &stat); err == nil {
			r.FreeBytes = stat.Bavail * uint64(stat.Bsize)
			r.TotalBytes = stat.Blocks * uint64(stat.Bsize)
		}
		r.Writable = unix.Access(resolved, unix.W_OK) == nil
		done <- result{report: r}
	}()

	select {
	case res := <-done:
		return res.report, res.err
	case <-probeCtx.Done():
		report.Error = "probe timed out after " + p.timeout.String()
		return report, nil
	}
}
