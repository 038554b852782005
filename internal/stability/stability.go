// Package stability decides whether a detected file is a finished download.
// Browsers and download managers write through temporary extensions and grow
// files in place; the gate refuses to hand a file to the pipeline until its
// size stops moving.
package stability

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"curator/internal/logging"
	"curator/internal/routes"
)

// Status is the gate's verdict for one candidate file.
type Status int

const (
	// StatusPending means the file may still be in flight; check again.
	StatusPending Status = iota
	// StatusStable means the file is safe to process.
	StatusStable
	// StatusIgnored means the file must never be processed. Renaming an
	// ignored file to a finished name produces a new, separately observed
	// event, so dropping it here loses nothing.
	StatusIgnored
)

func (s Status) String() string {
	switch s {
	case StatusStable:
		return "stable"
	case StatusIgnored:
		return "ignored"
	default:
		return "pending"
	}
}

// Extensions that mark a download in progress.
var defaultIgnored = []string{"crdownload", "part", "tmp"}

// Gate samples candidate files for size stability. Safe for concurrent use.
type Gate struct {
	settle      time.Duration
	maxAttempts int
	ignored     map[string]struct{}
	logger      *slog.Logger
}

// NewGate builds a gate. settle is the pause between the two size samples of
// one assessment; maxAttempts bounds how many assessments Await performs
// before giving up on a file. extraIgnored extends the built-in in-progress
// extension set.
func NewGate(settle time.Duration, maxAttempts int, extraIgnored []string, logger *slog.Logger) *Gate {
	if settle <= 0 {
		settle = time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ignored := make(map[string]struct{}, len(defaultIgnored)+len(extraIgnored))
	for _, ext := range defaultIgnored {
		ignored[ext] = struct{}{}
	}
	for _, ext := range extraIgnored {
		ignored[ext] = struct{}{}
	}
	return &Gate{settle: settle, maxAttempts: maxAttempts, ignored: ignored, logger: logger}
}

// IgnoredExtension reports whether path carries an in-progress extension.
func (g *Gate) IgnoredExtension(path string) bool {
	_, ok := g.ignored[routes.Extension(path)]
	return ok
}

// Assess performs one stability check: an extension screen, then two size
// samples separated by the settle interval. Zero-byte files count as stable
// when their size holds. An unreadable file is pending, not an error.
func (g *Gate) Assess(ctx context.Context, path string) (Status, error) {
	if g.IgnoredExtension(path) {
		return StatusIgnored, nil
	}
	first, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StatusIgnored, nil
		}
		// Unreadable counts as pending, paced like any other pending verdict
		// so Await's attempt budget spans real time.
		if err := sleepCtx(ctx, g.settle); err != nil {
			return StatusPending, err
		}
		return StatusPending, nil
	}
	if first.IsDir() {
		return StatusIgnored, nil
	}
	if err := sleepCtx(ctx, g.settle); err != nil {
		return StatusPending, err
	}
	second, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StatusIgnored, nil
		}
		return StatusPending, nil
	}
	if second.Size() != first.Size() {
		return StatusPending, nil
	}
	if !g.openable(path) {
		return StatusPending, nil
	}
	return StatusStable, nil
}

// Await runs assessments until the file settles or the attempt budget runs
// out. A file still pending after the budget is treated as ignored; the
// watcher will re-observe it if it ever finishes.
func (g *Gate) Await(ctx context.Context, path string) (Status, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		status, err := g.Assess(ctx, path)
		if err != nil {
			return StatusPending, err
		}
		if status != StatusPending {
			return status, nil
		}
	}
	g.logger.Warn("file never settled within attempt budget",
		logging.String(logging.FieldEventType, "stability_exhausted"),
		logging.String(logging.FieldSourcePath, path),
		logging.Int("attempts", g.maxAttempts),
	)
	return StatusIgnored, nil
}

// openable approximates an exclusive-lock check: a file another process holds
// open for exclusive writing typically refuses a plain read open.
func (g *Gate) openable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
