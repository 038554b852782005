// Package mover performs the physical relocation of a file to its resolved
// destination and translates filesystem failures into the retry taxonomy.
package mover

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"curator/internal/errclass"
	"curator/internal/fileutil"
	"curator/internal/logging"
	"curator/internal/pathresolve"
)

// Mover executes single move attempts. Retry policy lives in the engine; the
// mover's job is one attempt, classified.
type Mover struct {
	networkTimeout time.Duration
	logger         *slog.Logger
}

// New builds a Mover. networkTimeout bounds each attempt against a network
// destination; local moves run unbounded since a hung local disk takes the
// whole process with it anyway.
func New(networkTimeout time.Duration, logger *slog.Logger) *Mover {
	if networkTimeout <= 0 {
		networkTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Mover{networkTimeout: networkTimeout, logger: logger}
}

// Move relocates src to dst. The destination was chosen by a collision probe
// that is not atomic with this call, so a name that has since been taken is
// reported as transient; the next attempt re-resolves and picks a new one.
func (m *Mover) Move(ctx context.Context, src, dst string, format pathresolve.Format) error {
	if _, err := os.Stat(dst); err == nil {
		return errclass.Wrap(errclass.ErrTransient, "mover", "move",
			fmt.Sprintf("destination %s appeared between probe and move", dst), nil)
	}

	network := format.IsNetwork()
	if !network {
		return classify("move", false, fileutil.MoveFile(src, dst))
	}

	attemptCtx, cancel := context.WithTimeout(ctx, m.networkTimeout)
	defer cancel()

	// The filesystem call cannot be interrupted; run it aside and abandon it
	// on timeout. The engine serializes per source path, so an abandoned
	// attempt cannot race a successor for the same file.
	done := make(chan error, 1)
	go func() {
		done <- fileutil.MoveFile(src, dst)
	}()
	select {
	case err := <-done:
		return classify("move", true, err)
	case <-attemptCtx.Done():
		m.logger.Warn("abandoning stuck network move attempt",
			logging.String(logging.FieldEventType, "move_timeout"),
			logging.String(logging.FieldSourcePath, src),
			logging.String("destination", dst),
			logging.Duration("timeout", m.networkTimeout),
		)
		return classify("move", true, attemptCtx.Err())
	}
}
