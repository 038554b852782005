// Package watcher observes watched folders through OS file notifications and
// feeds detection events into the engine's intake queue. Each watched folder
// runs its own watcher goroutine; losing the underlying OS watch degrades that
// folder and triggers a re-establish loop with exponential backoff rather than
// failing any file.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"curator/internal/backoff"
	"curator/internal/config"
	"curator/internal/logging"
)

// Event is one detected file. Immutable once emitted, consumed exactly once.
type Event struct {
	WatchID    string
	SourcePath string
	DetectedAt time.Time
	SizeBytes  int64
}

// State of one watched folder.
type State string

const (
	StateActive   State = "active"
	StateDegraded State = "degraded"
	StateStopped  State = "stopped"
)

// Status is a point-in-time view of one watcher for status reporting.
type Status struct {
	WatchID    string `json:"watch_id"`
	Path       string `json:"path"`
	Recursive  bool   `json:"recursive"`
	State      State  `json:"state"`
	LastError  string `json:"last_error,omitempty"`
	EventsSeen uint64 `json:"events_seen"`
}

// eventBurst bounds how many detections a watcher may emit back-to-back
// before the rate limiter spaces them out. Keeps a bulk drop of thousands of
// files from monopolizing the intake queue.
const (
	eventsPerSecond = 200
	eventBurst      = 50
)

// Watcher monitors one folder.
type Watcher struct {
	watch     config.Watch
	path      string
	events    chan<- Event
	limiter   *rate.Limiter
	retryBase time.Duration
	retryCap  time.Duration
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	lastErr    string
	eventsSeen uint64
}

// New builds a watcher for one folder. path is the already-resolved absolute
// location; events is the shared intake queue, and sends block when it is
// full.
func New(watch config.Watch, path string, events chan<- Event, engine config.Engine, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		watch:     watch,
		path:      path,
		events:    events,
		limiter:   rate.NewLimiter(rate.Limit(eventsPerSecond), eventBurst),
		retryBase: engine.WatchRetryBaseDuration(),
		retryCap:  engine.WatchRetryCapDuration(),
		logger:    logging.WithComponent(logger, "watcher"),
	}
}

// Status returns the watcher's current state.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		WatchID:    w.watch.ID,
		Path:       w.path,
		Recursive:  w.watch.Recursive,
		State:      w.state,
		LastError:  w.lastErr,
		EventsSeen: w.eventsSeen,
	}
}

func (w *Watcher) setState(state State, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	if err != nil {
		w.lastErr = err.Error()
	} else {
		w.lastErr = ""
	}
}

// Run watches until ctx is done. A lost or unobtainable OS watch is never a
// per-file failure: the watcher logs, waits out a backoff, and re-establishes
// the watch from scratch including a full rescan.
func (w *Watcher) Run(ctx context.Context) {
	defer w.setState(StateStopped, nil)
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		established, err := w.session(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		if established {
			// The watch worked for a while; start the backoff over.
			attempt = 0
		}
		attempt++
		delay := backoff.Delay(attempt, w.retryBase, w.retryCap)
		w.setState(StateDegraded, err)
		w.logger.Warn("watch lost; re-establishing",
			logging.String(logging.FieldEventType, "watch_degraded"),
			logging.String(logging.FieldWatchID, w.watch.ID),
			logging.String("path", w.path),
			logging.Int("attempt", attempt),
			logging.Duration("retry_in", delay),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// session establishes one OS watch and consumes its events until it breaks.
// Returns a nil error only on context cancellation; established reports
// whether the watch ever became active.
func (w *Watcher) session(ctx context.Context) (established bool, err error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}
	defer fsw.Close()

	if err := w.addTree(fsw); err != nil {
		return false, err
	}
	w.setState(StateActive, nil)
	w.logger.Info("watch established",
		logging.String(logging.FieldEventType, "watch_active"),
		logging.String(logging.FieldWatchID, w.watch.ID),
		logging.String("path", w.path),
		logging.Bool("recursive", w.watch.Recursive),
	)

	// Files that predate the watch still deserve organizing.
	if err := w.scan(ctx); err != nil {
		return true, err
	}

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return true, fsnotify.ErrClosed
			}
			if err := w.handle(ctx, fsw, ev); err != nil {
				return true, err
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return true, fsnotify.ErrClosed
			}
			if err != nil {
				return true, err
			}
		}
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher) error {
	if err := fsw.Add(w.path); err != nil {
		return err
	}
	if !w.watch.Recursive {
		return nil
	}
	return filepath.WalkDir(w.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: watch what we can.
			return nil
		}
		if d.IsDir() && path != w.path {
			if err := fsw.Add(path); err != nil {
				w.logger.Warn("cannot watch subdirectory",
					logging.String(logging.FieldEventType, "watch_subdir_failed"),
					logging.String("path", path),
					logging.Error(err),
				)
			}
		}
		return nil
	})
}

// scan emits events for files already present under the watch root.
func (w *Watcher) scan(ctx context.Context) error {
	return filepath.WalkDir(w.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != w.path && !w.watch.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return w.emit(ctx, path)
	})
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) error {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return nil
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		// Renamed away or already gone; nothing to organize.
		return nil
	}
	if info.IsDir() {
		if w.watch.Recursive && ev.Has(fsnotify.Create) {
			if err := fsw.Add(ev.Name); err != nil {
				w.logger.Warn("cannot watch new subdirectory",
					logging.String(logging.FieldEventType, "watch_subdir_failed"),
					logging.String("path", ev.Name),
					logging.Error(err),
				)
			}
		}
		return nil
	}
	if !w.watch.Recursive && filepath.Dir(ev.Name) != w.path {
		return nil
	}
	return w.emit(ctx, ev.Name)
}

func (w *Watcher) emit(ctx context.Context, path string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	event := Event{
		WatchID:    w.watch.ID,
		SourcePath: path,
		DetectedAt: time.Now(),
		SizeBytes:  size,
	}
	select {
	case <-ctx.Done():
		return nil
	case w.events <- event:
		w.mu.Lock()
		w.eventsSeen++
		w.mu.Unlock()
	}
	return nil
}
