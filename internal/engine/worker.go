package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"curator/internal/audit"
	"curator/internal/backoff"
	"curator/internal/dedup"
	"curator/internal/errclass"
	"curator/internal/logging"
	"curator/internal/pathresolve"
	"curator/internal/routes"
	"curator/internal/stability"
	"curator/internal/watcher"
)

// throttlePoll is how often a shed worker re-checks the health gate.
const throttlePoll = time.Second

func (e *Engine) worker(ctx context.Context, id int) {
	for {
		if err := e.awaitCapacity(ctx, id); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case p := <-e.retries:
			e.resume(ctx, p)
		case ev := <-e.events:
			e.dispatch(ctx, ev)
		}
	}
}

// awaitCapacity parks workers above the throttle floor while the health gate
// is tripped. The floor keeps the pipeline draining, just slowly.
func (e *Engine) awaitCapacity(ctx context.Context, id int) error {
	if id < e.cfg.Engine.ThrottleFloor {
		return nil
	}
	for e.healthGate.Throttled() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(throttlePoll):
		}
	}
	return nil
}

// dispatch screens an event and starts its operation with per-path
// exclusivity. The inflight token is held for the operation's whole life,
// backoff waits included, so follow-up detections of a path that is already
// being organized are dropped here.
func (e *Engine) dispatch(ctx context.Context, ev watcher.Event) {
	// In-progress download extensions never enter the state machine. The
	// rename to a finished filename arrives as its own event.
	if e.gate.IgnoredExtension(ev.SourcePath) {
		return
	}
	if !e.tryAcquire(ev.SourcePath) {
		return
	}

	op := &Operation{
		ID:        uuid.NewString(),
		Event:     ev,
		State:     StateDetected,
		StartedAt: time.Now(),
	}
	e.noteState("", StateDetected)
	if !e.process(ctx, op) {
		e.release(ev.SourcePath)
	}
}

// process drives an operation to a terminal outcome or to a scheduled retry.
// It returns true when the operation is parked on a retry timer; the inflight
// token stays held until the retry chain finishes.
func (e *Engine) process(ctx context.Context, op *Operation) bool {
	logger := e.logger.With(
		logging.String(logging.FieldOperationID, op.ID),
		logging.String(logging.FieldSourcePath, op.Event.SourcePath),
		logging.String(logging.FieldWatchID, op.Event.WatchID),
	)

	e.setOpState(op, StateStabilizing)
	status, err := e.gate.Await(ctx, op.Event.SourcePath)
	if err != nil {
		e.interrupt(op, logger)
		return false
	}
	if status != stability.StatusStable {
		// Never settled or vanished. Not silent: the skip is recorded.
		e.setOpState(op, StateFailed)
		e.record(op, audit.OutcomeSkipped, "", "file never stabilized")
		logger.Info("skipped unstable file", logging.String(logging.FieldEventType, "file_skipped"))
		return false
	}

	snap := e.snap.Load()
	decision, ok := snap.table.Classify(op.Event.SourcePath)
	if !ok {
		e.setOpState(op, StateFailed)
		e.record(op, audit.OutcomeFailed, "", "no matching route and no default category")
		logger.Warn("unclassified file",
			logging.String(logging.FieldEventType, "file_unclassified"),
			logging.String("extension", routes.Extension(op.Event.SourcePath)),
		)
		return false
	}
	op.Category = decision.Category
	e.setOpState(op, StateClassified)

	op.Attempts = 1
	return e.runAttempt(ctx, op, snap, decision.Destination, logger)
}

// runAttempt performs one resolve+dedup+move pass and decides what happens
// next: a terminal outcome, or a timer-scheduled retry that hands the worker
// back to the pool instead of parking it in the backoff. Each attempt
// re-resolves the destination so a late collision picks a fresh name.
func (e *Engine) runAttempt(ctx context.Context, op *Operation, snap *snapshot, destTemplate string, logger *slog.Logger) (parked bool) {
	done, err := e.attempt(ctx, op, snap, destTemplate, logger)
	if done {
		return false
	}
	if ctx.Err() != nil {
		e.interrupt(op, logger)
		return false
	}
	op.LastError = err.Error()
	if errclass.IsTerminal(err) {
		e.setOpState(op, StateFailed)
		e.record(op, audit.OutcomeFailed, op.Destination, err.Error())
		logger.Warn("operation failed",
			logging.String(logging.FieldEventType, "move_failed"),
			logging.Int("attempt", op.Attempts),
			logging.Error(err),
		)
		return false
	}
	if op.Attempts >= e.cfg.Engine.MaxAttempts {
		e.setOpState(op, StateFailed)
		e.record(op, audit.OutcomeFailed, op.Destination, fmt.Sprintf("retry budget exhausted: %s", err))
		logger.Warn("retry budget exhausted",
			logging.String(logging.FieldEventType, "move_failed"),
			logging.Int("attempts", op.Attempts),
			logging.Error(err),
		)
		return false
	}

	delay := backoff.Delay(op.Attempts, e.cfg.Engine.BackoffBaseDuration(), e.cfg.Engine.BackoffCapDuration())
	e.setOpState(op, StateAwaitingRetry)
	e.record(op, audit.OutcomeRetried, op.Destination, err.Error())
	logger.Info("retrying after transient failure",
		logging.String(logging.FieldEventType, "move_retry"),
		logging.Int("attempt", op.Attempts),
		logging.Duration("backoff", delay),
		logging.Error(err),
	)
	e.scheduleRetry(ctx, &pendingRetry{op: op, snap: snap, destTemplate: destTemplate, logger: logger}, delay)
	return true
}

// pendingRetry is an operation parked in AwaitingRetry. Its source path's
// inflight token stays held so a fresh detection cannot start a second
// operation while the timer runs.
type pendingRetry struct {
	op           *Operation
	snap         *snapshot
	destTemplate string
	logger       *slog.Logger
	timer        *time.Timer
}

func (e *Engine) scheduleRetry(ctx context.Context, p *pendingRetry, delay time.Duration) {
	e.retryMu.Lock()
	defer e.retryMu.Unlock()
	e.waiting[p.op.ID] = p
	p.timer = time.AfterFunc(delay, func() { e.fireRetry(ctx, p.op.ID) })
}

// fireRetry moves a parked operation onto the retry queue when its backoff
// expires. During shutdown the queue has no consumers, so the operation is
// recorded as interrupted instead.
func (e *Engine) fireRetry(ctx context.Context, id string) {
	e.retryMu.Lock()
	p, ok := e.waiting[id]
	delete(e.waiting, id)
	e.retryMu.Unlock()
	if !ok {
		return
	}
	select {
	case e.retries <- p:
	case <-ctx.Done():
		e.abandon(p)
	}
}

// resume continues a parked operation after its backoff expired.
func (e *Engine) resume(ctx context.Context, p *pendingRetry) {
	if ctx.Err() != nil {
		e.abandon(p)
		return
	}
	p.op.Attempts++
	if !e.runAttempt(ctx, p.op, p.snap, p.destTemplate, p.logger) {
		e.release(p.op.Event.SourcePath)
	}
}

func (e *Engine) abandon(p *pendingRetry) {
	e.interrupt(p.op, p.logger)
	e.release(p.op.Event.SourcePath)
}

// drainRetries interrupts every operation still parked or queued for retry.
// Runs after the worker pool has exited.
func (e *Engine) drainRetries() {
	e.retryMu.Lock()
	waiting := e.waiting
	e.waiting = make(map[string]*pendingRetry)
	e.retryMu.Unlock()
	for _, p := range waiting {
		p.timer.Stop()
		e.abandon(p)
	}
	for {
		select {
		case p := <-e.retries:
			e.abandon(p)
		default:
			return
		}
	}
}

// attempt performs one resolve+dedup+move pass. done=true means the operation
// reached a recorded terminal outcome; otherwise err drives the retry
// decision.
func (e *Engine) attempt(ctx context.Context, op *Operation, snap *snapshot, destTemplate string, logger *slog.Logger) (bool, error) {
	dest, err := e.resolver.Resolve(destTemplate, op.Event.SourcePath)
	if err != nil {
		return false, err
	}
	op.Destination = dest
	e.setOpState(op, StateResolved)

	_, format, err := e.resolver.ResolveRoot(destTemplate)
	if err != nil {
		return false, err
	}

	if op.ContentHash == "" {
		hash, err := dedup.HashFile(op.Event.SourcePath)
		if err != nil {
			return false, err
		}
		op.ContentHash = hash
	}

	canonical, owned := e.index.Reserve(op.ContentHash, dest)
	if !owned {
		return e.handleDuplicate(ctx, op, snap, destTemplate, canonical, logger)
	}

	e.setOpState(op, StateMoving)
	if err := e.mover.Move(ctx, op.Event.SourcePath, dest, format); err != nil {
		e.index.Rollback(op.ContentHash)
		return false, err
	}
	e.index.Commit(op.ContentHash, dest)
	e.setOpState(op, StateCompleted)
	e.record(op, audit.OutcomeSucceeded, dest, "")
	logger.Info("file organized",
		logging.String(logging.FieldEventType, "move_completed"),
		logging.String("destination", dest),
		logging.String("category", op.Category),
		logging.Int("attempt", op.Attempts),
	)
	return true, nil
}

// handleDuplicate applies the configured duplicate policy. Duplicates are
// never deleted: policy "move" relocates them into the duplicates subfolder
// under the route destination, "skip" leaves the source untouched. A failed
// relocation feeds the same retry classification as a primary move, so a
// transient error there retries instead of failing the operation outright.
func (e *Engine) handleDuplicate(ctx context.Context, op *Operation, snap *snapshot, destTemplate, canonical string, logger *slog.Logger) (bool, error) {
	reason := fmt.Sprintf("DuplicateOf(%s)", canonical)

	if snap.duplicates.Policy == "skip" {
		e.setOpState(op, StateCompleted)
		e.record(op, audit.OutcomeSkipped, "", reason)
		logger.Info("duplicate skipped",
			logging.String(logging.FieldEventType, "duplicate_skipped"),
			logging.String("canonical", canonical),
		)
		return true, nil
	}

	subdir := snap.duplicates.Subdir
	if subdir == "" {
		subdir = "Duplicates"
	}
	dupTemplate := joinTemplate(destTemplate, subdir)

	dest, err := e.resolver.Resolve(dupTemplate, op.Event.SourcePath)
	if err != nil {
		return false, fmt.Errorf("%s: %w", reason, err)
	}
	_, format, err := e.resolver.ResolveRoot(dupTemplate)
	if err != nil {
		return false, fmt.Errorf("%s: %w", reason, err)
	}
	op.Destination = dest

	e.setOpState(op, StateMoving)
	if err := e.mover.Move(ctx, op.Event.SourcePath, dest, format); err != nil {
		logger.Warn("duplicate relocation failed",
			logging.String(logging.FieldEventType, "duplicate_move_failed"),
			logging.Error(err),
		)
		return false, fmt.Errorf("%s: %w", reason, err)
	}
	e.setOpState(op, StateCompleted)
	e.record(op, audit.OutcomeSucceeded, dest, reason)
	logger.Info("duplicate relocated",
		logging.String(logging.FieldEventType, "duplicate_moved"),
		logging.String("destination", dest),
		logging.String("canonical", canonical),
	)
	return true, nil
}

// joinTemplate appends one component to a destination template using the
// template's own separator convention.
func joinTemplate(template, component string) string {
	if pathresolve.ClassifyFormat(template) == pathresolve.FormatUnixAbsolute {
		return template + "/" + component
	}
	return template + `\` + component
}

func (e *Engine) interrupt(op *Operation, logger *slog.Logger) {
	if op.ContentHash != "" {
		e.index.Rollback(op.ContentHash)
	}
	e.setOpState(op, StateInterrupted)
	e.record(op, audit.OutcomeInterrupted, op.Destination, "shutdown during processing")
	logger.Info("operation interrupted by shutdown",
		logging.String(logging.FieldEventType, "move_interrupted"),
	)
}

// record writes an audit entry; audit failures are logged, never fatal. The
// pipeline's obligation is to try, not to stop organizing because the
// observability store hiccuped.
func (e *Engine) record(op *Operation, outcome audit.Outcome, destination, reason string) {
	entry := audit.Entry{
		OperationID:     op.ID,
		SourcePath:      op.Event.SourcePath,
		DestinationPath: destination,
		Outcome:         outcome,
		Reason:          reason,
		Attempt:         op.Attempts,
	}
	// Recording must survive engine shutdown; use a fresh context.
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.Record(recordCtx, entry); err != nil {
		e.logger.Warn("audit write failed",
			logging.String(logging.FieldEventType, "audit_write_failed"),
			logging.String(logging.FieldOperationID, op.ID),
			logging.Error(err),
		)
	}
}
