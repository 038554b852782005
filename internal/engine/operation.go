package engine

import (
	"time"

	"curator/internal/watcher"
)

// OpState tracks one move operation through the pipeline.
type OpState string

const (
	StateDetected      OpState = "Detected"
	StateStabilizing   OpState = "Stabilizing"
	StateClassified    OpState = "Classified"
	StateResolved      OpState = "Resolved"
	StateMoving        OpState = "Moving"
	StateCompleted     OpState = "Completed"
	StateFailed        OpState = "Failed"
	StateAwaitingRetry OpState = "AwaitingRetry"
	StateInterrupted   OpState = "Interrupted"
)

// Operation is the unit of work tracked per detected file. One operation per
// source path may be in flight at a time; the intake path enforces that.
type Operation struct {
	ID          string
	Event       watcher.Event
	State       OpState
	Attempts    int
	LastError   string
	Category    string
	Destination string
	ContentHash string
	StartedAt   time.Time
}

func (op *Operation) transition(state OpState) {
	op.State = state
}
