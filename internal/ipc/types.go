package ipc

import (
	"curator/internal/audit"
	"curator/internal/health"
	"curator/internal/nettest"
	"curator/internal/pathresolve"
)

// StatusRequest asks for daemon status.
type StatusRequest struct{}

// WatchStatus mirrors one watcher's state for transport.
type WatchStatus struct {
	WatchID    string `json:"watch_id"`
	Path       string `json:"path"`
	Recursive  bool   `json:"recursive"`
	State      string `json:"state"`
	LastError  string `json:"last_error,omitempty"`
	EventsSeen uint64 `json:"events_seen"`
}

// StatusResponse reports daemon and engine state.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	AuditDBPath   string         `json:"audit_db_path"`
	LockPath      string         `json:"lock_path"`
	ConfigPath    string         `json:"config_path"`
	Workers       int            `json:"workers"`
	Throttled     bool           `json:"throttled"`
	QueueDepth    int            `json:"queue_depth"`
	QueueCapacity int            `json:"queue_capacity"`
	States        map[string]int `json:"states"`
	IndexedHashes int            `json:"indexed_hashes"`
	Health        health.Sample  `json:"health"`
	Watches       []WatchStatus  `json:"watches"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges shutdown.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ReloadRequest asks the daemon to re-read its configuration.
type ReloadRequest struct{}

// ReloadResponse describes what the reload applied.
type ReloadResponse struct {
	Message string `json:"message"`
}

// AuditListRequest filters recent audit entries.
type AuditListRequest struct {
	Outcome string `json:"outcome,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// AuditListResponse carries audit entries, newest first.
type AuditListResponse struct {
	Entries []audit.Entry `json:"entries"`
}

// AuditHistoryRequest asks for every entry recorded for one operation.
type AuditHistoryRequest struct {
	OperationID string `json:"operation_id"`
}

// AuditHistoryResponse carries an operation's entries, oldest first.
type AuditHistoryResponse struct {
	Entries []audit.Entry `json:"entries"`
}

// AuditPruneRequest asks for retention-based pruning.
type AuditPruneRequest struct{}

// AuditPruneResponse reports how many entries were removed.
type AuditPruneResponse struct {
	Removed int64 `json:"removed"`
}

// RoutesRequest asks for the active routing snapshot.
type RoutesRequest struct{}

// RouteInfo is one route for transport.
type RouteInfo struct {
	Extensions  []string `json:"extensions"`
	Category    string   `json:"category"`
	Destination string   `json:"destination"`
}

// RoutesResponse carries the routing snapshot.
type RoutesResponse struct {
	Routes          []RouteInfo `json:"routes"`
	DefaultCategory string      `json:"default_category,omitempty"`
}

// WatchesRequest asks for per-folder watcher status.
type WatchesRequest struct{}

// WatchesResponse carries watcher statuses.
type WatchesResponse struct {
	Watches []WatchStatus `json:"watches"`
}

// PathTestRequest probes a path or template.
type PathTestRequest struct {
	Path string `json:"path"`
}

// PathTestResponse carries the probe report.
type PathTestResponse struct {
	Report pathresolve.Report `json:"report"`
}

// TargetTestRequest probes a configured network target by name.
type TargetTestRequest struct {
	Name string `json:"name"`
}

// TargetTestResponse carries the probe report.
type TargetTestResponse struct {
	Report nettest.Report `json:"report"`
}
