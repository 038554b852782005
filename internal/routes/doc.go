// Package routes builds immutable route-table snapshots and classifies files
// against them. A snapshot is constructed once per configuration load and
// shared read-only by every worker; reload publishes a new snapshot instead
// of mutating the one in use.
package routes
