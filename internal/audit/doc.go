// Package audit persists an append-only record of every move operation
// outcome. The engine writes, dashboards and the CLI read; the engine never
// consults its own history at decision time.
package audit
