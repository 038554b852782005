// Package main hosts the curator CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon: status, audit queries, route and watch inspection,
// path and target probes, and configuration scaffolding. Heavy lifting lives
// in the internal packages; this package stays declarative.
package main
