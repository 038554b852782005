// Package ipc exposes daemon control via JSON-RPC over a Unix domain socket.
// The CLI is the primary client; the dashboard collaborator speaks the same
// protocol.
package ipc
