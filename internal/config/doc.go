// Package config loads, validates, and normalizes the curator configuration
// file. The engine never reads configuration ambiently: a loaded Config is
// passed into constructors, and hot reload publishes a fresh Config rather
// than mutating one in use.
package config
