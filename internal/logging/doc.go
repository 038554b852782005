// Package logging configures structured slog output for the curator daemon
// and CLI. It provides a console handler for interactive use, a JSON handler
// for machine consumption, and standardized field keys shared across
// components.
package logging
