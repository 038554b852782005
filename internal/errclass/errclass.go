// Package errclass defines the failure taxonomy shared by the organization
// pipeline. Components wrap errors with a sentinel marker; the engine maps
// markers onto state transitions and audit outcomes.
package errclass

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks bad routes, unresolvable placeholders, and other
	// operator mistakes. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures that are expected to clear on their own:
	// unreachable network targets, sharing violations, timeouts.
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks failures that will not clear without intervention:
	// permission denied, read-only destination, disk full.
	ErrPermanent = errors.New("permanent failure")
	// ErrDestinationExhausted marks a collision-probe cap hit.
	ErrDestinationExhausted = errors.New("destination exhausted")
	// ErrUnclassified marks a file with no matching route and no default category.
	ErrUnclassified = errors.New("unclassified")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err should feed the retry loop.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsTerminal reports whether err ends an operation without further attempts.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrDestinationExhausted) ||
		errors.Is(err, ErrUnclassified)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
