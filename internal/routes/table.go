package routes

import (
	"log/slog"
	"path/filepath"
	"strings"

	"curator/internal/config"
	"curator/internal/logging"
)

// Route is one classification rule inside a snapshot.
type Route struct {
	Extensions  []string
	Category    string
	Destination string
}

// Decision is the outcome of classifying a file against a snapshot.
type Decision struct {
	Category    string
	Destination string
	Extension   string
	// Default is true when the file matched no route and fell back to the
	// configured default category.
	Default bool
}

// Table is an immutable extension-to-route mapping. Construct with NewTable;
// never mutate after construction.
type Table struct {
	routes             []Route
	byExtension        map[string]int
	defaultCategory    string
	defaultDestination string
}

// NewTable builds a snapshot from configuration. When two routes claim the
// same extension the first declaration wins and a warning is logged; the
// inconsistency is a configuration problem, not a per-file failure.
func NewTable(cfg *config.Config, logger *slog.Logger) *Table {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &Table{
		byExtension:        make(map[string]int),
		defaultCategory:    cfg.Routing.DefaultCategory,
		defaultDestination: cfg.Routing.DefaultDestination,
	}
	for _, rc := range cfg.Routes {
		route := Route{
			Extensions:  append([]string(nil), rc.Extensions...),
			Category:    rc.Category,
			Destination: rc.Destination,
		}
		idx := len(t.routes)
		t.routes = append(t.routes, route)
		for _, ext := range route.Extensions {
			if prior, claimed := t.byExtension[ext]; claimed {
				logger.Warn("extension claimed by multiple routes; first declaration wins",
					logging.String(logging.FieldEventType, "route_extension_conflict"),
					logging.String("extension", ext),
					logging.String("kept_category", t.routes[prior].Category),
					logging.String("ignored_category", route.Category),
				)
				continue
			}
			t.byExtension[ext] = idx
		}
	}
	return t
}

// Routes returns the declared routes in order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// DefaultCategory returns the fallback category, or "" when none is configured.
func (t *Table) DefaultCategory() string { return t.defaultCategory }

// Destinations returns every distinct destination template in the snapshot,
// including the default destination when set. Used for duplicate-index
// rehydration.
func (t *Table) Destinations() []string {
	seen := make(map[string]struct{}, len(t.routes)+1)
	var out []string
	for _, route := range t.routes {
		if _, ok := seen[route.Destination]; ok {
			continue
		}
		seen[route.Destination] = struct{}{}
		out = append(out, route.Destination)
	}
	if t.defaultDestination != "" {
		if _, ok := seen[t.defaultDestination]; !ok {
			out = append(out, t.defaultDestination)
		}
	}
	return out
}

// Classify resolves a filename to a category and destination template.
// Matching is by extension only: the substring after the last dot, folded to
// lower case. Files without an extension, and files whose extension no route
// claims, fall back to the default category when one is configured. The
// second return is false when the file cannot be classified at all.
func (t *Table) Classify(filename string) (Decision, bool) {
	ext := Extension(filename)
	if ext != "" {
		if idx, ok := t.byExtension[ext]; ok {
			route := t.routes[idx]
			return Decision{Category: route.Category, Destination: route.Destination, Extension: ext}, true
		}
	}
	if t.defaultCategory == "" || t.defaultDestination == "" {
		return Decision{Extension: ext}, false
	}
	return Decision{
		Category:    t.defaultCategory,
		Destination: t.defaultDestination,
		Extension:   ext,
		Default:     true,
	}, true
}

// Extension returns the lower-cased extension of name without the leading
// dot, or "" when the name has none.
func Extension(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if ext == "" || ext == "." {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
