package routes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/routes"
)

func tableFixture(t *testing.T, cfg config.Config) *routes.Table {
	t.Helper()
	return routes.NewTable(&cfg, logging.NewNop())
}

func TestClassifyByExtension(t *testing.T) {
	table := tableFixture(t, config.Config{
		Routes: []config.Route{
			{Extensions: []string{"pdf", "docx"}, Category: "Documents", Destination: "/srv/org/Documents"},
			{Extensions: []string{"zip"}, Category: "Archives", Destination: "/srv/org/Archives"},
		},
	})

	tests := []struct {
		name     string
		filename string
		category string
		ext      string
	}{
		{"lowercase", "report.pdf", "Documents", "pdf"},
		{"uppercase", "REPORT.PDF", "Documents", "pdf"},
		{"mixed", "Archive.Zip", "Archives", "zip"},
		{"multi dot", "backup.tar.zip", "Archives", "zip"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision, ok := table.Classify(tc.filename)
			require.True(t, ok)
			assert.Equal(t, tc.category, decision.Category)
			assert.Equal(t, tc.ext, decision.Extension)
			assert.False(t, decision.Default)
		})
	}
}

func TestClassifyFallsBackToDefault(t *testing.T) {
	table := tableFixture(t, config.Config{
		Routes: []config.Route{
			{Extensions: []string{"pdf"}, Category: "Documents", Destination: "/srv/org/Documents"},
		},
		Routing: config.Routing{DefaultCategory: "Other", DefaultDestination: "/srv/org/Other"},
	})

	decision, ok := table.Classify("unknown.xyz")
	require.True(t, ok)
	assert.Equal(t, "Other", decision.Category)
	assert.True(t, decision.Default)

	decision, ok = table.Classify("README")
	require.True(t, ok)
	assert.Equal(t, "Other", decision.Category)
	assert.Empty(t, decision.Extension)
}

func TestClassifyUnmatchedWithoutDefault(t *testing.T) {
	table := tableFixture(t, config.Config{
		Routes: []config.Route{
			{Extensions: []string{"pdf"}, Category: "Documents", Destination: "/srv/org/Documents"},
		},
	})
	_, ok := table.Classify("unknown.xyz")
	assert.False(t, ok)
	_, ok = table.Classify("README")
	assert.False(t, ok)
}

func TestDuplicateExtensionFirstRouteWins(t *testing.T) {
	table := tableFixture(t, config.Config{
		Routes: []config.Route{
			{Extensions: []string{"pdf"}, Category: "Documents", Destination: "/srv/org/Documents"},
			{Extensions: []string{"pdf"}, Category: "Reports", Destination: "/srv/org/Reports"},
		},
	})
	decision, ok := table.Classify("a.pdf")
	require.True(t, ok)
	assert.Equal(t, "Documents", decision.Category)
}

func TestDestinationsDeduplicated(t *testing.T) {
	table := tableFixture(t, config.Config{
		Routes: []config.Route{
			{Extensions: []string{"pdf"}, Category: "Documents", Destination: "/srv/org/Docs"},
			{Extensions: []string{"txt"}, Category: "Text", Destination: "/srv/org/Docs"},
			{Extensions: []string{"zip"}, Category: "Archives", Destination: "/srv/org/Archives"},
		},
		Routing: config.Routing{DefaultCategory: "Other", DefaultDestination: "/srv/org/Other"},
	})
	assert.ElementsMatch(t,
		[]string{"/srv/org/Docs", "/srv/org/Archives", "/srv/org/Other"},
		table.Destinations(),
	)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", routes.Extension("a.PDF"))
	assert.Equal(t, "gz", routes.Extension("a.tar.gz"))
	assert.Equal(t, "", routes.Extension("README"))
	assert.Equal(t, "", routes.Extension("trailing."))
	assert.Equal(t, "pdf", routes.Extension("/deep/path/report.pdf"))
}
