package export_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/export"
	"github.com/rohmanhakim/crawlctl/internal/graph"
	"github.com/stretchr/testify/require"
)

func TestWriteEdgesCSV(t *testing.T) {
	g := graph.New()
	g.AddEdge("https://a.test/", "https://a.test/x")

	var buf bytes.Buffer
	require.NoError(t, export.WriteEdgesCSV(&buf, g))
	require.Equal(t, "src,dst\nhttps://a.test/,https://a.test/x\n", buf.String())
}

func TestWriteGraphJSON_RoundTrip(t *testing.T) {
	g := graph.New()
	g.AddEdge("https://a.test/", "https://a.test/x")

	var buf bytes.Buffer
	require.NoError(t, export.WriteGraphJSON(&buf, g))

	nodes, edges, err := export.ReadGraphJSON(&buf)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"https://a.test/", "https://a.test/x"}, nodes)
	require.Equal(t, [][2]string{{"https://a.test/", "https://a.test/x"}}, edges)
}

func statusPtr(n int) *int { return &n }

// Scenario S6: a 3-page bundle has dense ids, a valid ISO-8601
// crawled_at, and clusters derived from the first path segment.
func TestAssemble_ScenarioS6(t *testing.T) {
	nodes := []string{"https://s.test/", "https://s.test/a", "https://s.test/b"}
	edges := [][2]string{
		{"https://s.test/", "https://s.test/a"},
		{"https://s.test/", "https://s.test/b"},
	}
	content := map[string]export.PageContent{
		"https://s.test/":  {Status: statusPtr(200), Title: "Home", Text: "home text"},
		"https://s.test/a": {Status: statusPtr(200), Title: "A", Text: "a text"},
		"https://s.test/b": {Status: statusPtr(200), Title: "B", Text: "b text"},
	}

	crawledAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	bundle := export.Assemble("https://s.test/", "https://s.test/", nodes, edges, content, crawledAt)

	require.Len(t, bundle.Pages, 3)
	for i, p := range bundle.Pages {
		require.Equal(t, i, p.ID)
	}
	require.Equal(t, "https://s.test/", *bundle.SiteURL)

	parsed, err := time.Parse(time.RFC3339, bundle.CrawledAt)
	require.NoError(t, err)
	require.Equal(t, crawledAt, parsed.UTC())

	for _, e := range bundle.Edges {
		require.GreaterOrEqual(t, e[0], 0)
		require.Less(t, e[0], len(bundle.Pages))
		require.GreaterOrEqual(t, e[1], 0)
		require.Less(t, e[1], len(bundle.Pages))
	}

	var aCluster string
	for _, p := range bundle.Pages {
		if p.URL == "https://s.test/a" {
			aCluster = p.Cluster
		}
	}
	require.Equal(t, "/a", aCluster)
}

func TestAssemble_OmitsPagesWithNoTitleOrText(t *testing.T) {
	nodes := []string{"https://s.test/", "https://s.test/empty"}
	edges := [][2]string{{"https://s.test/", "https://s.test/empty"}}
	content := map[string]export.PageContent{
		"https://s.test/": {Status: statusPtr(200), Title: "Home", Text: "home text"},
		// "https://s.test/empty" intentionally has no content entry at all.
	}

	bundle := export.Assemble("", "", nodes, edges, content, time.Now())
	require.Len(t, bundle.Pages, 1)
	require.Empty(t, bundle.Edges)
}

func TestAssemble_DepthViaBFSFromRoot(t *testing.T) {
	nodes := []string{"https://s.test/", "https://s.test/a", "https://s.test/b"}
	edges := [][2]string{
		{"https://s.test/", "https://s.test/a"},
		{"https://s.test/a", "https://s.test/b"},
	}
	content := map[string]export.PageContent{
		"https://s.test/":  {Title: "Home"},
		"https://s.test/a": {Title: "A"},
		"https://s.test/b": {Title: "B"},
	}

	bundle := export.Assemble("", "https://s.test/", nodes, edges, content, time.Now())
	depths := make(map[string]int)
	for _, p := range bundle.Pages {
		require.NotNil(t, p.Depth)
		depths[p.URL] = *p.Depth
	}
	require.Equal(t, 0, depths["https://s.test/"])
	require.Equal(t, 1, depths["https://s.test/a"])
	require.Equal(t, 2, depths["https://s.test/b"])
}

// A bundle assembled from content recovered off disk (the standalone
// site-bundle path) has no HTTP status to report, so it must serialize
// as JSON null rather than a fabricated 0 — which FetchResult's own
// contract reserves for "transport failure".
func TestAssemble_UnknownStatusSerializesAsNull(t *testing.T) {
	content := map[string]export.PageContent{
		"https://s.test/": {Title: "Home", Text: "home text"}, // Status left nil
	}
	bundle := export.Assemble("", "", []string{"https://s.test/"}, nil, content, time.Now())

	require.Len(t, bundle.Pages, 1)
	require.Nil(t, bundle.Pages[0].Status)

	var buf bytes.Buffer
	require.NoError(t, export.WriteBundleJSON(&buf, bundle))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	pages := raw["pages"].([]interface{})
	page := pages[0].(map[string]interface{})
	require.Nil(t, page["status"])
}

func TestBundleJSON_FieldNames(t *testing.T) {
	bundle := export.Assemble("https://s.test/", "", []string{"https://s.test/"}, nil,
		map[string]export.PageContent{"https://s.test/": {Title: "Home", Text: "hi"}}, time.Now())

	var buf bytes.Buffer
	require.NoError(t, export.WriteBundleJSON(&buf, bundle))

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Contains(t, raw, "site_url")
	require.Contains(t, raw, "crawled_at")
	require.Contains(t, raw, "pages")
	require.Contains(t, raw, "edges")

	pages := raw["pages"].([]interface{})
	page := pages[0].(map[string]interface{})
	for _, key := range []string{"id", "url", "status", "title", "text", "content_path", "depth", "fqdn", "path", "cluster"} {
		require.Contains(t, page, key)
	}
}
