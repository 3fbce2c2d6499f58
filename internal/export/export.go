// Package export serializes a crawl's link graph and page content into
// edges.csv, graph.json, and the self-contained site_bundle.json.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/extractor"
	"github.com/rohmanhakim/crawlctl/internal/graph"
)

// WriteEdgesCSV writes the "src,dst" header plus one row per distinct
// edge, in the graph's edge insertion order.
func WriteEdgesCSV(w io.Writer, g *graph.Graph) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"src", "dst"}); err != nil {
		return err
	}
	for _, e := range g.Edges() {
		if err := cw.Write([]string{e.Src, e.Dst}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// graphJSON is the graph.json wire schema.
type graphJSON struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// WriteGraphJSON writes {"nodes":[...],"edges":[[src,dst],...]} with
// node order equal to the graph store's iteration order.
func WriteGraphJSON(w io.Writer, g *graph.Graph) error {
	doc := graphJSON{Nodes: g.Nodes(), Edges: make([][2]string, 0)}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, [2]string{e.Src, e.Dst})
	}
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// ReadGraphJSON parses a graph.json document back into nodes and edges.
func ReadGraphJSON(r io.Reader) (nodes []string, edges [][2]string, err error) {
	var doc graphJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, err
	}
	return doc.Nodes, doc.Edges, nil
}

// PageContent is the minimal input bundle assembly needs for one node:
// title/text/content-path either already known (from a live crawl) or
// recovered by reading the saved minimal HTML file. Status is nil when
// the HTTP status is not known — a standalone site-bundle run recovers
// title/text from disk but has no way to recover the original status.
type PageContent struct {
	Status      *int
	Title       string
	Text        string
	ContentPath string
}

// BundlePage is one entry in site_bundle.json's "pages" array.
type BundlePage struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	Status      *int   `json:"status"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	ContentPath string `json:"content_path"`
	Depth       *int   `json:"depth"`
	FQDN        string `json:"fqdn"`
	Path        string `json:"path"`
	Cluster     string `json:"cluster"`
}

// Bundle is the full site_bundle.json document.
type Bundle struct {
	SiteURL   *string      `json:"site_url"`
	CrawledAt string       `json:"crawled_at"`
	Pages     []BundlePage `json:"pages"`
	Edges     [][2]int     `json:"edges"`
}

// Assemble builds a Bundle from a node list, edge list, and a lookup of
// per-node content. Nodes with neither a title nor any extracted text
// are omitted; edges referencing an omitted node are dropped. Ids are
// dense 0..N-1 in node-list order (after omission). If rootURL is
// non-empty, each surviving page's depth is its shortest directed-edge
// hop count from rootURL; otherwise depth is null.
func Assemble(siteURL, rootURL string, nodes []string, edges [][2]string, content map[string]PageContent, crawledAt time.Time) Bundle {
	kept := make([]string, 0, len(nodes))
	for _, n := range nodes {
		pc, ok := content[n]
		if !ok {
			continue
		}
		if strings.TrimSpace(pc.Title) == "" && strings.TrimSpace(pc.Text) == "" {
			continue
		}
		kept = append(kept, n)
	}

	ids := make(map[string]int, len(kept))
	for i, n := range kept {
		ids[n] = i
	}

	var depths map[string]int
	if rootURL != "" {
		depths = bfsDepths(rootURL, kept, edges, ids)
	}

	bundle := Bundle{CrawledAt: crawledAt.UTC().Format(time.RFC3339)}
	if siteURL != "" {
		bundle.SiteURL = &siteURL
	}

	bundle.Pages = make([]BundlePage, 0, len(kept))
	for i, n := range kept {
		pc := content[n]
		fqdn, path := fqdnAndPath(n)

		var depth *int
		if d, ok := depths[n]; ok {
			depth = &d
		}

		bundle.Pages = append(bundle.Pages, BundlePage{
			ID:          i,
			URL:         n,
			Status:      pc.Status,
			Title:       pc.Title,
			Text:        pc.Text,
			ContentPath: pc.ContentPath,
			Depth:       depth,
			FQDN:        fqdn,
			Path:        path,
			Cluster:     cluster(path),
		})
	}

	bundle.Edges = make([][2]int, 0)
	for _, e := range edges {
		srcID, srcOK := ids[e[0]]
		dstID, dstOK := ids[e[1]]
		if srcOK && dstOK {
			bundle.Edges = append(bundle.Edges, [2]int{srcID, dstID})
		}
	}

	return bundle
}

func bfsDepths(root string, kept []string, edges [][2]string, ids map[string]int) map[string]int {
	if _, ok := ids[root]; !ok {
		return nil
	}
	adjacency := make(map[string][]string)
	for _, e := range edges {
		if _, ok := ids[e[0]]; !ok {
			continue
		}
		if _, ok := ids[e[1]]; !ok {
			continue
		}
		adjacency[e[0]] = append(adjacency[e[0]], e[1])
	}

	depths := map[string]int{root: 0}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[cur] {
			if _, seen := depths[next]; seen {
				continue
			}
			depths[next] = depths[cur] + 1
			queue = append(queue, next)
		}
	}
	return depths
}

func fqdnAndPath(rawURL string) (fqdn, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "/"
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	return u.Hostname(), p
}

func cluster(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	first := strings.SplitN(trimmed, "/", 2)[0]
	return "/" + first
}

// WriteBundleJSON writes bundle as JSON.
func WriteBundleJSON(w io.Writer, bundle Bundle) error {
	enc := json.NewEncoder(w)
	return enc.Encode(bundle)
}

// LoadContentFromDir recovers PageContent for each node by reading its
// minimal HTML file under dir (located at the same deterministic path
// the crawler wrote it to) and re-running the pure extractor over it.
// Nodes with no corresponding file are simply absent from the result,
// which Assemble then omits from the bundle. The saved HTML carries no
// HTTP status, so Status is always left nil here; callers that still
// hold the live crawl's per-page status (see crawl.Crawler.Pages) should
// build PageContent directly instead of routing through this recovery
// path.
func LoadContentFromDir(dir string, nodes []string, contentPathOf func(string) string) map[string]PageContent {
	out := make(map[string]PageContent, len(nodes))
	for _, n := range nodes {
		relPath := contentPathOf(n)
		raw, err := os.ReadFile(filepath.Join(dir, relPath))
		if err != nil {
			continue
		}
		extracted := extractor.Extract(string(raw), false)
		out[n] = PageContent{
			Title:       extracted.Title,
			Text:        extracted.Text,
			ContentPath: relPath,
		}
	}
	return out
}

// SortedNodes returns nodes sorted lexically, useful for deterministic
// output when no natural order is available.
func SortedNodes(nodes []string) []string {
	out := make([]string, len(nodes))
	copy(out, nodes)
	sort.Strings(out)
	return out
}
