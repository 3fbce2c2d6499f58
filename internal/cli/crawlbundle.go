package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/export"
	"github.com/spf13/cobra"
)

var (
	cbSeeds          []string
	cbMaxDepth       int
	cbMaxPages       int
	cbConcurrency    int
	cbPerHostRPS     float64
	cbSameDomainOnly bool
	cbOut            string
	cbSiteURL        string
	cbRootURL        string
)

var crawlBundleCmd = &cobra.Command{
	Use:   "crawl-bundle",
	Short: "Crawl and assemble a site_bundle.json in one shot.",
	RunE:  runCrawlBundle,
}

func init() {
	crawlBundleCmd.Flags().StringArrayVar(&cbSeeds, "seeds", nil, "one or more seed URLs (required)")
	crawlBundleCmd.Flags().IntVar(&cbMaxDepth, "max-depth", 3, "maximum link depth from any seed")
	crawlBundleCmd.Flags().IntVar(&cbMaxPages, "max-pages", 100, "maximum pages to process")
	crawlBundleCmd.Flags().IntVar(&cbConcurrency, "concurrency", 10, "number of concurrent fetch workers")
	crawlBundleCmd.Flags().Float64Var(&cbPerHostRPS, "per-host-rps", 1.0, "requests per second, per host")
	crawlBundleCmd.Flags().BoolVar(&cbSameDomainOnly, "same-domain-only", true, "restrict to the seeds' registrable domain(s)")
	crawlBundleCmd.Flags().StringVar(&cbOut, "out", "site_bundle.json", "output bundle path")
	crawlBundleCmd.Flags().StringVar(&cbSiteURL, "site-url", "", "optional site_url to stamp into the bundle")
	crawlBundleCmd.Flags().StringVar(&cbRootURL, "root-url", "", "optional root URL for BFS depth computation")
	rootCmd.AddCommand(crawlBundleCmd)
}

func runCrawlBundle(cmd *cobra.Command, args []string) error {
	tmpDir, err := os.MkdirTemp("", "crawlctl-bundle-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	crawlSeeds = cbSeeds
	crawlMaxDepth = cbMaxDepth
	crawlMaxPages = cbMaxPages
	crawlConcurrency = cbConcurrency
	crawlPerHostRPS = cbPerHostRPS
	crawlSameDomainOnly = cbSameDomainOnly
	crawlSaveContent = true
	crawlContentDir = filepath.Join(tmpDir, "content")
	crawlTextOnly = false

	edgesCSVPath := filepath.Join(tmpDir, "edges.csv")
	graphJSONPath := filepath.Join(tmpDir, "graph.json")

	crawler, log, err := runCrawlAndExport(cmd, edgesCSVPath, graphJSONPath)
	if err != nil {
		return err
	}
	log.Info("crawl complete",
		"pages_processed", crawler.Processed(),
		"nodes", len(crawler.Graph().Nodes()),
		"edges", len(crawler.Graph().Edges()),
	)

	// Build bundle content straight from the just-spent crawler's live
	// per-page records rather than round-tripping through the saved
	// minimal HTML on disk: the live Status is known here, whereas a
	// standalone site-bundle run reading a graph.json/content-dir pair
	// genuinely has no status to recover.
	content := make(map[string]export.PageContent, len(crawler.Pages()))
	for u, p := range crawler.Pages() {
		status := p.Status
		content[u] = export.PageContent{
			Status:      &status,
			Title:       p.Title,
			Text:        p.Text,
			ContentPath: p.ContentPath,
		}
	}

	graphEdges := crawler.Graph().Edges()
	edges := make([][2]string, 0, len(graphEdges))
	for _, e := range graphEdges {
		edges = append(edges, [2]string{e.Src, e.Dst})
	}

	bundle := export.Assemble(cbSiteURL, cbRootURL, crawler.Graph().Nodes(), edges, content, time.Now())

	out, err := os.Create(cbOut)
	if err != nil {
		return fmt.Errorf("create bundle output: %w", err)
	}
	defer out.Close()

	if err := export.WriteBundleJSON(out, bundle); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}
