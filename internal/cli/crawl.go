package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/rohmanhakim/crawlctl/internal/crawl"
	"github.com/rohmanhakim/crawlctl/internal/crawlconfig"
	"github.com/rohmanhakim/crawlctl/internal/export"
	"github.com/spf13/cobra"
)

var (
	crawlSeeds          []string
	crawlMaxDepth       int
	crawlMaxPages       int
	crawlConcurrency    int
	crawlPerHostRPS     float64
	crawlSameDomainOnly bool
	crawlEdgesCSV       string
	crawlGraphJSON      string
	crawlSaveContent    bool
	crawlContentDir     string
	crawlTextOnly       bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl from one or more seed URLs and emit a link graph.",
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().StringArrayVar(&crawlSeeds, "seeds", nil, "one or more seed URLs (required)")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 3, "maximum link depth from any seed")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 100, "maximum pages to process")
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", 10, "number of concurrent fetch workers")
	crawlCmd.Flags().Float64Var(&crawlPerHostRPS, "per-host-rps", 1.0, "requests per second, per host")
	crawlCmd.Flags().BoolVar(&crawlSameDomainOnly, "same-domain-only", true, "restrict to the seeds' registrable domain(s)")
	crawlCmd.Flags().StringVar(&crawlEdgesCSV, "edges-csv", "edges.csv", "output path for the edge list")
	crawlCmd.Flags().StringVar(&crawlGraphJSON, "graph-json", "graph.json", "output path for the graph document")
	crawlCmd.Flags().BoolVar(&crawlSaveContent, "save-content", false, "save each accepted page's minimal HTML")
	crawlCmd.Flags().StringVar(&crawlContentDir, "content-dir", "content", "directory to save minimal HTML under")
	crawlCmd.Flags().BoolVar(&crawlTextOnly, "content-text-only", false, "omit lists, code blocks, and quotes from saved HTML")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	crawler, log, err := runCrawlAndExport(cmd, crawlEdgesCSV, crawlGraphJSON)
	if err != nil {
		return err
	}
	log.Info("crawl complete",
		"pages_processed", crawler.Processed(),
		"nodes", len(crawler.Graph().Nodes()),
		"edges", len(crawler.Graph().Edges()),
	)
	return nil
}

// runCrawlAndExport builds the config, runs the crawl to completion, and
// writes edges.csv/graph.json to the given paths. It returns the spent
// *crawl.Crawler so callers that need the live per-page Status/Title/Text
// (e.g. crawl-bundle) can build bundle content directly from it instead
// of reading the exports back off disk.
func runCrawlAndExport(cmd *cobra.Command, edgesCSVPath, graphJSONPath string) (*crawl.Crawler, *slog.Logger, error) {
	cfg, err := buildCrawlConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	crawler := crawl.New(cfg, log)
	log = crawler.Logger() // carries run_id on every subsequent log line

	if err := crawler.Run(cmd.Context()); err != nil {
		return crawler, log, err
	}

	edgesFile, err := os.Create(edgesCSVPath)
	if err != nil {
		return crawler, log, fmt.Errorf("create edges csv: %w", err)
	}
	defer edgesFile.Close()
	if err := export.WriteEdgesCSV(edgesFile, crawler.Graph()); err != nil {
		return crawler, log, fmt.Errorf("write edges csv: %w", err)
	}

	graphFile, err := os.Create(graphJSONPath)
	if err != nil {
		return crawler, log, fmt.Errorf("create graph json: %w", err)
	}
	defer graphFile.Close()
	if err := export.WriteGraphJSON(graphFile, crawler.Graph()); err != nil {
		return crawler, log, fmt.Errorf("write graph json: %w", err)
	}

	return crawler, log, nil
}

func buildCrawlConfig() (crawlconfig.Config, error) {
	if len(crawlSeeds) == 0 {
		return crawlconfig.Config{}, fmt.Errorf("%w: --seeds is required", crawlconfig.ErrInvalidConfig)
	}

	seeds := make([]url.URL, 0, len(crawlSeeds))
	for _, s := range crawlSeeds {
		u, err := url.Parse(s)
		if err != nil {
			return crawlconfig.Config{}, fmt.Errorf("%w: bad seed url %q: %v", crawlconfig.ErrInvalidConfig, s, err)
		}
		seeds = append(seeds, *u)
	}

	builder := crawlconfig.WithDefault(seeds).
		WithMaxDepth(crawlMaxDepth).
		WithMaxPages(crawlMaxPages).
		WithConcurrency(crawlConcurrency).
		WithPerHostRate(crawlPerHostRPS).
		WithSameRegistrableDomainOnly(crawlSameDomainOnly).
		WithSaveContent(crawlSaveContent).
		WithContentDir(crawlContentDir).
		WithTextOnly(crawlTextOnly)

	return builder.Build()
}
