package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/contentstore"
	"github.com/rohmanhakim/crawlctl/internal/export"
	"github.com/spf13/cobra"
)

var (
	bundleGraphJSON  string
	bundleContentDir string
	bundleOut        string
	bundleSiteURL    string
	bundleRootURL    string
)

var siteBundleCmd = &cobra.Command{
	Use:   "site-bundle",
	Short: "Assemble a site_bundle.json from a graph and saved content.",
	RunE:  runSiteBundle,
}

func init() {
	siteBundleCmd.Flags().StringVar(&bundleGraphJSON, "graph-json", "graph.json", "input graph document")
	siteBundleCmd.Flags().StringVar(&bundleContentDir, "content-dir", "content", "directory holding saved minimal HTML")
	siteBundleCmd.Flags().StringVar(&bundleOut, "out", "site_bundle.json", "output bundle path")
	siteBundleCmd.Flags().StringVar(&bundleSiteURL, "site-url", "", "optional site_url to stamp into the bundle")
	siteBundleCmd.Flags().StringVar(&bundleRootURL, "root-url", "", "optional root URL for BFS depth computation")
	rootCmd.AddCommand(siteBundleCmd)
}

func runSiteBundle(cmd *cobra.Command, args []string) error {
	return assembleBundle(bundleGraphJSON, bundleContentDir, bundleOut, bundleSiteURL, bundleRootURL)
}

func assembleBundle(graphJSONPath, contentDir, outPath, siteURL, rootURL string) error {
	graphFile, err := os.Open(graphJSONPath)
	if err != nil {
		return fmt.Errorf("open graph json: %w", err)
	}
	defer graphFile.Close()

	nodes, edges, err := export.ReadGraphJSON(graphFile)
	if err != nil {
		return fmt.Errorf("parse graph json: %w", err)
	}

	content := export.LoadContentFromDir(contentDir, nodes, contentstore.ContentPath)
	bundle := export.Assemble(siteURL, rootURL, nodes, edges, content, time.Now())

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create bundle output: %w", err)
	}
	defer out.Close()

	if err := export.WriteBundleJSON(out, bundle); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}
