// Package cli wires the crawlctl cobra command tree.
package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/rohmanhakim/crawlctl/pkg/failure"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	logJSON  bool
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "crawlctl",
	Short: "A polite concurrent web crawler.",
	Long: `crawlctl plans a bounded, domain-scoped traversal of a website: it
enforces per-host request pacing and a global concurrency cap, respects
robots.txt with TTL caching, canonicalizes and deduplicates URLs, extracts
outgoing links and a minimal textual projection of each page, and emits a
link graph plus a self-contained JSON site bundle.`,
}

// Execute runs the root command. Called once by main.main. Exit code is
// 0 on success, 2 for a configuration error caught before any fetch
// (bad/missing --seeds or another flag value Build rejects), 1 for any other
// failure, chiefly an I/O error writing the exports.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor classifies err per crawlconfig's failure.ClassifiedError:
// every config-validation error crawlconfig returns implements it, and
// is always SeverityFatal — a configuration problem caught before any
// fetch runs, never a mid-crawl or export failure.
func exitCodeFor(err error) int {
	var classified failure.ClassifiedError
	if errors.As(err, &classified) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
}

// newLogger builds the run's structured logger from the ambient logging
// flags. A bad log level falls back to info rather than failing startup.
func newLogger() (*slog.Logger, error) {
	var out io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), nil
}
