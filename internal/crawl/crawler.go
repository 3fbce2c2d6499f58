// Package crawl implements the orchestrator: a fixed-size worker pool
// that drives seeds through the frontier to completion under the
// configured budgets.
//
// The crawler owns its frontier, dedup set, graph, robots cache, rate
// limiter, and fetcher; the CLI constructs one per run and discards it
// afterward. There is no global mutable state.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/crawlctl/internal/contentstore"
	"github.com/rohmanhakim/crawlctl/internal/crawlconfig"
	"github.com/rohmanhakim/crawlctl/internal/dedup"
	"github.com/rohmanhakim/crawlctl/internal/extractor"
	"github.com/rohmanhakim/crawlctl/internal/fetcher"
	"github.com/rohmanhakim/crawlctl/internal/frontier"
	"github.com/rohmanhakim/crawlctl/internal/graph"
	"github.com/rohmanhakim/crawlctl/internal/linkextract"
	"github.com/rohmanhakim/crawlctl/internal/mimeutil"
	"github.com/rohmanhakim/crawlctl/internal/ratelimit"
	"github.com/rohmanhakim/crawlctl/internal/robots"
	"github.com/rohmanhakim/crawlctl/internal/urlutil"
)

// Page is the per-URL record accumulated during a crawl. Bundle assembly
// (internal/export) later derives dense ids, BFS depth, and cluster from
// these plus the graph.
type Page struct {
	URL         string
	Status      int
	Title       string
	Text        string
	ContentPath string // relative to config's content dir; empty if not saved
}

// Crawler is a one-shot value: construct with New, run once with Run,
// read results, then discard.
type Crawler struct {
	cfg     crawlconfig.Config
	runID   string
	log     *slog.Logger
	policy  urlutil.Policy
	seedSet []string // registrable domains of the seeds, for domain scoping

	frontier *frontier.Frontier
	dedup    dedup.Deduplicator
	limiter  *ratelimit.Limiter
	fetch    *fetcher.Fetcher
	robots   *robots.Cache
	graph    *graph.Graph

	processed int64
	stopped   atomic.Bool

	pagesMu sync.Mutex
	pages   map[string]*Page
}

// New constructs a Crawler from cfg. The crawler owns all of its
// components for the lifetime of one Run.
func New(cfg crawlconfig.Config, log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	policy := urlutil.Policy{
		AllowedSchemes:     cfg.AllowedSchemes(),
		BlockedExtensions:  cfg.BlockedExtensions(),
		TrackingParams:     cfg.TrackingParams(),
		TrackingPrefixes:   cfg.TrackingPrefixes(),
		StripTrailingSlash: cfg.StripTrailingSlash(),
	}

	f := fetcher.New(cfg.RequestTimeout(), cfg.MaxRedirects(), cfg.UserAgent())

	seedDomains := make([]string, 0, len(cfg.SeedURLs()))
	for _, s := range cfg.SeedURLs() {
		seedDomains = append(seedDomains, urlutil.RegistrableDomain(s.Hostname()))
	}

	return &Crawler{
		cfg:      cfg,
		runID:    runID,
		log:      log,
		policy:   policy,
		seedSet:  seedDomains,
		frontier: frontier.New(),
		dedup:    dedup.NewExactSet(),
		limiter:  ratelimit.New(cfg.Concurrency(), cfg.PerHostRate()),
		fetch:    f,
		robots:   robots.NewCache(f, cfg.UserAgent(), cfg.RobotsTTL()),
		graph:    graph.New(),
		pages:    make(map[string]*Page),
	}
}

// RunID returns the run's unique identifier, generated once in New and
// stable for the crawler's lifetime. It is carried on every log line the
// crawler emits, for correlating log output across a run.
func (c *Crawler) RunID() string { return c.runID }

// Logger returns the crawler's logger, pre-bound with the run's
// RunID so callers that log their own completion lines after Run
// carry the same correlation id.
func (c *Crawler) Logger() *slog.Logger { return c.log }

// Graph returns the link graph accumulated so far.
func (c *Crawler) Graph() *graph.Graph { return c.graph }

// Pages returns a snapshot of accumulated page records, keyed by
// canonical URL.
func (c *Crawler) Pages() map[string]*Page {
	c.pagesMu.Lock()
	defer c.pagesMu.Unlock()
	out := make(map[string]*Page, len(c.pages))
	for k, v := range c.pages {
		cp := *v
		out[k] = &cp
	}
	return out
}

// Processed returns the number of tasks that reached step 8 of the
// worker loop (the processed-counter increment).
func (c *Crawler) Processed() int64 { return atomic.LoadInt64(&c.processed) }

// Run seeds the frontier and drives concurrency workers to completion.
// It returns once every worker has exited: either the page budget was
// reached, or the frontier was observed exhausted by every worker.
func (c *Crawler) Run(ctx context.Context) error {
	defer c.fetch.Stop()

	for _, seed := range c.cfg.SeedURLs() {
		canonical, ok := urlutil.Canonicalize(seed.String(), nil, c.policy)
		if !ok {
			c.log.Warn("seed rejected by policy", "url", seed.String())
			continue
		}
		c.frontier.Enqueue(frontier.Task{CanonicalURL: canonical, Depth: 0})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Concurrency(); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.workerLoop(runCtx, workerID)
		}(i)
	}
	wg.Wait()

	return nil
}

// idlePollInterval bounds how long a worker waits on an empty frontier
// before re-checking the natural-exhaustion stop condition.
const idlePollInterval = 200 * time.Millisecond

func (c *Crawler) workerLoop(ctx context.Context, workerID int) {
	for {
		if c.stopped.Load() {
			return
		}

		pollCtx, cancel := context.WithTimeout(ctx, idlePollInterval)
		task, ok := c.frontier.Dequeue(pollCtx)
		cancel()

		if !ok {
			if ctx.Err() != nil {
				return
			}
			if c.frontier.Idle() {
				return
			}
			continue
		}

		c.process(ctx, task)
		c.frontier.TaskDone()
	}
}

func (c *Crawler) process(ctx context.Context, task frontier.Task) {
	canonicalStr := task.CanonicalURL.String()

	// step 2: already seen
	if c.dedup.Seen(canonicalStr) {
		return
	}

	// step 3: robots
	if !c.robots.IsAllowed(ctx, task.CanonicalURL) {
		c.log.Debug("robots denied", "url", canonicalStr)
		return
	}

	// step 4: rate limit + fetch
	release, err := c.limiter.Acquire(ctx, task.CanonicalURL.Host)
	if err != nil {
		return
	}
	result := c.fetch.Fetch(ctx, task.CanonicalURL)
	release()

	if result.IsTransportFailure() {
		c.log.Warn("transport failure", "url", canonicalStr)
		c.bumpProcessed()
		return
	}

	// step 5: canonicalize final URL, dedupe again
	finalCanonical, ok := urlutil.Canonicalize(result.FinalURL().String(), nil, c.policy)
	if !ok {
		return
	}
	finalStr := finalCanonical.String()
	if !c.dedup.Add(finalStr) {
		return
	}

	// step 6: edge
	if task.Parent != nil {
		c.graph.AddEdge(task.Parent.String(), finalStr)
	} else {
		c.graph.AddNode(finalStr)
	}

	mediaType, _ := mimeutil.ParseContentType(result.ContentType())
	isAccepted := result.Status() < 400 && mimeutil.IsHTML(mediaType) && result.Text() != ""

	page := &Page{URL: finalStr, Status: result.Status()}

	if isAccepted {
		extracted := extractor.Extract(result.Text(), c.cfg.TextOnly())
		page.Title = extracted.Title
		page.Text = extracted.Text

		if c.cfg.SaveContent() {
			relPath, err := contentstore.Write(c.cfg.ContentDir(), finalStr, extracted.MinimalHTML)
			if err != nil {
				c.log.Debug("content save failed", "url", finalStr, "err", err)
			} else {
				page.ContentPath = relPath
			}
		}

		c.enqueueChildren(task, finalCanonical, result.Text())
	}

	c.pagesMu.Lock()
	c.pages[finalStr] = page
	c.pagesMu.Unlock()

	c.bumpProcessed()
}

func (c *Crawler) enqueueChildren(task frontier.Task, base url.URL, bodyHTML string) {
	if task.Depth+1 > c.cfg.MaxDepth() {
		return
	}

	for _, href := range linkextract.Extract(bodyHTML) {
		child, ok := urlutil.Canonicalize(href, &base, c.policy)
		if !ok {
			continue
		}
		if c.cfg.SameRegistrableDomainOnly() && !c.inSeedScope(child.Hostname()) {
			continue
		}
		childStr := child.String()
		if c.dedup.Seen(childStr) {
			continue
		}
		parent := base
		c.frontier.Enqueue(frontier.Task{CanonicalURL: child, Depth: task.Depth + 1, Parent: &parent})
	}
}

func (c *Crawler) inSeedScope(host string) bool {
	domain := urlutil.RegistrableDomain(host)
	for _, seed := range c.seedSet {
		if seed == domain {
			return true
		}
	}
	return false
}

func (c *Crawler) bumpProcessed() {
	n := atomic.AddInt64(&c.processed, 1)
	if n >= int64(c.cfg.MaxPages()) {
		if c.stopped.CompareAndSwap(false, true) {
			c.frontier.Close()
		}
	}
}
