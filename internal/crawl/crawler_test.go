package crawl_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/crawl"
	"github.com/rohmanhakim/crawlctl/internal/crawlconfig"
	"github.com/stretchr/testify/require"
)

func seedURLs(t *testing.T, raw ...string) []url.URL {
	t.Helper()
	out := make([]url.URL, 0, len(raw))
	for _, s := range raw {
		u, err := url.Parse(s)
		require.NoError(t, err)
		out = append(out, *u)
	}
	return out
}

// Scenario S2: scope. Seed on foo; a same-host link and a link to bar,
// addressed as localhost so it lies in another registrable domain than
// the 127.0.0.1 seed. With same-domain-only, only the same-host link is
// enqueued.
func TestCrawl_SameDomainScope(t *testing.T) {
	var barLink string
	foo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprintf(w, `<html><body><a href="/x">x</a><a href="%s/y">y</a></body></html>`, barLink)
		case "/x":
			w.Write([]byte(`<html><body><p>x page</p></body></html>`))
		}
	}))
	defer foo.Close()

	bar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>y page</p></body></html>`))
	}))
	defer bar.Close()
	barLink = strings.Replace(bar.URL, "127.0.0.1", "localhost", 1)

	cfg, err := crawlconfig.WithDefault(seedURLs(t, foo.URL+"/")).
		WithConcurrency(2).
		WithMaxPages(10).
		WithSameRegistrableDomainOnly(true).
		Build()
	require.NoError(t, err)

	c := crawl.New(cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	pages := c.Pages()
	_, hasX := pages[foo.URL+"/x"]
	require.True(t, hasX)
	for u := range pages {
		require.NotContains(t, u, barLink)
	}
}

// Scenario S3 (adapted to host-based fixture): robots.txt disallows
// /private/; the disallowed page never appears among crawled pages.
func TestCrawl_RespectsRobots(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			hits++
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><a href="/ok">ok</a><a href="/private/secret">secret</a></body></html>`))
		case "/ok":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><p>ok page</p></body></html>`))
		case "/private/secret":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><p>secret page</p></body></html>`))
		}
	}))
	defer srv.Close()

	cfg, err := crawlconfig.WithDefault(seedURLs(t, srv.URL+"/")).
		WithConcurrency(2).
		WithMaxPages(10).
		Build()
	require.NoError(t, err)

	c := crawl.New(cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	pages := c.Pages()
	_, hasOK := pages[srv.URL+"/ok"]
	require.True(t, hasOK)
	_, hasSecret := pages[srv.URL+"/private/secret"]
	require.False(t, hasSecret)
	require.Equal(t, 1, hits)
}

// Scenario S4: depth budget. S(depth0) -> A(depth1) -> B(depth2), with
// max_depth=1, means B is never enqueued/fetched.
func TestCrawl_DepthBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`<html><body><a href="/a">a</a></body></html>`))
		case "/a":
			w.Write([]byte(`<html><body><a href="/b">b</a><p>a page</p></body></html>`))
		case "/b":
			w.Write([]byte(`<html><body><p>b page</p></body></html>`))
		}
	}))
	defer srv.Close()

	cfg, err := crawlconfig.WithDefault(seedURLs(t, srv.URL+"/")).
		WithConcurrency(2).
		WithMaxDepth(1).
		WithMaxPages(100).
		Build()
	require.NoError(t, err)

	c := crawl.New(cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	pages := c.Pages()
	_, hasRoot := pages[srv.URL+"/"]
	_, hasA := pages[srv.URL+"/a"]
	_, hasB := pages[srv.URL+"/b"]
	require.True(t, hasRoot)
	require.True(t, hasA)
	require.False(t, hasB)
}

func TestCrawl_BudgetOvershootBound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a href="%s">next</a><p>page</p></body></html>`, r.URL.Path+"x")
	}))
	defer srv.Close()

	const maxPages = 5
	const concurrency = 3
	cfg, err := crawlconfig.WithDefault(seedURLs(t, srv.URL+"/")).
		WithConcurrency(concurrency).
		WithMaxDepth(50).
		WithMaxPages(maxPages).
		Build()
	require.NoError(t, err)

	c := crawl.New(cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	require.LessOrEqual(t, c.Processed(), int64(maxPages+concurrency-1))
}

func TestCrawl_RunIDIsUniquePerCrawler(t *testing.T) {
	cfg, err := crawlconfig.WithDefault(seedURLs(t, "https://example.test/")).Build()
	require.NoError(t, err)

	a := crawl.New(cfg, nil)
	b := crawl.New(cfg, nil)

	require.NotEmpty(t, a.RunID())
	require.NotEmpty(t, b.RunID())
	require.NotEqual(t, a.RunID(), b.RunID())
	require.NotNil(t, a.Logger())
}
