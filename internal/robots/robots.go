// Package robots implements a TTL-cached robots.txt policy per the
// RFC 9309 / robotstxt.org conventions, backed by temoto/robotstxt for
// parsing.
package robots

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rohmanhakim/crawlctl/internal/fetcher"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the subset of the HTTP fetcher this package depends on,
// satisfied by *fetcher.Fetcher. robots.txt is fetched through the same
// client and user agent as every other page.
type Fetcher interface {
	Fetch(ctx context.Context, u url.URL) fetcher.FetchResult
}

type cacheEntry struct {
	policy    *robotstxt.RobotsData // nil means allow-all
	expiresAt time.Time
}

// Cache answers is-allowed queries for a configured user agent, fetching
// and TTL-caching robots.txt per host on first use.
type Cache struct {
	userAgent string
	ttl       time.Duration
	fetch     Fetcher

	mu      sync.Mutex
	entries map[string]cacheEntry

	group singleflight.Group
}

// NewCache returns a Cache that fetches through f, honouring userAgent
// when evaluating rules, and caching a host's policy for ttl.
func NewCache(f Fetcher, userAgent string, ttl time.Duration) *Cache {
	return &Cache{
		userAgent: userAgent,
		ttl:       ttl,
		fetch:     f,
		entries:   make(map[string]cacheEntry),
	}
}

// IsAllowed reports whether u may be fetched under the configured user
// agent's robots.txt policy for u's host. Any failure to fetch or parse
// robots.txt is treated as allow-all, so robots.txt can never become a
// single point of failure for the crawl.
func (c *Cache) IsAllowed(ctx context.Context, u url.URL) bool {
	policy := c.policyFor(ctx, u)
	if policy == nil {
		return true
	}
	return policy.TestAgent(u.Path, c.userAgent)
}

func (c *Cache) policyFor(ctx context.Context, u url.URL) *robotstxt.RobotsData {
	key := fmt.Sprintf("%s://%s", u.Scheme, u.Host)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.policy
	}
	c.mu.Unlock()

	result, _, _ := c.group.Do(key, func() (interface{}, error) {
		policy := c.fetchAndParse(ctx, u.Scheme, u.Host)
		c.mu.Lock()
		c.entries[key] = cacheEntry{policy: policy, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return policy, nil
	})

	policy, _ := result.(*robotstxt.RobotsData)
	return policy
}

func (c *Cache) fetchAndParse(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := url.URL{Scheme: scheme, Host: host, Path: "/robots.txt"}
	result := c.fetch.Fetch(ctx, robotsURL)
	if result.Status() != 200 {
		return nil
	}
	policy, err := robotstxt.FromBytes([]byte(result.RawBody()))
	if err != nil {
		return nil
	}
	return policy
}
