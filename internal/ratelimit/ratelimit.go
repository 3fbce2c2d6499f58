// Package ratelimit enforces the crawl's politeness budget: a global cap
// on in-flight fetches plus a per-host token bucket.
package ratelimit

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// defaultMaxHosts bounds the per-host limiter map so an adversarial run
// touching millions of distinct hosts cannot grow it unboundedly.
// Recreating a limiter for an evicted host is harmless: the host simply
// gets a fresh burst allowance.
const defaultMaxHosts = 10_000

// Limiter hands out slots that are both globally capped and paced per
// host. Acquire blocks until a slot is available, then returns a release
// function the caller must invoke exactly once (typically via defer).
type Limiter struct {
	global chan struct{}

	mu       sync.Mutex
	perHost  float64
	burst    int
	maxHosts int
	hosts    map[string]*list.Element
	order    *list.List // front = most recently used
}

type hostEntry struct {
	host    string
	limiter *rate.Limiter
}

// New returns a Limiter allowing concurrency simultaneous in-flight slots
// globally, each host individually paced to perHostRate requests/sec with
// a burst of one (a single token banked while idle).
func New(concurrency int, perHostRate float64) *Limiter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Limiter{
		global:   make(chan struct{}, concurrency),
		perHost:  perHostRate,
		burst:    1,
		maxHosts: defaultMaxHosts,
		hosts:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Acquire blocks until a global permit is free and the host's token
// bucket yields a token, or ctx is done. The returned release function
// must be called to free the global permit; it is always non-nil when
// err is nil.
func (l *Limiter) Acquire(ctx context.Context, host string) (release func(), err error) {
	select {
	case l.global <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	hostLimiter := l.limiterFor(host)
	if err := hostLimiter.Wait(ctx); err != nil {
		<-l.global
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.global })
	}, nil
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.hosts[host]; ok {
		l.order.MoveToFront(el)
		return el.Value.(*hostEntry).limiter
	}

	entry := &hostEntry{host: host, limiter: rate.NewLimiter(rate.Limit(l.perHost), l.burst)}
	el := l.order.PushFront(entry)
	l.hosts[host] = el

	if l.order.Len() > l.maxHosts {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.hosts, oldest.Value.(*hostEntry).host)
		}
	}

	return entry.limiter
}

// HostCount reports how many distinct host limiters are currently held,
// for tests and diagnostics.
func (l *Limiter) HostCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}
