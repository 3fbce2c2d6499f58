// Package dedup tracks canonical URLs already accepted by the crawl.
package dedup

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduplicator is the capability the orchestrator depends on. Exact and
// approximate implementations are interchangeable behind it.
type Deduplicator interface {
	// Seen reports whether u has already been recorded.
	Seen(u string) bool
	// Add records u as seen. Returns true if u was newly added (i.e. it
	// was not already present), false if it was already seen.
	Add(u string) bool
}

// ExactSet is a hash-set backed Deduplicator with zero false positives.
// This is the orchestrator's default.
type ExactSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewExactSet returns an empty ExactSet.
func NewExactSet() *ExactSet {
	return &ExactSet{seen: make(map[string]struct{})}
}

func (s *ExactSet) Seen(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[u]
	return ok
}

// Add is race-free: of any number of concurrent callers racing on the
// same u, exactly one receives true.
func (s *ExactSet) Add(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[u]; ok {
		return false
	}
	s.seen[u] = struct{}{}
	return true
}

// BloomSet is an approximate Deduplicator for runs expected to exceed
// roughly 10^6 URLs, trading a small false-positive rate (URLs
// erroneously treated as already seen) for bounded memory.
type BloomSet struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewBloomSet returns a BloomSet sized for expectedN items at the given
// false-positive rate (e.g. 0.01 for ~1%).
func NewBloomSet(expectedN uint, falsePositiveRate float64) *BloomSet {
	return &BloomSet{filter: bloom.NewWithEstimates(expectedN, falsePositiveRate)}
}

func (s *BloomSet) Seen(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Test([]byte(u))
}

func (s *BloomSet) Add(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.Test([]byte(u)) {
		return false
	}
	s.filter.Add([]byte(u))
	return true
}
