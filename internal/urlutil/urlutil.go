// Package urlutil resolves, normalizes, and filters URLs into the single
// canonical form used as identity across the frontier, dedup set, graph
// store, and site bundle.
package urlutil

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Policy carries the subset of crawl configuration that canonicalization
// needs. It is deliberately narrow so urlutil has no dependency on the
// crawlconfig package.
type Policy struct {
	AllowedSchemes     map[string]struct{}
	BlockedExtensions  map[string]struct{}
	TrackingParams     map[string]struct{}
	TrackingPrefixes   []string
	StripTrailingSlash bool
}

// Canonicalize resolves raw against base (if raw is relative) and reduces
// the result to canonical form per the algorithm in spec.md §4.A. A false
// ok and zero url.URL mean raw could not be parsed or was rejected by
// policy.
func Canonicalize(raw string, base *url.URL, policy Policy) (url.URL, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return url.URL{}, false
	}

	resolved := parsed
	if base != nil && !parsed.IsAbs() {
		resolved = base.ResolveReference(parsed)
	}

	// 2. drop fragment
	resolved.Fragment = ""
	resolved.RawFragment = ""

	// 3. scheme must be allowed
	scheme := lowerASCII(resolved.Scheme)
	if _, ok := policy.AllowedSchemes[scheme]; !ok {
		return url.URL{}, false
	}

	// 4. lowercase scheme and host
	resolved.Scheme = scheme
	resolved.Host = lowerASCII(resolved.Host)

	// 5. strip default port
	if host, port := resolved.Hostname(), resolved.Port(); port != "" {
		if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
			resolved.Host = host
		}
	}

	// 6. reject blocked extensions
	if ext, ok := pathExtension(resolved.Path); ok {
		if _, blocked := policy.BlockedExtensions[ext]; blocked {
			return url.URL{}, false
		}
	}

	// 7. sanitize query
	resolved.RawQuery = sanitizeQuery(resolved.RawQuery, policy.TrackingParams, policy.TrackingPrefixes)
	resolved.ForceQuery = false

	// 8. strip trailing slash
	if policy.StripTrailingSlash && resolved.Path != "/" {
		resolved.Path = strings.TrimSuffix(resolved.Path, "/")
	}

	return *resolved, true
}

// pathExtension returns the lowercased extension (without the dot) of the
// final path segment, and whether one was found at all.
func pathExtension(path string) (string, bool) {
	slash := strings.LastIndexByte(path, '/')
	last := path[slash+1:]
	dot := strings.LastIndexByte(last, '.')
	if dot < 0 || dot == len(last)-1 {
		return "", false
	}
	return strings.ToLower(last[dot+1:]), true
}

// sanitizeQuery drops tracking keys and reassembles remaining parameters in
// (key, value) sorted order.
func sanitizeQuery(rawQuery string, trackingParams map[string]struct{}, trackingPrefixes []string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}

	type pair struct{ key, value string }
	var kept []pair
	for key, vals := range values {
		if _, tracked := trackingParams[key]; tracked {
			continue
		}
		if hasAnyPrefix(key, trackingPrefixes) {
			continue
		}
		for _, v := range vals {
			kept = append(kept, pair{key, v})
		}
	}
	if len(kept) == 0 {
		return ""
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].key != kept[j].key {
			return kept[i].key < kept[j].key
		}
		return kept[i].value < kept[j].value
	})

	var b strings.Builder
	first := true
	for _, p := range kept {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func lowerASCII(s string) string {
	needsLower := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// RegistrableDomain returns the eTLD+1 of host using the public suffix
// list. Two URLs are "same registrable domain" iff this value matches.
func RegistrableDomain(host string) string {
	host = lowerASCII(host)
	if h, _, err := splitHostPort(host); err == nil {
		host = h
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func splitHostPort(host string) (string, string, error) {
	u := url.URL{Host: host}
	h := u.Hostname()
	p := u.Port()
	if h == "" {
		return host, "", nil
	}
	return h, p, nil
}

// SameRegistrableDomain reports whether a and b share an eTLD+1.
func SameRegistrableDomain(a, b string) bool {
	return RegistrableDomain(a) == RegistrableDomain(b)
}
