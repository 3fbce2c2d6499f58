// Package contentstore writes minimal HTML page projections to disk
// under a deterministic, collision-resistant path layout.
package contentstore

import (
	"crypto/sha1" //nolint:gosec // content-addressed path suffix, not a security boundary
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ContentPath computes the path, relative to a content directory, at
// which canonicalURL's minimal HTML is stored:
//
//	<safe-host>/<safe-path-segments>/<filename>__<8hex>.html
//
// "safe" means lowercased, with every character outside [A-Za-z0-9_-]
// collapsed to '-', trimmed of leading/trailing '-', and an empty
// result replaced with "_". The 8-hex suffix is the first 8 hex
// characters of the SHA-1 digest of the full canonical URL string.
func ContentPath(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		u = &url.URL{}
	}

	host := safeSegment(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var dirSegments []string
	filename := "index"
	for i, seg := range segments {
		safe := safeSegment(seg)
		if i == len(segments)-1 && seg != "" {
			filename = safe
			continue
		}
		if safe != "" && safe != "_" {
			dirSegments = append(dirSegments, safe)
		}
	}

	suffix := sha1Hex8(canonicalURL)
	parts := append([]string{host}, dirSegments...)
	parts = append(parts, fmt.Sprintf("%s__%s.html", filename, suffix))
	return filepath.Join(parts...)
}

// Write renders ContentPath(canonicalURL) under dir, creating parent
// directories as needed, and writes html to it. Returns the
// dir-relative path written.
func Write(dir, canonicalURL, html string) (string, error) {
	relPath := ContentPath(canonicalURL)
	fullPath := filepath.Join(dir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("contentstore: create dir: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("contentstore: write file: %w", err)
	}
	return relPath, nil
}

func sha1Hex8(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

func safeSegment(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	trimmed := strings.Trim(b.String(), "-")
	if trimmed == "" {
		return "_"
	}
	return trimmed
}
