// Package mimeutil classifies HTTP Content-Type headers for the fetcher
// and extractor.
package mimeutil

import (
	"mime"
	"strings"
)

// ParseContentType splits a Content-Type header into its bare media type
// and charset, lowercased. An empty header yields ("", ""); a header that
// mime.ParseMediaType rejects yields the lowercased text before its first
// ';' and an empty charset.
func ParseContentType(header string) (mediaType string, charset string) {
	if header == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(header)
	if err != nil {
		// Fall back to the substring before the first ';' so a malformed
		// but otherwise recognizable header (e.g. a stray trailing ";")
		// still classifies correctly.
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
		return mt, ""
	}
	return strings.ToLower(mt), strings.ToLower(params["charset"])
}

// IsHTML reports whether mediaType is one the extractor should treat as HTML.
func IsHTML(mediaType string) bool {
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}
