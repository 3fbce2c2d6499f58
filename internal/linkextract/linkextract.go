// Package linkextract harvests outgoing hyperlinks from an HTML document.
package linkextract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extract returns the trimmed href attribute of every <a> element in
// document order, skipping hrefs that are empty after trimming. Both
// absolute and relative hrefs are returned otherwise unfiltered and
// unresolved; the caller canonicalizes each against a
// base URL. A malformed document yields no links rather than an error.
func Extract(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		hrefs = append(hrefs, href)
	})
	return hrefs
}
