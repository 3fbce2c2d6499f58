// Package extractor produces a minimal, deterministic textual projection
// of a crawled HTML page: a pruned, semantically-ordered <article> plus
// its plain-text equivalent. The extractor is pure — no I/O, no network —
// so the same HTML always yields the same minimal form.
package extractor

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// removableTags are dropped as whole subtrees before content selection:
// chrome, embeds, and structural furniture that never carries article
// content.
var removableTags = []string{
	"script", "style", "noscript", "template", "svg", "canvas",
	"iframe", "object", "embed", "form", "figure", "video", "audio",
	"header", "footer", "nav", "aside",
}

// removableKeywords match against an element's class, id, or role
// attribute; any match drops the whole subtree.
var removableKeywords = []string{
	"cookie", "consent", "banner", "advert", "ad-", "promo",
	"subscribe", "subscription", "modal", "popup", "share", "social",
	"breadcrumbs", "breadcrumb", "sidebar", "menu", "header", "footer",
	"signin", "login", "comments",
}

// Result is the extractor's pure output for one page.
type Result struct {
	Title       string
	MinimalHTML string
	Text        string
}

// Extract parses rawHTML and returns the minimal projection. textOnly
// restricts emission to headings and paragraphs, omitting lists, code
// blocks, and blockquotes.
func Extract(rawHTML string, textOnly bool) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Result{MinimalHTML: wrap("", "")}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	pruned := prune(doc.Selection)
	container := selectContainer(pruned)

	article := emit(container, textOnly)
	if article == "" {
		article = "<p>" + html.EscapeString(strings.TrimSpace(container.Text())) + "</p>"
	}

	return Result{
		Title:       title,
		MinimalHTML: wrap(title, article),
		Text:        plainText(article),
	}
}

// prune removes removable-tag subtrees, then removable-keyword subtrees,
// and returns the remaining document selection.
func prune(root *goquery.Selection) *goquery.Selection {
	root.Find(strings.Join(removableTags, ", ")).Remove()

	root.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if sel.Length() == 0 {
			return
		}
		if matchesRemovableKeyword(sel) {
			sel.Remove()
		}
	})

	return root
}

func matchesRemovableKeyword(sel *goquery.Selection) bool {
	attrs := strings.ToLower(strings.Join([]string{
		attrOrEmpty(sel, "class"),
		attrOrEmpty(sel, "id"),
		attrOrEmpty(sel, "role"),
	}, " "))
	if attrs == "" {
		return false
	}
	for _, kw := range removableKeywords {
		if strings.Contains(attrs, kw) {
			return true
		}
	}
	return false
}

func attrOrEmpty(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return v
}

// selectContainer picks the first <article>, else first <main>, else body.
func selectContainer(doc *goquery.Selection) *goquery.Selection {
	if article := doc.Find("article").First(); article.Length() > 0 {
		return article
	}
	if main := doc.Find("main").First(); main.Length() > 0 {
		return main
	}
	return doc.Find("body").First()
}

// emit renders the container's content in the fixed order: headings,
// paragraphs, then (unless textOnly) lists, code blocks, and
// blockquotes. Returns "" if nothing was collected.
func emit(container *goquery.Selection, textOnly bool) string {
	var b strings.Builder

	container.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		writeTag(&b, sel.Get(0).Data, sel.Text())
	})
	container.Find("p").Each(func(_ int, sel *goquery.Selection) {
		writeTag(&b, "p", sel.Text())
	})

	if !textOnly {
		container.Find("ul, ol").Each(func(_ int, sel *goquery.Selection) {
			tag := sel.Get(0).Data
			b.WriteString("<" + tag + ">")
			sel.Find("li").Each(func(_ int, li *goquery.Selection) {
				writeTag(&b, "li", li.Text())
			})
			b.WriteString("</" + tag + ">")
		})
		container.Find("pre").Each(func(_ int, sel *goquery.Selection) {
			b.WriteString("<pre><code>")
			b.WriteString(html.EscapeString(sel.Text()))
			b.WriteString("</code></pre>")
		})
		container.Find("blockquote").Each(func(_ int, sel *goquery.Selection) {
			writeTag(&b, "blockquote", sel.Text())
		})
	}

	return b.String()
}

func writeTag(b *strings.Builder, tag, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteString("<" + tag + ">")
	b.WriteString(html.EscapeString(text))
	b.WriteString("</" + tag + ">")
}

func wrap(title, article string) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"><title>`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</title></head><body><article>`)
	b.WriteString(article)
	b.WriteString(`</article></body></html>`)
	return b.String()
}

// plainText strips the emitted article markup back down to bare text,
// used for the page record's plain-text projection.
func plainText(articleHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}
