// Package normalize turns raw article markup into ingestion input.
package normalize

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsgraph/backend/internal/ingest"
)

// ErrNoArticleText is returned when the page has no paragraph text
var ErrNoArticleText = errors.New("no article text found in HTML")

// noiseSelectors are removed before any text is read
const noiseSelectors = "script, style, noscript, iframe, svg, nav, header, footer, aside, form"

// FromHTML extracts an ArticleInput from an HTML page. Fields found in the
// page win over fallback; fallback fills whatever the page does not carry.
func FromHTML(html string, fallback ingest.ArticleInput) (ingest.ArticleInput, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ingest.ArticleInput{}, err
	}

	out := fallback

	if title := firstNonEmpty(
		meta(doc, "og:title"),
		collapse(doc.Find("title").First().Text()),
		collapse(doc.Find("h1").First().Text()),
	); title != "" {
		out.Title = title
	}
	if source := meta(doc, "og:site_name"); source != "" {
		out.Source = source
	}
	if category := meta(doc, "article:section"); category != "" {
		out.Category = category
	}
	if ts := firstNonEmpty(meta(doc, "article:published_time"), timeAttr(doc)); ts != "" {
		out.Timestamp = ts
	}

	doc.Find(noiseSelectors).Remove()

	text := paragraphs(doc.Find("article p"))
	if text == "" {
		text = paragraphs(doc.Find("p"))
	}
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}
	if text == "" {
		return ingest.ArticleInput{}, ErrNoArticleText
	}
	out.Text = text

	return out, nil
}

// meta reads a <meta property=...> or <meta name=...> content value
func meta(doc *goquery.Document, key string) string {
	sel := doc.Find(`meta[property="` + key + `"], meta[name="` + key + `"]`).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

func timeAttr(doc *goquery.Document) string {
	dt, _ := doc.Find("article time[datetime], time[datetime]").First().Attr("datetime")
	return strings.TrimSpace(dt)
}

func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := collapse(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
