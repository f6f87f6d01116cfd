package search

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxCitations caps the citation list returned by the extractor.
const DefaultMaxCitations = 5

// candidate is a raw result block before URL normalization and filtering.
type candidate struct {
	title       string
	href        string
	description string
}

// extractionPattern is one structural strategy for locating result blocks.
// Patterns are tried in priority order; the first one that yields at least
// one candidate wins. SERP markup changes without notice, so no single
// selector is treated as authoritative.
type extractionPattern struct {
	name   string
	accept func(doc *goquery.Document) []candidate
}

// Extractor turns raw SERP markup into an ordered citation list.
type Extractor struct {
	maxResults int
	patterns   []extractionPattern
}

// NewExtractor creates an extractor with the default pattern list.
func NewExtractor() *Extractor {
	return &Extractor{
		maxResults: DefaultMaxCitations,
		patterns: []extractionPattern{
			{name: "organic_block", accept: organicBlockCandidates},
			{name: "heading_anchor", accept: headingAnchorCandidates},
			{name: "result_class", accept: resultClassCandidates},
		},
	}
}

// Extract parses the document and returns at most maxResults citations in
// document order, deduplicated by URL. It never fails: malformed or
// structurally unexpected markup yields an empty list, which is a
// legitimate outcome (no results), not an error.
func (e *Extractor) Extract(doc string) []Citation {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return []Citation{}
	}

	var candidates []candidate
	for _, p := range e.patterns {
		if candidates = p.accept(parsed); len(candidates) > 0 {
			break
		}
	}

	citations := make([]Citation, 0, e.maxResults)
	seen := make(map[string]bool, e.maxResults)
	for _, c := range candidates {
		title := collapseWhitespace(c.title)
		link := normalizeResultURL(c.href)
		if title == "" || link == "" {
			continue
		}
		if seen[link] {
			continue
		}
		seen[link] = true
		citations = append(citations, Citation{
			Title:       title,
			URL:         link,
			Description: collapseWhitespace(c.description),
		})
		if len(citations) >= e.maxResults {
			break
		}
	}
	return citations
}

// organicBlockCandidates matches the classic organic result container: a
// div.g block holding a heading-bearing link plus a snippet div.
func organicBlockCandidates(doc *goquery.Document) []candidate {
	var out []candidate
	doc.Find("div.g").Each(func(_ int, block *goquery.Selection) {
		link := block.Find("a:has(h3)").First()
		if link.Length() == 0 {
			return
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		out = append(out, candidate{
			title:       link.Find("h3").First().Text(),
			href:        href,
			description: block.Find("div.VwiC3b, span.aCOpRe, div.IsZvec, div[data-sncf]").First().Text(),
		})
	})
	return out
}

// headingAnchorCandidates is the structural fallback: any link wrapping an
// h3 heading is a result, regardless of the container class. The snippet is
// the nearest sizeable text block around the link.
func headingAnchorCandidates(doc *goquery.Document) []candidate {
	var out []candidate
	doc.Find("a:has(h3)").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		title := link.Find("h3").First().Text()
		out = append(out, candidate{
			title:       title,
			href:        href,
			description: nearbySnippet(link, title),
		})
	})
	return out
}

// resultClassCandidates matches the result__-style markup variant used by
// lite/html SERP endpoints.
func resultClassCandidates(doc *goquery.Document) []candidate {
	var out []candidate
	doc.Find("div.result, div.web-result").Each(func(_ int, block *goquery.Selection) {
		link := block.Find("a.result__a").First()
		if link.Length() == 0 {
			return
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		out = append(out, candidate{
			title:       link.Text(),
			href:        href,
			description: block.Find("a.result__snippet, div.result__snippet").First().Text(),
		})
	})
	return out
}

// nearbySnippet walks up from the link looking for a leaf text block that
// reads like a description: no heading, no child elements, and enough text
// to be more than a label.
func nearbySnippet(link *goquery.Selection, title string) string {
	const minSnippetLen = 40
	node := link
	for depth := 0; depth < 3; depth++ {
		parent := node.Parent()
		if parent.Length() == 0 {
			break
		}
		var snippet string
		parent.Find("div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if s.Children().Length() > 0 {
				return true
			}
			text := collapseWhitespace(s.Text())
			if len(text) < minSnippetLen || text == title {
				return true
			}
			snippet = text
			return false
		})
		if snippet != "" {
			return snippet
		}
		node = parent
	}
	return ""
}

// normalizeResultURL validates a candidate link and unwraps redirect-wrapper
// URLs whose real destination is encoded as a query parameter. Returns ""
// for anything that is not a usable absolute http(s) link.
func normalizeResultURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	if strings.HasPrefix(trimmed, "//") {
		trimmed = "https:" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	query := parsed.Query()

	// Google result links are wrapped as /url?q=<dest> (or url=<dest>).
	if parsed.Path == "/url" {
		if dest := firstNonEmpty(query.Get("q"), query.Get("url")); dest != "" {
			return normalizeResultURL(dest)
		}
		return ""
	}

	// DuckDuckGo-style wrapper: //duckduckgo.com/l/?uddg=<escaped dest>.
	if strings.Contains(parsed.Host, "duckduckgo.com") {
		if dest := query.Get("uddg"); dest != "" {
			if unescaped, err := url.QueryUnescape(dest); err == nil {
				dest = unescaped
			}
			return normalizeResultURL(dest)
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	if parsed.Host == "" {
		return ""
	}
	return parsed.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
