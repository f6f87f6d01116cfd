package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func organicBlock(title, href, snippet string) string {
	return fmt.Sprintf(
		`<div class="g"><a href="%s"><h3>%s</h3></a><div class="VwiC3b">%s</div></div>`,
		href, title, snippet,
	)
}

func TestExtractOrganicBlocks(t *testing.T) {
	doc := "<html><body>" +
		organicBlock("First Result", "https://example.com/one", "Snippet for the first result.") +
		organicBlock("Second Result", "https://example.com/two", "Snippet for the second result.") +
		"</body></html>"

	citations := NewExtractor().Extract(doc)

	require.Len(t, citations, 2)
	assert.Equal(t, "First Result", citations[0].Title)
	assert.Equal(t, "https://example.com/one", citations[0].URL)
	assert.Equal(t, "Snippet for the first result.", citations[0].Description)
	assert.Equal(t, "https://example.com/two", citations[1].URL)
}

func TestExtractDeduplicatesAndTruncates(t *testing.T) {
	// Seven valid blocks, two sharing a URL: expect five citations after
	// dedup and truncation, in document order.
	var b strings.Builder
	b.WriteString(organicBlock("Result 0", "https://example.com/0", "Snippet 0"))
	b.WriteString(organicBlock("Result 0 duplicate", "https://example.com/0", "Snippet dup"))
	for i := 1; i <= 5; i++ {
		b.WriteString(organicBlock(fmt.Sprintf("Result %d", i), fmt.Sprintf("https://example.com/%d", i), "Snippet"))
	}

	citations := NewExtractor().Extract(b.String())

	require.Len(t, citations, 5)
	assert.Equal(t, "Result 0", citations[0].Title, "first occurrence wins the URL")
	for i, c := range citations {
		assert.Equal(t, fmt.Sprintf("https://example.com/%d", i), c.URL, "document order preserved")
	}
}

func TestExtractUnwrapsRedirectLinks(t *testing.T) {
	doc := "<html><body>" +
		organicBlock("Google Wrapped", "/url?q=https://real.example.com/page&sa=U&ved=xyz", "Snippet") +
		organicBlock("DDG Wrapped", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fother.example.org%2Fdest", "Snippet") +
		"</body></html>"

	citations := NewExtractor().Extract(doc)

	require.Len(t, citations, 2)
	assert.Equal(t, "https://real.example.com/page", citations[0].URL)
	assert.Equal(t, "https://other.example.org/dest", citations[1].URL)
}

func TestExtractRejectsInvalidCandidates(t *testing.T) {
	doc := "<html><body>" +
		organicBlock("Fragment Link", "#section", "Snippet") +
		organicBlock("", "https://example.com/untitled", "Snippet") +
		organicBlock("Javascript Link", "javascript:void(0)", "Snippet") +
		organicBlock("Kept", "https://example.com/kept", "Snippet") +
		"</body></html>"

	citations := NewExtractor().Extract(doc)

	require.Len(t, citations, 1)
	assert.Equal(t, "https://example.com/kept", citations[0].URL)
}

func TestExtractFallsBackToHeadingAnchors(t *testing.T) {
	// No div.g containers: the structural pattern should still find the
	// heading-bearing link and pick up the nearby snippet.
	doc := `<html><body><div class="whatever-new-class">
		<a href="https://example.com/x"><h3>Structural Result</h3></a>
		<div><span>This description is comfortably long enough to be picked up as a snippet.</span></div>
	</div></body></html>`

	citations := NewExtractor().Extract(doc)

	require.Len(t, citations, 1)
	assert.Equal(t, "Structural Result", citations[0].Title)
	assert.Equal(t, "https://example.com/x", citations[0].URL)
	assert.Contains(t, citations[0].Description, "comfortably long enough")
}

func TestExtractResultClassVariant(t *testing.T) {
	doc := `<html><body>
		<div class="result">
			<a class="result__a" href="https://example.com/variant">Variant Result</a>
			<a class="result__snippet" href="https://example.com/variant">Variant snippet text here.</a>
		</div>
	</body></html>`

	citations := NewExtractor().Extract(doc)

	require.Len(t, citations, 1)
	assert.Equal(t, "Variant Result", citations[0].Title)
	assert.Equal(t, "https://example.com/variant", citations[0].URL)
	assert.Equal(t, "Variant snippet text here.", citations[0].Description)
}

func TestExtractMalformedMarkup(t *testing.T) {
	for _, doc := range []string{
		"",
		"not html at all",
		"<div><<<>junk</",
		"<html><body><p>no results markup</p></body></html>",
	} {
		citations := NewExtractor().Extract(doc)
		assert.NotNil(t, citations)
		assert.Empty(t, citations)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	doc := "<html><body>" +
		organicBlock("Stable", "https://example.com/stable", "Snippet text") +
		organicBlock("Other", "https://example.com/other", "More snippet text") +
		"</body></html>"

	e := NewExtractor()
	first := e.Extract(doc)
	second := e.Extract(doc)

	assert.Equal(t, first, second)
}

func TestNormalizeResultURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"absolute http", "https://example.com/a", "https://example.com/a"},
		{"scheme relative", "//example.com/a", "https://example.com/a"},
		{"google wrapper q", "/url?q=https://dest.example.com/p&sa=U", "https://dest.example.com/p"},
		{"google wrapper url", "/url?url=https://dest.example.com/p", "https://dest.example.com/p"},
		{"ddg wrapper", "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fdest.example.com%2Fp", "https://dest.example.com/p"},
		{"fragment", "#top", ""},
		{"empty", "   ", ""},
		{"relative path", "/search?q=more", ""},
		{"javascript", "javascript:void(0)", ""},
		{"wrapper without destination", "/url?sa=U", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeResultURL(tt.in))
		})
	}
}
