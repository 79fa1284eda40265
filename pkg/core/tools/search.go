package tools

import (
	"context"
	"fmt"
	"strings"

	"stock_research/pkg/core/ingest"
)

// snippetChars caps each result's snippet in the observation.
const snippetChars = 500

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]ingest.SearchResult, error)
}

func NewSearchTool(src Searcher, maxResults int) ToolSpec {
	if maxResults <= 0 || maxResults > ingest.DefaultMaxResults {
		maxResults = ingest.DefaultMaxResults
	}
	return ToolSpec{
		Name:        WebSearch,
		Description: Description(WebSearch),
		Invoke: func(ctx context.Context, input string) string {
			query := strings.TrimSpace(input)
			if query == "" {
				return `Error searching for "": empty query`
			}
			results, err := src.Search(ctx, query, maxResults)
			if err != nil {
				return fmt.Sprintf("Error searching for %q: %v", query, err)
			}
			return FormatResults(query, results, maxResults)
		},
	}
}

// FormatResults renders at most max results as a numbered list.
func FormatResults(query string, results []ingest.SearchResult, max int) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	if len(results) > max {
		results = results[:max]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. Title: %s\n", i+1, oneLine(r.Title))
		fmt.Fprintf(&sb, "   URL: %s\n", r.URL)
		fmt.Fprintf(&sb, "   Snippet: %s\n", truncateRunes(oneLine(r.Content), snippetChars))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
