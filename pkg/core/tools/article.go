package tools

import (
	"context"
	"fmt"
	"strings"

	"stock_research/pkg/core/ingest"
)

const (
	maxBullets = 5
	// excerptChars bounds the raw text included after the summary.
	excerptChars = 1500
)

// ArticleSource downloads and parses a page.
type ArticleSource interface {
	Fetch(ctx context.Context, url string) (*ingest.Article, error)
}

func NewArticleSummarizerTool(src ArticleSource) ToolSpec {
	return ToolSpec{
		Name:        ArticleSummarizer,
		Description: Description(ArticleSummarizer),
		Invoke: func(ctx context.Context, input string) string {
			url := strings.TrimSpace(input)
			if url == "" {
				return "Error summarizing article at (empty input): no URL given"
			}
			a, err := src.Fetch(ctx, url)
			if err != nil {
				return fmt.Sprintf("Error summarizing article at %s: %v", url, err)
			}
			if a == nil || len(a.Paragraphs) == 0 {
				return fmt.Sprintf("Error summarizing article at %s: %v", url, ingest.ErrNoArticleText)
			}
			return Summarize(a)
		},
	}
}

// Summarize builds an extractive summary: the lead sentence of each of the
// first paragraphs, followed by an excerpt of the article text.
func Summarize(a *ingest.Article) string {
	var sb strings.Builder
	title := a.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&sb, "Article: %s\n", title)
	fmt.Fprintf(&sb, "Source: %s\n\n", a.URL)
	sb.WriteString("## Executive Summary\n")

	seen := map[string]bool{}
	bullets := 0
	for _, p := range a.Paragraphs {
		if bullets == maxBullets {
			break
		}
		lead := leadSentence(p)
		if len([]rune(lead)) < 20 || seen[lead] {
			continue
		}
		seen[lead] = true
		fmt.Fprintf(&sb, "- %s\n", lead)
		bullets++
	}
	if bullets == 0 && len(a.Paragraphs) > 0 {
		fmt.Fprintf(&sb, "- %s\n", truncateRunes(oneLine(a.Paragraphs[0]), 300))
	}

	sb.WriteString("\n## Key Excerpt\n")
	sb.WriteString(truncateRunes(a.Text(), excerptChars))
	return sb.String()
}

// leadSentence returns the first sentence of a paragraph.
func leadSentence(p string) string {
	p = oneLine(p)
	for i, r := range p {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + 1
		if end == len(p) || p[end] == ' ' {
			return truncateRunes(p[:end], 300)
		}
	}
	return truncateRunes(p, 300)
}
