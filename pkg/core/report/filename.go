package report

import (
	"regexp"
	"strings"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// maxSlugLen bounds the topic part of news file names.
const maxSlugLen = 40

// BaseName returns the deterministic artifact name for a subject, e.g.
// "AAPL_analysis" or "fed-rate-decision_news_analysis".
func BaseName(kind Kind, subject string) string {
	if kind == KindNews {
		return Slug(subject) + "_news_analysis"
	}
	ticker := strings.ToUpper(strings.TrimSpace(subject))
	ticker = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		case r == '^' || r == '=':
			return '_'
		}
		return -1
	}, ticker)
	if ticker == "" {
		ticker = "report"
	}
	return ticker + "_analysis"
}

// FileName is BaseName plus the extension.
func FileName(kind Kind, subject, ext string) string {
	return BaseName(kind, subject) + "." + strings.TrimPrefix(ext, ".")
}

// Slug lower-cases s and joins its alphanumeric runs with hyphens.
func Slug(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "topic"
	}
	return slug
}
