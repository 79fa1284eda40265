package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// CleanMarkdown strips outer markdown code blocks models sometimes wrap
// their whole answer in.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	// Strip outer wrapping code blocks if present (e.g. ```markdown ... ```)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || strings.Count(cleaned, "```") != 2 {
		return cleaned
	}
	inner := strings.TrimSuffix(cleaned[3:], "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return cleaned
	}
	switch strings.TrimSpace(inner[:nl]) {
	case "", "markdown", "md":
		cleaned = strings.TrimSpace(inner[nl+1:])
	}

	return cleaned
}

// ToHTML converts markdown to an HTML fragment.
func ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body {
    font-family: Arial, sans-serif;
    margin: 40px;
    color: #333;
    line-height: 1.5;
}
h1, h2, h3 {
    color: #2c3e50;
}
code {
    background-color: #f4f4f4;
    padding: 2px 4px;
    border-radius: 4px;
    font-family: monospace;
    font-size: 90%%;
}
ul {
    margin-left: 20px;
}
table {
    border-collapse: collapse;
    margin: 12px 0;
}
th, td {
    border: 1px solid #ccc;
    padding: 4px 8px;
}
</style>
</head>
<body>
%s
</body>
</html>
`

// Document renders markdown as a complete styled HTML page.
func Document(title, markdown string) (string, error) {
	body, err := ToHTML(markdown)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(documentTemplate, html.EscapeString(title), body), nil
}

// VisibleText extracts the text a reader would see in the page body.
func VisibleText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}
