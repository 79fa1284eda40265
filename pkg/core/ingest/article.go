package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoArticleText is returned when a page has no readable paragraphs.
var ErrNoArticleText = errors.New("no article text found")

// Article is the readable text of a web page.
type Article struct {
	URL        string
	Title      string
	Paragraphs []string
}

// Text joins the paragraphs with blank lines.
func (a *Article) Text() string {
	return strings.Join(a.Paragraphs, "\n\n")
}

// ArticleFetcher downloads a page and extracts its paragraph text.
type ArticleFetcher struct {
	UserAgent  string
	httpClient *http.Client
}

func NewArticleFetcher(userAgent string, timeout time.Duration) *ArticleFetcher {
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	return &ArticleFetcher{
		UserAgent:  userAgent,
		httpClient: newHTTPClient(timeout),
	}
}

// Fetch retrieves rawURL and parses its title and <p> text.
func (f *ArticleFetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("unsupported url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Service: "article host", Code: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return nil, fmt.Errorf("unsupported content type %q", mediaType)
		}
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	return ParseArticle(rawURL, string(body))
}

// ParseArticle extracts the title and paragraph text from an HTML page.
func ParseArticle(rawURL, html string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer, header, aside, form").Remove()

	title := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var paragraphs []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return nil, ErrNoArticleText
	}

	return &Article{URL: rawURL, Title: title, Paragraphs: paragraphs}, nil
}
