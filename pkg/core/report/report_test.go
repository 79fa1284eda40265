package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const sampleReport = "## Stock Analysis Report\n\n" +
	"Apple closed at **$189.84**.\n\n" +
	"- Day High: $191.05\n- Day Low: $187.40\n\n" +
	"| Metric | Value |\n|---|---|\n| P/E Ratio | 29.52 |\n| Beta | 1.25 |\n"

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  # Title\n\ntext  ", "# Title\n\ntext"},
		{"markdown fence", "```markdown\n# Title\n```", "# Title"},
		{"bare fence", "```\n# Title\n```", "# Title"},
		{"other language kept", "```python\nprint(1)\n```", "```python\nprint(1)\n```"},
		{"inner fences kept", "```\na\n```\nmid\n```\nb\n```", "```\na\n```\nmid\n```\nb\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanMarkdown(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToHTML_Tables(t *testing.T) {
	out, err := ToHTML(sampleReport)
	if err != nil {
		t.Fatalf("ToHTML failed: %v", err)
	}
	for _, want := range []string{"<h2>Stock Analysis Report</h2>", "<strong>$189.84</strong>", "<table>", "<td>29.52</td>", "<li>Day High: $191.05</li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected HTML to contain %q\n%s", want, out)
		}
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	page, err := Document("Stock Analysis: AAPL", sampleReport)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if !strings.Contains(page, "font-family: Arial, sans-serif;") || !strings.Contains(page, "color: #2c3e50;") {
		t.Error("Expected the report stylesheet")
	}
	if !strings.Contains(page, "font-size: 90%;") {
		t.Error("Expected literal percent in stylesheet")
	}

	text, err := VisibleText(page)
	if err != nil {
		t.Fatalf("VisibleText failed: %v", err)
	}
	for _, want := range []string{"Stock Analysis Report", "Apple closed at $189.84.", "Day Low: $187.40", "P/E Ratio 29.52"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected visible text to contain %q, got %q", want, text)
		}
	}
	if strings.Contains(text, "font-family") {
		t.Error("Expected stylesheet to be excluded from visible text")
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		kind    Kind
		subject string
		want    string
	}{
		{KindStock, "AAPL", "AAPL_analysis"},
		{KindStock, " brk-b ", "BRK-B_analysis"},
		{KindStock, "^GSPC", "_GSPC_analysis"},
		{KindStock, "../etc", "..ETC_analysis"},
		{KindNews, "Fed rate decision", "fed-rate-decision_news_analysis"},
		{KindNews, "  What's next for OPEC+?  ", "what-s-next-for-opec_news_analysis"},
		{KindNews, "!!!", "topic_news_analysis"},
		{KindNews, strings.Repeat("long topic ", 10), "long-topic-long-topic-long-topic-long-to_news_analysis"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.kind, tt.subject); got != tt.want {
			t.Errorf("BaseName(%s, %q): Expected %q, got %q", tt.kind, tt.subject, tt.want, got)
		}
	}
	if got := FileName(KindStock, "AAPL", ".pdf"); got != "AAPL_analysis.pdf" {
		t.Errorf("Expected AAPL_analysis.pdf, got %s", got)
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	r := New(KindNews, "Fed rate decision", "```markdown\n# Fed holds\n```", now)
	if r.ID == "" {
		t.Error("Expected a report ID")
	}
	if r.Body != "# Fed holds" {
		t.Errorf("Expected cleaned body, got %q", r.Body)
	}
	if r.Title() != "News Analysis: Fed rate decision" {
		t.Errorf("Unexpected title %q", r.Title())
	}
}

func TestHTMLRenderer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := New(KindStock, "AAPL", sampleReport, time.Now())

	path, err := (&HTMLRenderer{ReportsDir: dir}).Render(context.Background(), r)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if filepath.Base(path) != "AAPL_analysis.html" {
		t.Errorf("Expected AAPL_analysis.html, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected artifact on disk: %v", err)
	}
	if !strings.Contains(string(data), "<td>29.52</td>") {
		t.Error("Expected rendered table in artifact")
	}
}

func TestPDFRenderer_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	p := NewPDFRenderer(dir, filepath.Join(dir, "no-such-wkhtmltopdf"), 0)
	if p.IsAvailable() {
		t.Fatal("Expected renderer to be unavailable")
	}

	r := New(KindStock, "AAPL", sampleReport, time.Now())
	_, err := p.Render(context.Background(), r)

	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Expected *RenderError, got %v", err)
	}
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Error("Expected ErrRendererUnavailable")
	}
	// The HTML artifact is still written and the report is untouched.
	if _, statErr := os.Stat(filepath.Join(dir, "AAPL_analysis.html")); statErr != nil {
		t.Errorf("Expected HTML artifact: %v", statErr)
	}
	if r.Body == "" {
		t.Error("Expected report body to survive a render failure")
	}
}

func TestPDFRenderer_WithFakeBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script renderer")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-wkhtmltopdf")
	// Copies the input page (second to last argument) to the output path.
	script := "#!/bin/sh\nfor a; do prev=$cur; cur=$a; done\ncp \"$prev\" \"$cur\"\n"
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	p := NewPDFRenderer(filepath.Join(dir, "reports"), bin, 5*time.Second)
	r := New(KindNews, "Fed rate decision", sampleReport, time.Now())

	for i := 0; i < 2; i++ { // repeat overwrites
		path, err := p.Render(context.Background(), r)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if filepath.Base(path) != "fed-rate-decision_news_analysis.pdf" {
			t.Errorf("Unexpected artifact %s", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected artifact on disk: %v", err)
		}
	}
}
