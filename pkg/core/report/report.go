// Package report turns a finished research answer into a markdown report and
// renders it to styled HTML and PDF artifacts.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the research mode a report was produced by.
type Kind string

const (
	KindStock Kind = "stock"
	KindNews  Kind = "news"
)

// Report is a finished research answer.
type Report struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"` // markdown
	GeneratedAt time.Time `json:"generated_at"`
	// Truncated marks a partial report from a run cut off by the iteration bound.
	Truncated bool `json:"truncated"`
}

// New builds a report from a model answer, stripping any wrapping code fence.
func New(kind Kind, subject, body string, now time.Time) *Report {
	return &Report{
		ID:          uuid.NewString(),
		Kind:        kind,
		Subject:     subject,
		Body:        CleanMarkdown(body),
		GeneratedAt: now,
	}
}

// Title is the document title used for rendered artifacts.
func (r *Report) Title() string {
	if r.Kind == KindNews {
		return fmt.Sprintf("News Analysis: %s", r.Subject)
	}
	return fmt.Sprintf("Stock Analysis: %s", r.Subject)
}

// FileName is the artifact file name for ext, e.g. "AAPL_analysis.pdf".
func (r *Report) FileName(ext string) string {
	return FileName(r.Kind, r.Subject, ext)
}
