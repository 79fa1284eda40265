package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrRendererUnavailable means the PDF converter binary could not be found.
var ErrRendererUnavailable = errors.New("pdf renderer unavailable")

// RenderError reports a failed artifact render. The report itself is unaffected.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Renderer writes a report artifact and returns its path.
type Renderer interface {
	Render(ctx context.Context, r *Report) (string, error)
}

// HTMLRenderer writes the styled HTML page only.
type HTMLRenderer struct {
	ReportsDir string
}

func (h *HTMLRenderer) Render(ctx context.Context, r *Report) (string, error) {
	path := filepath.Join(h.ReportsDir, r.FileName("html"))
	if err := writeDocument(h.ReportsDir, path, r); err != nil {
		return "", &RenderError{Path: path, Err: err}
	}
	return path, nil
}

// PDFRenderer converts the styled HTML page to PDF with wkhtmltopdf.
type PDFRenderer struct {
	ReportsDir string
	// BinaryPath of wkhtmltopdf (default: looked up on PATH)
	BinaryPath string
	// Timeout for one conversion (default: 60s)
	Timeout time.Duration
}

// NewPDFRenderer creates a new PDFRenderer with default settings.
func NewPDFRenderer(reportsDir, binaryPath string, timeout time.Duration) *PDFRenderer {
	if binaryPath == "" {
		binaryPath = "wkhtmltopdf"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &PDFRenderer{ReportsDir: reportsDir, BinaryPath: binaryPath, Timeout: timeout}
}

// IsAvailable checks if wkhtmltopdf is installed and accessible.
func (p *PDFRenderer) IsAvailable() bool {
	_, err := exec.LookPath(p.BinaryPath)
	return err == nil
}

// Render writes <base>.html and converts it to <base>.pdf, overwriting any
// earlier artifact for the same subject.
func (p *PDFRenderer) Render(ctx context.Context, r *Report) (string, error) {
	htmlPath := filepath.Join(p.ReportsDir, r.FileName("html"))
	pdfPath := filepath.Join(p.ReportsDir, r.FileName("pdf"))

	if err := writeDocument(p.ReportsDir, htmlPath, r); err != nil {
		return "", &RenderError{Path: htmlPath, Err: err}
	}

	bin, err := exec.LookPath(p.BinaryPath)
	if err != nil {
		return "", &RenderError{Path: pdfPath, Err: fmt.Errorf("%w: %v", ErrRendererUnavailable, err)}
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"--quiet",
		"--encoding", "utf-8",
		"--title", r.Title(),
		htmlPath,
		pdfPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &RenderError{Path: pdfPath, Err: fmt.Errorf("wkhtmltopdf timeout after %v", p.Timeout)}
		}
		return "", &RenderError{Path: pdfPath, Err: fmt.Errorf("wkhtmltopdf failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))}
	}
	return pdfPath, nil
}

func writeDocument(dir, path string, r *Report) error {
	page, err := Document(r.Title(), r.Body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports dir: %w", err)
	}
	return os.WriteFile(path, []byte(page), 0644)
}
