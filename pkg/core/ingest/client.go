// Package ingest provides the external data clients used by the research
// tools: Yahoo Finance market data, Tavily web search and article fetching.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 15 * time.Second

	// BrowserUserAgent is sent to news sites, many of which reject bare clients.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// ErrNotFound is returned when the provider has no data for the request.
var ErrNotFound = errors.New("no data found")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service string
	Code    int
	Detail  string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.Code)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// readBody reads a bounded response body.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// doJSON sends req and decodes a JSON body into out. Non-2xx responses are
// still handed to decodeErr, which may extract a provider error message.
func doJSON(ctx context.Context, client *http.Client, service string, req *http.Request, out interface{}) error {
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Some providers still return a structured error body.
		if json.Unmarshal(body, out) == nil {
			return &StatusError{Service: service, Code: resp.StatusCode}
		}
		return &StatusError{Service: service, Code: resp.StatusCode, Detail: snippet(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", service, err)
	}
	return nil
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
