package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apiconfig "stock_research/pkg/api/config"
	apiresearch "stock_research/pkg/api/research"
	"stock_research/pkg/core/agent"
	"stock_research/pkg/core/llm"
	"stock_research/pkg/core/report"
	"stock_research/pkg/core/research"
	"stock_research/pkg/core/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, reportsDir string) (http.Handler, *agent.Manager) {
	t.Helper()

	noop := func(ctx context.Context, input string) string { return "Stock: " + input }
	reg, err := tools.NewRegistry(
		tools.ToolSpec{Name: tools.StockPrice, Invoke: noop},
		tools.ToolSpec{Name: tools.WebSearch, Invoke: noop},
	)
	require.NoError(t, err)

	mgr, err := agent.NewManagerWithProviders("scripted", nil, map[string]llm.Provider{
		"scripted": llm.NewScriptedProvider("## Report\n\nAll good."),
		"backup":   llm.NewScriptedProvider("## Backup"),
	})
	require.NoError(t, err)

	svc, err := research.NewService(mgr, reg, &report.HTMLRenderer{ReportsDir: reportsDir}, research.Options{Parallelism: 2})
	require.NoError(t, err)

	return NewRouter(apiresearch.NewHandler(svc, reportsDir), apiconfig.NewHandler(mgr), nil), mgr
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, t.TempDir())
	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	h, _ := newTestRouter(t, t.TempDir())
	rec := do(t, h, http.MethodOptions, "/api/research/stock", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestResearchStock(t *testing.T) {
	dir := t.TempDir()
	h, _ := newTestRouter(t, dir)

	rec := do(t, h, http.MethodPost, "/api/research/stock", `{"tickers": "aapl, MSFT, aapl"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcomes []research.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, "AAPL", outcomes[0].Subject)
	assert.Equal(t, "MSFT", outcomes[1].Subject)
	assert.Equal(t, agent.StateDone, outcomes[0].State)
	require.NotNil(t, outcomes[0].Report)
	assert.Equal(t, "## Report\n\nAll good.", outcomes[0].Report.Body)
	assert.Equal(t, filepath.Join(dir, "AAPL_analysis.html"), outcomes[0].ArtifactPath)
}

func TestResearchStock_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t, t.TempDir())

	rec := do(t, h, http.MethodPost, "/api/research/stock", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/research/stock", `{"tickers": " , "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one ticker")
}

func TestResearchNews(t *testing.T) {
	h, _ := newTestRouter(t, t.TempDir())

	rec := do(t, h, http.MethodPost, "/api/research/news", `{"topic": "Fed rate decision"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome research.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, report.KindNews, outcome.Kind)
	assert.Contains(t, outcome.ArtifactPath, "fed-rate-decision_news_analysis.html")

	rec = do(t, h, http.MethodPost, "/api/research/news", `{"topic": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportDownload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AAPL_analysis.html"), []byte("<html>report</html>"), 0644))
	h, _ := newTestRouter(t, dir)

	rec := do(t, h, http.MethodGet, "/api/reports/AAPL_analysis.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "report")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "AAPL_analysis.html")

	tests := []struct {
		path string
		code int
	}{
		{"/api/reports/MSFT_analysis.pdf", http.StatusNotFound},
		{"/api/reports/notes.txt", http.StatusBadRequest},
		{"/api/reports/..%2Fsecret.pdf", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, tt.path, "")
		assert.Equal(t, tt.code, rec.Code, tt.path)
	}
}

func TestConfigEndpoints(t *testing.T) {
	h, mgr := newTestRouter(t, t.TempDir())

	rec := do(t, h, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp apiconfig.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scripted", resp.ActiveProvider)
	assert.Equal(t, []string{"backup", "scripted"}, resp.Available)

	rec = do(t, h, http.MethodPost, "/api/config/switch", `{"provider": "backup"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "backup", mgr.ActiveProvider())

	rec = do(t, h, http.MethodPost, "/api/config/switch", `{"provider": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
