package research

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	coreResearch "stock_research/pkg/core/research"

	"github.com/go-chi/chi/v5"
)

type StockRequest struct {
	Tickers string `json:"tickers"` // Comma separated, e.g. "AAPL, MSFT"
}

type NewsRequest struct {
	Topic string `json:"topic"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves research requests and report downloads.
type Handler struct {
	Service    *coreResearch.Service
	ReportsDir string
}

// NewHandler creates a new research handler
func NewHandler(svc *coreResearch.Service, reportsDir string) *Handler {
	return &Handler{Service: svc, ReportsDir: reportsDir}
}

// Routes mounts the research endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/research/stock", h.HandleStock)
	r.Post("/api/research/news", h.HandleNews)
	r.Get("/api/reports/{name}", h.HandleReport)
	r.Get("/api/health", h.HandleHealth)
}

func (h *Handler) HandleStock(w http.ResponseWriter, r *http.Request) {
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	tickers := coreResearch.ParseTickers(req.Tickers)
	if len(tickers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "at least one ticker is required"})
		return
	}

	outcomes := h.Service.ResearchStocks(r.Context(), tickers)
	writeJSON(w, http.StatusOK, outcomes)
}

func (h *Handler) HandleNews(w http.ResponseWriter, r *http.Request) {
	var req NewsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "topic is required"})
		return
	}

	outcome, err := h.Service.ResearchNews(r.Context(), req.Topic)
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, outcome)
}

// HandleReport serves a rendered artifact by base name.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid report name"})
		return
	}
	switch filepath.Ext(name) {
	case ".pdf", ".html":
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported report type"})
		return
	}

	path := filepath.Join(h.ReportsDir, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "report not found"})
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
