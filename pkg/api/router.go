// Package api assembles the HTTP surface of the research service.
package api

import (
	"net/http"

	apiconfig "stock_research/pkg/api/config"
	apiresearch "stock_research/pkg/api/research"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
)

// NewRouter wires every endpoint behind CORS and request logging.
// requestLog may be nil to disable request logs.
func NewRouter(research *apiresearch.Handler, cfg *apiconfig.Handler, requestLog *httplog.Logger) http.Handler {
	r := chi.NewRouter()
	if requestLog != nil {
		r.Use(httplog.RequestLogger(requestLog))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors)

	research.Routes(r)
	r.Get("/api/config", cfg.HandleConfig)
	r.Post("/api/config/switch", cfg.HandleSwitch)
	return r
}

// cors adds the headers the local web UI needs and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
