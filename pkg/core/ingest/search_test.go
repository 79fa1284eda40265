package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchClient_Search(t *testing.T) {
	var got searchRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)

		var results []SearchResult
		for i := 0; i < 8; i++ {
			results = append(results, SearchResult{
				Title:   fmt.Sprintf("Result %d", i+1),
				URL:     fmt.Sprintf("https://news.example.com/%d", i+1),
				Content: "Rates unchanged.",
			})
		}
		json.NewEncoder(w).Encode(searchResponse{Results: results})
	}))
	defer srv.Close()

	client := NewSearchClient(srv.URL, "tvly-test", 0)
	results, err := client.Search(context.Background(), "Fed interest rate decision", 5)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tvly-test", auth)
	assert.Equal(t, "Fed interest rate decision", got.Query)
	assert.Equal(t, 5, got.MaxResults)
	// Capped client-side even when the server returns more.
	require.Len(t, results, 5)
	assert.Equal(t, "https://news.example.com/1", results[0].URL)
}

func TestSearchClient_MissingKey(t *testing.T) {
	_, err := NewSearchClient("", "", 0).Search(context.Background(), "anything", 5)
	assert.True(t, errors.Is(err, ErrMissingSearchKey))
}

func TestSearchClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":{"error":"Unauthorized: missing or invalid API key."}}`))
	}))
	defer srv.Close()

	_, err := NewSearchClient(srv.URL, "bad", 0).Search(context.Background(), "q", 5)
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, err.Error(), "invalid API key")
}
