package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartAAPL = `{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD",
"regularMarketPrice":189.84,"regularMarketDayHigh":191.05,"regularMarketDayLow":187.45,
"regularMarketVolume":51234567,"fiftyTwoWeekHigh":199.62,"fiftyTwoWeekLow":164.08,
"regularMarketTime":1718222400}}],"error":null}}`

const summaryAAPL = `{"quoteSummary":{"result":[{
"summaryDetail":{"trailingPE":{"raw":29.52,"fmt":"29.52"},"beta":{"raw":1.25},
"marketCap":{"raw":2950000000000,"fmt":"2.95T"},"dividendYield":{"raw":0.0052}},
"defaultKeyStatistics":{"trailingEps":{"raw":6.43}}}],"error":null}}`

func TestMarketClient_FetchQuote(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartAAPL))
	}))
	defer srv.Close()

	client := NewMarketClient(srv.URL, "test-agent", 0)
	q, err := client.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "USD", q.Currency)
	require.NotNil(t, q.Price)
	assert.InDelta(t, 189.84, *q.Price, 1e-9)
	require.NotNil(t, q.Volume)
	assert.Equal(t, int64(51234567), *q.Volume)
	require.NotNil(t, q.FiftyTwoWeekL)
	assert.InDelta(t, 164.08, *q.FiftyTwoWeekL, 1e-9)
	assert.False(t, q.MarketTime.IsZero())
}

func TestMarketClient_FetchQuoteNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewMarketClient(srv.URL, "", 0).FetchQuote(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "symbol may be delisted")
}

func TestMarketClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewMarketClient(srv.URL, "", 0).FetchQuote(context.Background(), "AAPL")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

// yahooSession fakes the cookie and crumb handshake quoteSummary enforces.
type yahooSession struct {
	summary     string
	crumb       string
	crumbCalls  int
	gotModules  string
	rejectFirst bool
}

func (y *yahooSession) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
			http.NotFound(w, r)
		case r.URL.Path == crumbPath:
			if _, err := r.Cookie("A3"); err != nil {
				http.Error(w, "missing cookie", http.StatusForbidden)
				return
			}
			y.crumbCalls++
			w.Write([]byte(y.crumb))
		default:
			_, cookieErr := r.Cookie("A3")
			if cookieErr != nil || r.URL.Query().Get("crumb") != y.crumb || y.rejectFirst {
				y.rejectFirst = false
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
				return
			}
			y.gotModules = r.URL.Query().Get("modules")
			w.Write([]byte(y.summary))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMarketClient_FetchFundamentals(t *testing.T) {
	yahoo := &yahooSession{summary: summaryAAPL, crumb: "c7umb"}
	client := NewMarketClient(yahoo.server(t).URL, "", 0)

	f, err := client.FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "summaryDetail,defaultKeyStatistics", yahoo.gotModules)
	require.NotNil(t, f.TrailingPE)
	assert.InDelta(t, 29.52, *f.TrailingPE, 1e-9)
	require.NotNil(t, f.TrailingEPS)
	assert.InDelta(t, 6.43, *f.TrailingEPS, 1e-9)
	require.NotNil(t, f.MarketCap)
	assert.InDelta(t, 2.95e12, *f.MarketCap, 1)
	require.NotNil(t, f.DividendYield)
	assert.InDelta(t, 0.0052, *f.DividendYield, 1e-9)

	// The crumb is reused for later calls.
	_, err = client.FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, yahoo.crumbCalls)
}

func TestMarketClient_FundamentalsRefreshesRejectedCrumb(t *testing.T) {
	yahoo := &yahooSession{summary: summaryAAPL, crumb: "c7umb", rejectFirst: true}

	f, err := NewMarketClient(yahoo.server(t).URL, "", 0).FetchFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, f.TrailingPE)
	assert.Equal(t, 2, yahoo.crumbCalls)
}

func TestMarketClient_FundamentalsWithoutSessionIsUnauthorized(t *testing.T) {
	// A server that never issues a crumb leaves quoteSummary unauthorized.
	yahoo := &yahooSession{summary: summaryAAPL, crumb: "c7umb"}
	srv := yahoo.server(t)
	client := NewMarketClient(srv.URL, "", 0)
	client.SessionURL = srv.URL + "/no-cookie-here"

	_, err := client.FetchFundamentals(context.Background(), "AAPL")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.Empty(t, yahoo.gotModules)
}

func TestMarketClient_FundamentalsMissingFields(t *testing.T) {
	yahoo := &yahooSession{
		summary: `{"quoteSummary":{"result":[{"summaryDetail":{"marketCap":{"raw":1000000000}},"defaultKeyStatistics":{"beta":{"raw":0.8}}}],"error":null}}`,
		crumb:   "c7umb",
	}

	f, err := NewMarketClient(yahoo.server(t).URL, "", 0).FetchFundamentals(context.Background(), "BRK-B")
	require.NoError(t, err)
	assert.Nil(t, f.TrailingPE)
	assert.Nil(t, f.DividendYield)
	require.NotNil(t, f.Beta)
	assert.InDelta(t, 0.8, *f.Beta, 1e-9)
}
