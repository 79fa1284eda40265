package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMarketDataURL is the Yahoo Finance API host.
	DefaultMarketDataURL = "https://query1.finance.yahoo.com"

	// DefaultMarketSessionURL hands out the session cookie quoteSummary needs.
	DefaultMarketSessionURL = "https://fc.yahoo.com"

	chartPath        = "/v8/finance/chart/%s"
	quoteSummaryPath = "/v10/finance/quoteSummary/%s"
	crumbPath        = "/v1/test/getcrumb"
	summaryModules   = "summaryDetail,defaultKeyStatistics"
)

// Quote is a snapshot of trading data for one symbol.
type Quote struct {
	Symbol        string
	Currency      string
	Price         *float64
	DayHigh       *float64
	DayLow        *float64
	Volume        *int64
	FiftyTwoWeekH *float64
	FiftyTwoWeekL *float64
	MarketTime    time.Time
}

// Fundamentals holds valuation metrics for one symbol. Fields the provider
// does not report stay nil.
type Fundamentals struct {
	Symbol        string
	TrailingPE    *float64
	TrailingEPS   *float64
	Beta          *float64
	MarketCap     *float64
	DividendYield *float64 // fraction, 0.0052 = 0.52%
}

// MarketClient queries Yahoo Finance. Every call goes to the network; only
// the session cookie and crumb are kept between calls.
type MarketClient struct {
	BaseURL    string
	SessionURL string
	UserAgent  string
	httpClient *http.Client

	mu    sync.Mutex
	crumb string
}

// NewMarketClient builds a client for baseURL. A custom baseURL also serves
// the session cookie; the public host uses DefaultMarketSessionURL.
func NewMarketClient(baseURL, userAgent string, timeout time.Duration) *MarketClient {
	sessionURL := DefaultMarketSessionURL
	if baseURL == "" {
		baseURL = DefaultMarketDataURL
	} else if baseURL != DefaultMarketDataURL {
		sessionURL = strings.TrimRight(baseURL, "/") + "/"
	}
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	httpClient := newHTTPClient(timeout)
	// cookiejar.New only fails on a bad PublicSuffixList.
	httpClient.Jar, _ = cookiejar.New(nil)
	return &MarketClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SessionURL: sessionURL,
		UserAgent:  userAgent,
		httpClient: httpClient,
	}
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string   `json:"symbol"`
				Currency             string   `json:"currency"`
				RegularMarketPrice   *float64 `json:"regularMarketPrice"`
				RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
				RegularMarketVolume  *int64   `json:"regularMarketVolume"`
				FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
				RegularMarketTime    int64    `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				Beta          rawValue `json:"beta"`
				MarketCap     rawValue `json:"marketCap"`
				DividendYield rawValue `json:"dividendYield"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps rawValue `json:"trailingEps"`
				Beta        rawValue `json:"beta"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func (c *MarketClient) newRequest(path string, query url.Values) (*http.Request, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	return req, nil
}

// FetchQuote retrieves the latest trading snapshot for symbol.
func (c *MarketClient) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	req, err := c.newRequest(fmt.Sprintf(chartPath, url.PathEscape(symbol)), url.Values{
		"interval": {"1d"},
		"range":    {"1d"},
	})
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	err = doJSON(ctx, c.httpClient, "market data", req, &resp)
	if e := resp.Chart.Error; e != nil {
		return nil, yahooErr(e)
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w for symbol %s", ErrNotFound, symbol)
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("%w: no current price for %s", ErrNotFound, symbol)
	}
	q := &Quote{
		Symbol:        meta.Symbol,
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		DayHigh:       meta.RegularMarketDayHigh,
		DayLow:        meta.RegularMarketDayLow,
		Volume:        meta.RegularMarketVolume,
		FiftyTwoWeekH: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekL: meta.FiftyTwoWeekLow,
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if meta.RegularMarketTime > 0 {
		q.MarketTime = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	return q, nil
}

// sessionCrumb returns the cached crumb, or primes the cookie jar and asks
// Yahoo for a new one.
func (c *MarketClient) sessionCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SessionURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("market data session request failed: %w", err)
	}
	// Only the cookies matter; the page itself is usually a 404.
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()

	req, err = c.newRequest(crumbPath, nil)
	if err != nil {
		return "", err
	}
	resp, err = c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("market data crumb request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Service: "market data session", Code: resp.StatusCode, Detail: snippet(string(body), 200)}
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{ \t\n") {
		return "", errors.New("market data session returned no crumb")
	}
	c.crumb = crumb
	return crumb, nil
}

func (c *MarketClient) dropCrumb(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb == stale {
		c.crumb = ""
	}
}

// FetchFundamentals retrieves valuation metrics for symbol. quoteSummary
// requires a session crumb; a rejected crumb is refreshed once.
func (c *MarketClient) FetchFundamentals(ctx context.Context, symbol string) (*Fundamentals, error) {
	var resp quoteSummaryResponse
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var crumb string
		crumb, err = c.sessionCrumb(ctx)
		if err != nil {
			return nil, err
		}
		var req *http.Request
		req, err = c.newRequest(fmt.Sprintf(quoteSummaryPath, url.PathEscape(symbol)), url.Values{
			"modules": {summaryModules},
			"crumb":   {crumb},
		})
		if err != nil {
			return nil, err
		}

		resp = quoteSummaryResponse{}
		err = doJSON(ctx, c.httpClient, "market data", req, &resp)
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			c.dropCrumb(crumb)
			continue
		}
		break
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return nil, yahooErr(e)
	}
	if err != nil {
		return nil, err
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w for symbol %s", ErrNotFound, symbol)
	}

	r := resp.QuoteSummary.Result[0]
	f := &Fundamentals{
		Symbol:        symbol,
		TrailingPE:    r.SummaryDetail.TrailingPE.Raw,
		TrailingEPS:   r.DefaultKeyStatistics.TrailingEps.Raw,
		Beta:          r.SummaryDetail.Beta.Raw,
		MarketCap:     r.SummaryDetail.MarketCap.Raw,
		DividendYield: r.SummaryDetail.DividendYield.Raw,
	}
	if f.Beta == nil {
		f.Beta = r.DefaultKeyStatistics.Beta.Raw
	}
	return f, nil
}

func yahooErr(e *yahooError) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%w: %s", ErrNotFound, e.Description)
	}
	if e.Description != "" {
		return fmt.Errorf("market data error %s: %s", e.Code, e.Description)
	}
	return fmt.Errorf("market data error %s", e.Code)
}
