package tools

import (
	"context"
	"fmt"
	"strings"

	"stock_research/pkg/core/ingest"
)

// QuoteSource supplies trading snapshots.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (*ingest.Quote, error)
}

// NewStockPriceTool reports price, day range, volume and 52-week range.
func NewStockPriceTool(src QuoteSource) ToolSpec {
	return ToolSpec{
		Name:        StockPrice,
		Description: Description(StockPrice),
		Invoke: func(ctx context.Context, input string) string {
			ticker, ok := NormalizeTicker(input)
			if !ok {
				return fmt.Sprintf("Error retrieving price data for %s: invalid ticker symbol", displayInput(input))
			}
			q, err := src.FetchQuote(ctx, ticker)
			if err != nil {
				return fmt.Sprintf("Error retrieving price data for %s: %v", ticker, err)
			}
			return FormatQuote(ticker, q)
		},
	}
}

// FormatQuote renders a quote as observation text.
func FormatQuote(ticker string, q *ingest.Quote) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stock: %s\n", ticker)
	fmt.Fprintf(&sb, "Current Price: %s\n", money(q.Price))
	fmt.Fprintf(&sb, "Day High: %s\n", money(q.DayHigh))
	fmt.Fprintf(&sb, "Day Low: %s\n", money(q.DayLow))
	fmt.Fprintf(&sb, "Volume: %s\n", volume(q.Volume))
	fmt.Fprintf(&sb, "52-Week High: %s\n", money(q.FiftyTwoWeekH))
	fmt.Fprintf(&sb, "52-Week Low: %s", money(q.FiftyTwoWeekL))
	if q.Currency != "" && q.Currency != "USD" {
		fmt.Fprintf(&sb, "\nCurrency: %s", q.Currency)
	}
	return sb.String()
}

func displayInput(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return "(empty input)"
	}
	return fmt.Sprintf("%q", s)
}
