package tools

import (
	"context"
	"fmt"
	"strings"

	"stock_research/pkg/core/ingest"
)

// FundamentalsSource supplies valuation metrics.
type FundamentalsSource interface {
	FetchFundamentals(ctx context.Context, symbol string) (*ingest.Fundamentals, error)
}

func NewStockFundamentalsTool(src FundamentalsSource) ToolSpec {
	return ToolSpec{
		Name:        StockFundamentals,
		Description: Description(StockFundamentals),
		Invoke: func(ctx context.Context, input string) string {
			ticker, ok := NormalizeTicker(input)
			if !ok {
				return fmt.Sprintf("Error retrieving fundamentals for %s: invalid ticker symbol", displayInput(input))
			}
			f, err := src.FetchFundamentals(ctx, ticker)
			if err != nil {
				return fmt.Sprintf("Error retrieving fundamentals for %s: %v", ticker, err)
			}
			return FormatFundamentals(ticker, f)
		},
	}
}

func FormatFundamentals(ticker string, f *ingest.Fundamentals) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Stock: %s\n", ticker)
	fmt.Fprintf(&sb, "P/E Ratio: %s\n", decimal(f.TrailingPE))
	fmt.Fprintf(&sb, "EPS: %s\n", money(f.TrailingEPS))
	fmt.Fprintf(&sb, "Beta: %s\n", decimal(f.Beta))
	fmt.Fprintf(&sb, "Market Cap: %s\n", billions(f.MarketCap))
	fmt.Fprintf(&sb, "Dividend Yield: %s", percent(f.DividendYield))
	return sb.String()
}
