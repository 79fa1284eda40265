package tools

import (
	"stock_research/pkg/core/config"
	"stock_research/pkg/core/ingest"
)

// Clients bundles the data sources behind the default tools.
type Clients struct {
	Quotes       QuoteSource
	Fundamentals FundamentalsSource
	Search       Searcher
	Articles     ArticleSource
	MaxResults   int
}

// NewClients builds live clients from configuration.
func NewClients(cfg config.ToolsConfig) Clients {
	market := ingest.NewMarketClient(cfg.MarketDataBaseURL, cfg.UserAgent, cfg.HTTPTimeout)
	return Clients{
		Quotes:       market,
		Fundamentals: market,
		Search:       ingest.NewSearchClient(cfg.SearchBaseURL, cfg.SearchAPIKey, cfg.HTTPTimeout),
		Articles:     ingest.NewArticleFetcher(cfg.UserAgent, cfg.HTTPTimeout),
		MaxResults:   cfg.SearchMaxResults,
	}
}

// Default builds the registry holding all four tools.
func Default(c Clients) (*Registry, error) {
	return NewRegistry(
		NewStockPriceTool(c.Quotes),
		NewStockFundamentalsTool(c.Fundamentals),
		NewSearchTool(c.Search, c.MaxResults),
		NewArticleSummarizerTool(c.Articles),
	)
}
