package scraper

import (
	"context"
	"strings"
)

// read-only scrapers are mostly stateless, each method is independent of each other,
// the output is dependent solely on the input (and whatever the source renders today).

// each scraping method generally has this structure:
// 1. make assertions on input validity.
// 2. transform input into an HTTP request (url, headers).
// 3. make request.
// 4. make assertions on response validity. (status, final url, expected elements)
// 5. transform the response body into the output structure.

// the markup-specific part (selectors, row formats) lives entirely inside the
// implementation, callers only ever see the types in this package.

// Scraper acquires company and dividend information from a single data source.
type Scraper interface {
	// ScrapeCompany resolves a ticker into a company with a display name.
	ScrapeCompany(ctx context.Context, ticker string) (Company, error)
	// ScrapeDividends fetches the dividend history of an already resolved company.
	ScrapeDividends(ctx context.Context, company Company) (ScrapeResult, error)
}

type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

type Dividend struct {
	Date   Date   `json:"date"`
	Amount string `json:"dividend"`
}

type ScrapeResult struct {
	Company   Company    `json:"company"`
	Dividends []Dividend `json:"dividends"`
}

// NormalizeTicker trims and upper-cases a ticker, tickers are case-insensitive
// on every exchange we deal with.
func NormalizeTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", ErrInvalidTicker
	}
	return ticker, nil
}
