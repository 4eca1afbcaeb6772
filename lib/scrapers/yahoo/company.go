package yahoo

import (
	"context"
	"log/slog"
	"strings"

	"dividend-backend/lib/htmlutil"
	"dividend-backend/lib/scraper"
	"dividend-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (c *Client) ScrapeCompany(ctx context.Context, ticker string) (scraper.Company, error) {
	ctx, span := tracer.Start(ctx, "ScrapeCompany")
	defer span.End()

	ticker, err := scraper.NormalizeTicker(ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid ticker")
		return scraper.Company{}, err
	}
	span.SetAttributes(attribute.String("ticker", ticker))

	path := c.summaryPath(ticker)
	doc, err := c.get(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch summary page")
		slog.WarnContext(ctx, "scrape company", "ticker", ticker, "path", path, "err", err)
		return scraper.Company{}, err
	}

	title := c.titleText(doc)
	name := DeriveCompanyName(title)
	if name == "" {
		slog.WarnContext(ctx, "summary page has no title", "ticker", ticker, "path", path)
	}

	return scraper.Company{
		Ticker: ticker,
		Name:   name,
	}, nil
}

func (c *Client) titleText(doc *goquery.Document) string {
	title := doc.Find(c.selectors.Title).First()
	if title.Length() > 0 {
		text := htmlutil.FlattenText(title)
		if text != "" {
			return text
		}
	}
	fallback := doc.Find("title").First()
	if fallback.Length() == 0 {
		return ""
	}
	return textutil.CollapseWhitespace(htmlutil.GetText(fallback.Nodes[0]))
}

// DeriveCompanyName strips the decoration the listing site puts around a
// company name.
//
//	"Apple Inc. (AAPL)"  -> "Apple Inc."
//	"AAPL - Apple Inc."  -> "AAPL"
//	"Coca-Cola Company" -> "Coca-Cola Company"
func DeriveCompanyName(title string) string {
	if idx := strings.Index(title, "("); idx >= 0 {
		return strings.TrimSpace(title[:idx])
	}
	if idx := strings.Index(title, " - "); idx >= 0 {
		return strings.TrimSpace(title[:idx])
	}
	return strings.TrimSpace(title)
}
