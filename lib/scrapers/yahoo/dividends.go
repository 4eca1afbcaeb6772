package yahoo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dividend-backend/lib/htmlutil"
	"dividend-backend/lib/scraper"
	"dividend-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// dividendMarker is the last token of every dividend event row, rows for
// splits and regular prices end differently.
const dividendMarker = "Dividend"

func (c *Client) ScrapeDividends(ctx context.Context, company scraper.Company) (scraper.ScrapeResult, error) {
	ctx, span := tracer.Start(ctx, "ScrapeDividends")
	defer span.End()

	ticker, err := scraper.NormalizeTicker(company.Ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid ticker")
		return scraper.ScrapeResult{}, err
	}
	company.Ticker = ticker
	span.SetAttributes(
		attribute.String("ticker", ticker),
		attribute.String("company", company.Name),
	)

	path := c.historyPath(ticker)
	doc, err := c.get(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch history page")
		slog.WarnContext(ctx, "scrape dividends", "ticker", ticker, "path", path, "err", err)
		return scraper.ScrapeResult{}, err
	}

	dividends, err := ParseDividends(doc, c.selectors.HistoryTable)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse history page")
		slog.ErrorContext(ctx, "parse dividends", "ticker", ticker, "path", path, "err", err)
		return scraper.ScrapeResult{}, err
	}
	span.SetAttributes(attribute.Int("dividends", len(dividends)))

	return scraper.ScrapeResult{
		Company:   company,
		Dividends: dividends,
	}, nil
}

// ParseDividends extracts the dividend events of the first table matching
// tableSelector, in the order the rows appear.
func ParseDividends(doc *goquery.Document, tableSelector string) ([]scraper.Dividend, error) {
	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no element matches %q", scraper.ErrStructure, tableSelector)
	}
	tbody := table.ChildrenFiltered("tbody").First()
	if tbody.Length() == 0 {
		return nil, fmt.Errorf("%w: table %q has no body", scraper.ErrStructure, tableSelector)
	}

	dividends := []scraper.Dividend{}
	var rowErr error
	tbody.ChildrenFiltered("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		text := htmlutil.FlattenText(row)
		if !IsDividendRow(text) {
			return true
		}
		dividend, err := ParseDividendRow(text)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", i, err)
			return false
		}
		dividends = append(dividends, dividend)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return dividends, nil
}

// IsDividendRow reports whether the flattened text of a history row is a
// dividend event.
func IsDividendRow(text string) bool {
	return strings.HasSuffix(text, dividendMarker)
}

// ParseDividendRow parses the flattened text of a dividend row, which looks
// like "Aug 15, 2023 0.24 Dividend".
func ParseDividendRow(text string) (scraper.Dividend, error) {
	fields := strings.Fields(text)
	if len(fields) != 5 || fields[4] != dividendMarker {
		return scraper.Dividend{}, fmt.Errorf(
			"%w: expected \"<month> <day>, <year> <amount> %s\", got %q",
			scraper.ErrFormat, dividendMarker, text,
		)
	}

	month, ok := textutil.MonthNumber(fields[0])
	if !ok {
		return scraper.Dividend{}, fmt.Errorf("%w: unknown month %q in %q", scraper.ErrFormat, fields[0], text)
	}
	day, err := textutil.ParseDay(fields[1])
	if err != nil {
		return scraper.Dividend{}, fmt.Errorf("%w: %w", scraper.ErrFormat, err)
	}
	year, err := textutil.ParseYear(fields[2])
	if err != nil {
		return scraper.Dividend{}, fmt.Errorf("%w: %w", scraper.ErrFormat, err)
	}
	date, err := scraper.NewDate(year, month, day)
	if err != nil {
		return scraper.Dividend{}, fmt.Errorf("%w: %w", scraper.ErrFormat, err)
	}

	amount := fields[3]
	_, err = textutil.ParseAmount(amount)
	if err != nil {
		return scraper.Dividend{}, fmt.Errorf("%w: %w", scraper.ErrFormat, err)
	}

	return scraper.Dividend{
		Date:   date,
		Amount: amount,
	}, nil
}
