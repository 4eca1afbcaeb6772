package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dividend-backend/lib/scraper"
	"dividend-backend/services/company/db"
)

// Lookup resolves registered company names, it is the read side the finance
// service depends on.
type Lookup struct {
	qry *db.Queries
}

func NewLookup(database *sql.DB) Lookup {
	return Lookup{qry: db.New(database)}
}

func (l Lookup) GetCompanyByName(ctx context.Context, name string) (scraper.Company, error) {
	ctx, span := tracer.Start(ctx, "GetCompanyByName")
	defer span.End()

	row, err := l.qry.GetCompanyByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return scraper.Company{}, fmt.Errorf("%w: company %q is not registered", scraper.ErrNotFound, name)
	}
	if err != nil {
		span.RecordError(err)
		return scraper.Company{}, err
	}
	return toCompany(row), nil
}

func toCompany(row db.Company) scraper.Company {
	return scraper.Company{
		Ticker: row.Ticker,
		Name:   row.Name,
	}
}
