package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dividend-backend/lib/scraper"
	"dividend-backend/services/company/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrCompanyExists = errors.New("company already exists")

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Resolver turns a ticker into a company, usually backed by a scraper.
type Resolver interface {
	ResolveCompany(ctx context.Context, ticker string) (scraper.Company, error)
}

// Evicter drops whatever is cached for a company.
type Evicter interface {
	Evict(ctx context.Context, companyName string) error
}

type Service struct {
	db       *sql.DB
	qry      *db.Queries
	resolver Resolver
	evicter  Evicter
}

func NewService(database *sql.DB, resolver Resolver, evicter Evicter) Service {
	return Service{
		db:       database,
		qry:      db.New(database),
		resolver: resolver,
		evicter:  evicter,
	}
}

type Page struct {
	Companies []scraper.Company `json:"companies"`
	Total     int64             `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

// sqlite reports both unique columns the same way, regardless of driver
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s Service) AddCompany(ctx context.Context, ticker string) (scraper.Company, error) {
	ctx, span := tracer.Start(ctx, "AddCompany")
	defer span.End()

	ticker, err := scraper.NormalizeTicker(ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}
	span.SetAttributes(attribute.String("ticker", ticker))

	_, err = s.qry.GetCompanyByTicker(ctx, ticker)
	if err == nil {
		return scraper.Company{}, fmt.Errorf("%w: %s", ErrCompanyExists, ticker)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}

	company, err := s.resolver.ResolveCompany(ctx, ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}
	if company.Name == "" {
		err := fmt.Errorf("%w: could not resolve a name for %s", scraper.ErrNotFound, ticker)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}

	row, err := s.qry.CreateCompany(ctx, db.CreateCompanyParams{
		Ticker: company.Ticker,
		Name:   company.Name,
	})
	if isUniqueViolation(err) {
		return scraper.Company{}, fmt.Errorf("%w: %s (%s)", ErrCompanyExists, company.Name, company.Ticker)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return scraper.Company{}, err
	}

	slog.InfoContext(ctx, "added company", "ticker", row.Ticker, "name", row.Name)
	return toCompany(row), nil
}

// DeleteCompany removes a company and its cached dividend history, the row
// is only deleted if the eviction succeeds. The cache is evicted once more
// after the commit. It returns the deleted company's name.
func (s Service) DeleteCompany(ctx context.Context, ticker string) (string, error) {
	ctx, span := tracer.Start(ctx, "DeleteCompany")
	defer span.End()

	ticker, err := scraper.NormalizeTicker(ticker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("ticker", ticker))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	row, err := txqry.DeleteCompanyByTicker(ctx, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: ticker %s is not registered", scraper.ErrNotFound, ticker)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	err = s.evicter.Evict(ctx, row.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("evict %q: %w", row.Name, err)
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	// lookups made before the commit still see the row and may have
	// refilled the cache since the first eviction.
	err = s.evicter.Evict(ctx, row.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("company %q was deleted but its cache could not be evicted: %w", row.Name, err)
	}

	slog.InfoContext(ctx, "deleted company", "ticker", row.Ticker, "name", row.Name)
	return row.Name, nil
}

func (s Service) ListCompanies(ctx context.Context, limit, offset int) (Page, error) {
	ctx, span := tracer.Start(ctx, "ListCompanies")
	defer span.End()

	limit = clampLimit(limit)
	offset = max(offset, 0)

	rows, err := s.qry.ListCompanies(ctx, db.ListCompaniesParams{
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Page{}, err
	}
	total, err := s.qry.CountCompanies(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Page{}, err
	}

	companies := make([]scraper.Company, len(rows))
	for i, row := range rows {
		companies[i] = toCompany(row)
	}
	return Page{
		Companies: companies,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Autocomplete returns registered company names starting with keyword,
// ignoring case.
func (s Service) Autocomplete(ctx context.Context, keyword string, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Autocomplete")
	defer span.End()

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return []string{}, nil
	}

	names, err := s.qry.SearchCompanyNames(ctx, db.SearchCompanyNamesParams{
		Pattern: likeEscaper.Replace(keyword) + "%",
		Limit:   int64(clampLimit(limit)),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
