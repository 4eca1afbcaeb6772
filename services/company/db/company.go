package db

import (
	"context"
)

const createCompany = `
insert into company(ticker, name) values (?, ?)
returning id, ticker, name
`

type CreateCompanyParams struct {
	Ticker string
	Name   string
}

func (q *Queries) CreateCompany(ctx context.Context, arg CreateCompanyParams) (Company, error) {
	row := q.db.QueryRowContext(ctx, createCompany, arg.Ticker, arg.Name)
	var i Company
	err := row.Scan(&i.ID, &i.Ticker, &i.Name)
	return i, err
}

const getCompanyByTicker = `
select id, ticker, name from company
where ticker = ?
`

func (q *Queries) GetCompanyByTicker(ctx context.Context, ticker string) (Company, error) {
	row := q.db.QueryRowContext(ctx, getCompanyByTicker, ticker)
	var i Company
	err := row.Scan(&i.ID, &i.Ticker, &i.Name)
	return i, err
}

const getCompanyByName = `
select id, ticker, name from company
where name = ?
`

func (q *Queries) GetCompanyByName(ctx context.Context, name string) (Company, error) {
	row := q.db.QueryRowContext(ctx, getCompanyByName, name)
	var i Company
	err := row.Scan(&i.ID, &i.Ticker, &i.Name)
	return i, err
}

const deleteCompanyByTicker = `
delete from company
where ticker = ?
returning id, ticker, name
`

func (q *Queries) DeleteCompanyByTicker(ctx context.Context, ticker string) (Company, error) {
	row := q.db.QueryRowContext(ctx, deleteCompanyByTicker, ticker)
	var i Company
	err := row.Scan(&i.ID, &i.Ticker, &i.Name)
	return i, err
}

const listCompanies = `
select id, ticker, name from company
order by name
limit ? offset ?
`

type ListCompaniesParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListCompanies(ctx context.Context, arg ListCompaniesParams) ([]Company, error) {
	rows, err := q.db.QueryContext(ctx, listCompanies, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Company
	for rows.Next() {
		var i Company
		if err := rows.Scan(&i.ID, &i.Ticker, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countCompanies = `
select count(*) from company
`

func (q *Queries) CountCompanies(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCompanies)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const searchCompanyNames = `
select name from company
where lower(name) like ? escape '\'
order by name
limit ?
`

type SearchCompanyNamesParams struct {
	// a lowercase LIKE pattern, wildcards in user input must already be escaped
	Pattern string
	Limit   int64
}

func (q *Queries) SearchCompanyNames(ctx context.Context, arg SearchCompanyNamesParams) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, searchCompanyNames, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listCompanyNames = `
select name from company
order by name
`

func (q *Queries) ListCompanyNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCompanyNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
