// Package postgres implements the Dataset and BookmarkReader contracts over
// a PostgreSQL company directory via pgx. All predicates arrive as a
// structured AST and leave as parameterized SQL — no caller value is ever
// spliced into query text.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
	"github.com/rooibos-labs/corpsearch/internal/repository/sqlbuild"
)

// selectColumns is the projection shared by every record read. Text columns
// are COALESCEd so nullable registry fields scan into plain strings.
const selectColumns = `id, company_name, COALESCE(representative, ''),
	COALESCE(address, ''), COALESCE(postal_code, ''), COALESCE(phone_number, ''),
	COALESCE(website, ''), COALESCE(email, ''), COALESCE(industry_code, ''),
	COALESCE(industry_major, ''), COALESCE(industry_middle, ''),
	COALESCE(industry_small, ''), COALESCE(main_product, ''),
	COALESCE(establishment_date, ''), employee_count, sales_amount,
	recent_profit, net_income, retained_earnings, total_assets, total_equity,
	latitude, longitude, COALESCE(business_registration_number, ''),
	COALESCE(sme_type, ''), COALESCE(division, ''),
	COALESCE(confirming_authority, ''), COALESCE(venture_confirmation_type, ''),
	COALESCE(representative_gender, ''), COALESCE(representative_birth_year, 0)`

// Repo is a pgx-backed company directory.
type Repo struct {
	pool *pgxpool.Pool
}

// New connects a repository to the given pool.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Connect opens a pool for the DSN and wraps it in a repository.
func Connect(ctx context.Context, dsn string) (*Repo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(pool), nil
}

// GetByID fetches one record by ID.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.Company, error) {
	q := fmt.Sprintf("SELECT %s FROM master_company_info WHERE id = $1", selectColumns)

	rec, err := scanCompany(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Company{}, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, id)
		}
		return domain.Company{}, fmt.Errorf("get company %s: %w", id, err)
	}
	return rec, nil
}

// Count returns the number of records matching the predicate set.
func (r *Repo) Count(ctx context.Context, set filter.Set) (int, error) {
	compiled, err := sqlbuild.Build(set, sqlbuild.Postgres, false)
	if err != nil {
		return 0, fmt.Errorf("compile count query: %w", err)
	}

	q := fmt.Sprintf("SELECT COUNT(*) FROM master_company_info WHERE %s", compiled.Where)

	var total int
	if err := r.pool.QueryRow(ctx, q, compiled.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return total, nil
}

// Query returns the ordered slice [offset, offset+limit) of matches.
func (r *Repo) Query(ctx context.Context, set filter.Set, offset, limit int) ([]domain.Company, error) {
	compiled, err := sqlbuild.Build(set, sqlbuild.Postgres, false)
	if err != nil {
		return nil, fmt.Errorf("compile slice query: %w", err)
	}

	q := fmt.Sprintf(
		"SELECT %s FROM master_company_info WHERE %s ORDER BY %s OFFSET %d LIMIT %d",
		selectColumns, compiled.Where, compiled.OrderBy, offset, limit,
	)

	rows, err := r.pool.Query(ctx, q, compiled.Args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		rec, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

// FinancialHistory lists fiscal-year financials oldest first, with the
// year-over-year revenue growth rate computed against the preceding row.
func (r *Repo) FinancialHistory(ctx context.Context, companyID string) ([]domain.FinancialRecord, error) {
	const q = `SELECT company_id, year, revenue, net_income, total_assets,
		total_liabilities, retained_earnings
		FROM financial_data WHERE company_id = $1 ORDER BY year ASC`

	rows, err := r.pool.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("query financials: %w", err)
	}
	defer rows.Close()

	var out []domain.FinancialRecord
	for rows.Next() {
		var f domain.FinancialRecord
		if err := rows.Scan(
			&f.CompanyID, &f.Year, &f.Revenue, &f.NetIncome,
			&f.TotalAssets, &f.TotalLiabilities, &f.RetainedEarnings,
		); err != nil {
			return nil, fmt.Errorf("scan financials: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate financials: %w", err)
	}

	applyGrowthRates(out)
	return out, nil
}

// applyGrowthRates fills RevenueGrowthRate from consecutive-year revenue.
func applyGrowthRates(records []domain.FinancialRecord) {
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1].Revenue, records[i].Revenue
		if prev == nil || cur == nil || *prev == 0 {
			continue
		}
		records[i].RevenueGrowthRate = (*cur - *prev) / *prev * 100
	}
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close shuts down the pool.
func (r *Repo) Close() { r.pool.Close() }

// scanCompany reads one projection row into a Company.
func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Representative, &c.Address, &c.PostalCode,
		&c.Phone, &c.Website, &c.Email, &c.IndustryCode, &c.IndustryMajor,
		&c.IndustryMiddle, &c.IndustryMinor, &c.MainProduct,
		&c.EstablishmentDate, &c.EmployeeCount, &c.Sales, &c.Profit,
		&c.NetIncome, &c.RetainedEarnings, &c.TotalAssets, &c.TotalEquity,
		&c.Latitude, &c.Longitude, &c.BizRegNo, &c.SMEType, &c.Division,
		&c.ConfirmingAuthority, &c.VentureConfirmationType,
		&c.RepresentativeGender, &c.RepresentativeBirthYear,
	)
	return c, err
}
