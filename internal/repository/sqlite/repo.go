// Package sqlite implements the Dataset contract over an embedded SQLite
// directory. SQLite lacks the trigonometry the distance predicate needs, so
// geo conditions are prefiltered by bounding box in SQL and refined with the
// exact Haversine distance in Go; ordering likewise happens in Go.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
	"github.com/rooibos-labs/corpsearch/internal/repository/sqlbuild"
)

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

// Repo is an embedded company directory.
type Repo struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &Repo{db: db}, nil
}

// GetByID fetches one record by ID.
func (r *Repo) GetByID(ctx context.Context, id string) (domain.Company, error) {
	q := fmt.Sprintf("SELECT %s FROM master_company_info WHERE id = ?", selectColumns)

	rec, err := scanCompany(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Company{}, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, id)
		}
		return domain.Company{}, fmt.Errorf("get company %s: %w", id, err)
	}
	return rec, nil
}

// Count returns the number of matches. Geo predicates count via fetch+refine.
func (r *Repo) Count(ctx context.Context, set filter.Set) (int, error) {
	if geoCond := geoCondition(set); geoCond != nil {
		matched, err := r.fetchRefined(ctx, set, *geoCond)
		if err != nil {
			return 0, err
		}
		return len(matched), nil
	}

	compiled, err := sqlbuild.Build(set, sqlbuild.SQLite, true)
	if err != nil {
		return 0, fmt.Errorf("compile count query: %w", err)
	}

	q := fmt.Sprintf("SELECT COUNT(*) FROM master_company_info WHERE %s", compiled.Where)

	var total int
	if err := r.db.QueryRowContext(ctx, q, compiled.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return total, nil
}

// Query returns the ordered slice [offset, offset+limit) of matches. The
// ordering (distance or name) is applied in Go over the refined candidates.
func (r *Repo) Query(ctx context.Context, set filter.Set, offset, limit int) ([]domain.Company, error) {
	var (
		matched []domain.Company
		err     error
	)
	if geoCond := geoCondition(set); geoCond != nil {
		matched, err = r.fetchRefined(ctx, set, *geoCond)
	} else {
		matched, err = r.fetchAll(ctx, set)
	}
	if err != nil {
		return nil, err
	}

	set.Sort(matched)

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// FinancialHistory lists fiscal-year financials oldest first.
func (r *Repo) FinancialHistory(ctx context.Context, companyID string) ([]domain.FinancialRecord, error) {
	const q = `SELECT company_id, year, revenue, net_income, total_assets,
		total_liabilities, retained_earnings
		FROM financial_data WHERE company_id = ? ORDER BY year ASC`

	rows, err := r.db.QueryContext(ctx, q, companyID)
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

	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1].Revenue, out[i].Revenue
		if prev == nil || cur == nil || *prev == 0 {
			continue
		}
		out[i].RevenueGrowthRate = (*cur - *prev) / *prev * 100
	}
	return out, nil
}

// Ping checks the database file is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close shuts down the handle.
func (r *Repo) Close() error { return r.db.Close() }

// geoCondition extracts the radius condition, if any.
func geoCondition(set filter.Set) *filter.Condition {
	for i := range set.Conditions {
		if set.Conditions[i].Kind == filter.KindGeoRadius {
			return &set.Conditions[i]
		}
	}
	return nil
}

// fetchRefined runs the non-geo predicates plus a bounding-box prefilter in
// SQL, then refines candidates by exact distance.
func (r *Repo) fetchRefined(ctx context.Context, set filter.Set, geoCond filter.Condition) ([]domain.Company, error) {
	compiled, err := sqlbuild.Build(set, sqlbuild.SQLite, true)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	minLat, maxLat, minLon, maxLon := geo.BoundingBox(geoCond.Center, geoCond.RadiusMeters)
	where := compiled.Where + " AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?"
	args := append(compiled.Args, minLat, maxLat, minLon, maxLon)

	candidates, err := r.fetch(ctx, where, args)
	if err != nil {
		return nil, err
	}

	matched := candidates[:0]
	for i := range candidates {
		if !candidates[i].HasCoordinates() {
			continue
		}
		p := geo.Point{Lat: *candidates[i].Latitude, Lon: *candidates[i].Longitude}
		if geo.DistanceMeters(geoCond.Center, p) <= geoCond.RadiusMeters {
			matched = append(matched, candidates[i])
		}
	}
	return matched, nil
}

func (r *Repo) fetchAll(ctx context.Context, set filter.Set) ([]domain.Company, error) {
	compiled, err := sqlbuild.Build(set, sqlbuild.SQLite, true)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	return r.fetch(ctx, compiled.Where, compiled.Args)
}

func (r *Repo) fetch(ctx context.Context, where string, args []any) ([]domain.Company, error) {
	q := fmt.Sprintf("SELECT %s FROM master_company_info WHERE %s", selectColumns, where)

	rows, err := r.db.QueryContext(ctx, q, args...)
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

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(row scanner) (domain.Company, error) {
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
