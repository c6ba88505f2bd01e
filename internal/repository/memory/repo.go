// Package memory implements the Dataset contract over an in-process record
// slice. It is the reference evaluator for the predicate AST, the backend
// for local development, and the fixture engine for tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
)

// Repo is an immutable in-memory company directory.
type Repo struct {
	companies  []domain.Company
	byID       map[string]int
	financials map[string][]domain.FinancialRecord

	// now anchors the representative-age predicate; overridable in tests.
	now func() time.Time
}

// New creates a repository over the given records.
func New(companies []domain.Company, financials map[string][]domain.FinancialRecord) *Repo {
	byID := make(map[string]int, len(companies))
	for i := range companies {
		byID[companies[i].ID] = i
	}
	return &Repo{
		companies:  companies,
		byID:       byID,
		financials: financials,
		now:        time.Now,
	}
}

// Load reads a JSON file holding an array of company records.
func Load(path string) (*Repo, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var companies []domain.Company
	if err := json.Unmarshal(data, &companies); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return New(companies, nil), nil
}

// WithNow overrides the clock used for age predicates. Returns the repo for
// chaining in test setup.
func (r *Repo) WithNow(now func() time.Time) *Repo {
	r.now = now
	return r
}

// GetByID fetches one record by ID.
func (r *Repo) GetByID(_ context.Context, id string) (domain.Company, error) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Company{}, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, id)
	}
	return r.companies[i], nil
}

// Count scans the directory for records matching the predicate set.
func (r *Repo) Count(_ context.Context, set filter.Set) (int, error) {
	year := r.now().Year()
	n := 0
	for i := range r.companies {
		if set.Matches(&r.companies[i], year) {
			n++
		}
	}
	return n, nil
}

// Query returns the ordered slice [offset, offset+limit) of matches.
func (r *Repo) Query(_ context.Context, set filter.Set, offset, limit int) ([]domain.Company, error) {
	year := r.now().Year()

	var matched []domain.Company
	for i := range r.companies {
		if set.Matches(&r.companies[i], year) {
			matched = append(matched, r.companies[i])
		}
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

// FinancialHistory lists a record's fiscal-year financials, oldest first.
func (r *Repo) FinancialHistory(_ context.Context, companyID string) ([]domain.FinancialRecord, error) {
	if _, ok := r.byID[companyID]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, companyID)
	}
	return r.financials[companyID], nil
}

// Ping always succeeds for the in-memory dataset.
func (r *Repo) Ping(_ context.Context) error { return nil }
