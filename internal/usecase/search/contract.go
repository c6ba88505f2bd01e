package search

import (
	"context"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/result"
)

// Dataset is the read-only company directory. A search issues at most two
// reads: one count, one slice.
type Dataset interface {
	// GetByID fetches one record; domain.ErrCompanyNotFound when absent.
	GetByID(ctx context.Context, id string) (domain.Company, error)

	// Count returns the number of records matching the predicate set,
	// independent of slicing.
	Count(ctx context.Context, set filter.Set) (int, error)

	// Query returns the ordered slice [offset, offset+limit) of matches.
	Query(ctx context.Context, set filter.Set, offset, limit int) ([]domain.Company, error)

	// FinancialHistory lists a record's fiscal-year financials, oldest first.
	FinancialHistory(ctx context.Context, companyID string) ([]domain.FinancialRecord, error)
}

// Geocoder resolves a free-text place query to coordinates.
// domain.ErrLocationNotFound when nothing matches. No retries are performed
// here; a failed resolution surfaces immediately.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (domain.Location, error)
}

// Cache is the Result Cache. Get returns domain.ErrCacheMiss when absent;
// any other failure is treated as a miss and never fails the search.
type Cache interface {
	Get(ctx context.Context, key string) (*result.Page, error)
	Set(ctx context.Context, key string, page *result.Page) error
}

// BookmarkReader decorates results with the caller's bookmark markers:
// company id → bookmark id for the ids the caller has bookmarked.
type BookmarkReader interface {
	BookmarkIDs(ctx context.Context, userID string, companyIDs []string) (map[string]string, error)
}
