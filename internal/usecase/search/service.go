// Package search orchestrates a company search: geocode the query if it is a
// location, compile the specification into predicates, read count and slice
// from the dataset, rank by distance, page, and memoize through the Result
// Cache.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rooibos-labs/corpsearch/internal/cache"
	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/result"
	"github.com/rooibos-labs/corpsearch/internal/metrics"
)

// Service executes company searches. Stateless per call; the only shared
// mutable state is the Result Cache, which is safe for concurrent use.
type Service struct {
	data      Dataset
	geocoder  Geocoder
	cache     Cache
	bookmarks BookmarkReader
	logger    *zap.Logger
}

// New creates a search service. geocoder, cache, and bookmarks may be nil:
// location queries then fail with ErrLocationNotFound, caching is skipped,
// and results go undecorated.
func New(data Dataset, geocoder Geocoder, c Cache, bookmarks BookmarkReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{data: data, geocoder: geocoder, cache: c, bookmarks: bookmarks, logger: logger}
}

// Search computes one result page for the given specification.
func (s *Service) Search(ctx context.Context, spec *request.Spec) (*result.Page, error) {
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	key := cache.Key(spec)

	if page, ok := s.cacheGet(ctx, key); ok {
		s.decorate(ctx, spec.CallerID, page)
		return page, nil
	}

	var (
		page *result.Page
		err  error
	)
	if spec.ID != "" {
		page, err = s.lookupByID(ctx, spec)
	} else {
		page, err = s.compute(ctx, spec)
	}
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, page)

	// Decorate after the write-through so markers never enter the cache.
	page = page.Clone()
	s.decorate(ctx, spec.CallerID, page)
	return page, nil
}

// FinancialHistory lists fiscal-year financials for one record.
func (s *Service) FinancialHistory(ctx context.Context, companyID string) ([]domain.FinancialRecord, error) {
	records, err := s.data.FinancialHistory(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("financial history %s: %w", companyID, err)
	}
	return records, nil
}

// lookupByID serves the direct-lookup path: one record, no ranking, no
// paging.
func (s *Service) lookupByID(ctx context.Context, spec *request.Spec) (*result.Page, error) {
	rec, err := s.data.GetByID(ctx, spec.ID)
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return nil, fmt.Errorf("lookup %s: %w", spec.ID, err)
		}
		return nil, fmt.Errorf("%w: lookup %s: %s", domain.ErrDataSource, spec.ID, err.Error())
	}

	item := result.Item{Company: rec}
	if rec.HasCoordinates() {
		d := geo.DistanceMeters(spec.Origin(), geo.Point{Lat: *rec.Latitude, Lon: *rec.Longitude})
		item.DistanceMeters = &d
	}

	return &result.Page{
		Items:     []result.Item{item},
		Total:     1,
		Page:      1,
		PageSize:  spec.PageSize,
		PageCount: 1,
		Echo:      *spec,
	}, nil
}

// compute runs the full pipeline for a ranked listing.
func (s *Service) compute(ctx context.Context, spec *request.Spec) (*result.Page, error) {
	eff := spec
	if spec.LocationQuery() {
		resolved, err := s.resolveLocation(ctx, spec.FreeText)
		if err != nil {
			return nil, err
		}
		eff = spec.WithReference(resolved)
	}

	set := filter.Compile(eff)
	offset := (spec.Page - 1) * spec.PageSize

	// Count and slice are independent reads; run them concurrently.
	var (
		total int
		rows  []domain.Company
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.data.Count(gctx, set)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.data.Query(gctx, set, offset, spec.PageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDataSource, err.Error())
	}

	origin := eff.Origin()
	items := make([]result.Item, 0, len(rows))
	for i := range rows {
		item := result.Item{Company: rows[i]}
		if rows[i].HasCoordinates() {
			d := geo.DistanceMeters(origin, geo.Point{Lat: *rows[i].Latitude, Lon: *rows[i].Longitude})
			item.DistanceMeters = &d
		}
		items = append(items, item)
	}

	pageCount := (total + spec.PageSize - 1) / spec.PageSize

	return &result.Page{
		Items:     items,
		Total:     total,
		Page:      spec.Page,
		PageSize:  spec.PageSize,
		PageCount: pageCount,
		Echo:      *spec,
	}, nil
}

func (s *Service) resolveLocation(ctx context.Context, query string) (geo.Point, error) {
	if s.geocoder == nil {
		return geo.Point{}, fmt.Errorf("%w: no geocoder configured", domain.ErrLocationNotFound)
	}
	loc, err := s.geocoder.Resolve(ctx, query)
	if err != nil {
		metrics.GeocodeFailures.Inc()
		if errors.Is(err, domain.ErrLocationNotFound) {
			return geo.Point{}, err
		}
		return geo.Point{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, err.Error())
	}
	return geo.Point{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// cacheGet treats every cache failure as a miss: the cache is an
// optimization, never a correctness dependency.
func (s *Service) cacheGet(ctx context.Context, key string) (*result.Page, bool) {
	if s.cache == nil {
		return nil, false
	}
	page, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("result cache read failed", zap.Error(err))
		}
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return page, true
}

func (s *Service) cacheSet(ctx context.Context, key string, page *result.Page) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, page); err != nil {
		s.logger.Warn("result cache write failed", zap.Error(err))
	}
}

// decorate marks items the caller has bookmarked. Failures degrade to
// undecorated results.
func (s *Service) decorate(ctx context.Context, callerID string, page *result.Page) {
	if s.bookmarks == nil || callerID == "" || len(page.Items) == 0 {
		return
	}

	ids := make([]string, len(page.Items))
	for i := range page.Items {
		ids[i] = page.Items[i].Company.ID
	}

	markers, err := s.bookmarks.BookmarkIDs(ctx, callerID, ids)
	if err != nil {
		s.logger.Warn("bookmark decoration failed", zap.String("caller", callerID), zap.Error(err))
		return
	}
	for i := range page.Items {
		page.Items[i].BookmarkID = markers[page.Items[i].Company.ID]
	}
}
