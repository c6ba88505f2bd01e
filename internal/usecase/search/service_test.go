package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/result"
)

func f64(v float64) *float64 { return &v }

// --- Mocks ---

type mockDataset struct {
	byID       map[string]domain.Company
	byIDErr    error
	rows       []domain.Company
	total      int
	countErr   error
	queryErr   error
	financials []domain.FinancialRecord

	countCalls int
	queryCalls int
	lastSet    filter.Set
	lastOffset int
	lastLimit  int
}

func (m *mockDataset) GetByID(_ context.Context, id string) (domain.Company, error) {
	if m.byIDErr != nil {
		return domain.Company{}, m.byIDErr
	}
	rec, ok := m.byID[id]
	if !ok {
		return domain.Company{}, fmt.Errorf("%w: %s", domain.ErrCompanyNotFound, id)
	}
	return rec, nil
}

func (m *mockDataset) Count(_ context.Context, set filter.Set) (int, error) {
	m.countCalls++
	m.lastSet = set
	return m.total, m.countErr
}

func (m *mockDataset) Query(_ context.Context, set filter.Set, offset, limit int) ([]domain.Company, error) {
	m.queryCalls++
	m.lastSet = set
	m.lastOffset = offset
	m.lastLimit = limit
	return m.rows, m.queryErr
}

func (m *mockDataset) FinancialHistory(_ context.Context, _ string) ([]domain.FinancialRecord, error) {
	return m.financials, nil
}

type mockGeocoder struct {
	loc    domain.Location
	err    error
	called bool
}

func (m *mockGeocoder) Resolve(_ context.Context, _ string) (domain.Location, error) {
	m.called = true
	return m.loc, m.err
}

type mockCache struct {
	store   map[string]*result.Page
	getErr  error
	setErr  error
	gets    int
	sets    int
	lastKey string
}

func newMockCache() *mockCache {
	return &mockCache{store: map[string]*result.Page{}}
}

func (m *mockCache) Get(_ context.Context, key string) (*result.Page, error) {
	m.gets++
	m.lastKey = key
	if m.getErr != nil {
		return nil, m.getErr
	}
	page, ok := m.store[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return page.Clone(), nil
}

func (m *mockCache) Set(_ context.Context, key string, page *result.Page) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.store[key] = page.Clone()
	return nil
}

type mockBookmarks struct {
	markers map[string]string
	err     error
	lastIDs []string
	lastUID string
}

func (m *mockBookmarks) BookmarkIDs(_ context.Context, userID string, companyIDs []string) (map[string]string, error) {
	m.lastUID = userID
	m.lastIDs = companyIDs
	return m.markers, m.err
}

func located(id, name string, lat, lon float64) domain.Company {
	return domain.Company{ID: id, Name: name, Latitude: f64(lat), Longitude: f64(lon)}
}

func geoSpec() *request.Spec {
	return &request.Spec{
		UserPoint:    geo.Point{Lat: 37.5, Lon: 127.0},
		RadiusMeters: 5000,
		Page:         1,
		PageSize:     20,
	}
}

// --- Tests ---

func TestSearch_RadiusListing(t *testing.T) {
	data := &mockDataset{
		rows:  []domain.Company{located("1", "Near", 37.51, 127.0)},
		total: 1,
	}
	svc := New(data, nil, nil, nil, nil)

	page, err := svc.Search(context.Background(), geoSpec())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].DistanceMeters == nil {
		t.Fatal("geo-ranked item must carry a distance")
	}
	if d := *page.Items[0].DistanceMeters; d < 1000 || d > 1300 {
		t.Errorf("distance = %v, want ~1112 m", d)
	}
	if !data.lastSet.RequireCoordinates {
		t.Error("geo listing must require coordinates")
	}
	if data.lastSet.Order.Key != filter.OrderByDistance {
		t.Error("geo listing must order by distance")
	}
}

func TestSearch_CountAndSliceBothIssued(t *testing.T) {
	data := &mockDataset{total: 25}
	svc := New(data, nil, nil, nil, nil)

	spec := geoSpec()
	spec.Page = 3
	spec.PageSize = 10

	page, err := svc.Search(context.Background(), spec)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if data.countCalls != 1 || data.queryCalls != 1 {
		t.Errorf("calls = %d count, %d query, want 1 each", data.countCalls, data.queryCalls)
	}
	if data.lastOffset != 20 || data.lastLimit != 10 {
		t.Errorf("slice = [%d, +%d), want [20, +10)", data.lastOffset, data.lastLimit)
	}
	if page.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", page.PageCount)
	}
	if page.Total != 25 {
		t.Errorf("Total = %d, want 25", page.Total)
	}
}

func TestSearch_TextSearchCompilesWithoutRadius(t *testing.T) {
	data := &mockDataset{total: 1, rows: []domain.Company{{ID: "1", Name: "Acme"}}}
	svc := New(data, nil, nil, nil, nil)

	spec := geoSpec()
	spec.FreeText = "Acme"
	spec.TextCategories = []string{request.CategoryCompany}

	page, err := svc.Search(context.Background(), spec)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	for _, c := range data.lastSet.Conditions {
		if c.Kind == filter.KindGeoRadius {
			t.Error("free-text search must not reach the dataset with a radius predicate")
		}
	}
	if data.lastSet.Order.Key != filter.OrderByName {
		t.Error("free-text search must order by name")
	}
	if page.Items[0].DistanceMeters != nil {
		t.Error("record without coordinates must have nil distance")
	}
}

func TestSearch_DataSourceFailure(t *testing.T) {
	data := &mockDataset{countErr: errors.New("connection refused")}
	svc := New(data, nil, nil, nil, nil)

	_, err := svc.Search(context.Background(), geoSpec())
	if !errors.Is(err, domain.ErrDataSource) {
		t.Fatalf("expected ErrDataSource, got %v", err)
	}
}

func TestSearch_LocationQueryGeocodes(t *testing.T) {
	data := &mockDataset{total: 0}
	gc := &mockGeocoder{loc: domain.Location{Latitude: 37.49, Longitude: 127.03}}
	svc := New(data, gc, nil, nil, nil)

	spec := geoSpec()
	spec.FreeText = "Gangnam"
	spec.TextCategories = []string{request.CategoryLocation}

	if _, err := svc.Search(context.Background(), spec); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !gc.called {
		t.Fatal("expected the geocoder to be called")
	}
	if data.lastSet.Order.Key != filter.OrderByDistance {
		t.Error("resolved location query must rank by distance")
	}
	if got := data.lastSet.Order.Origin; got.Lat != 37.49 || got.Lon != 127.03 {
		t.Errorf("origin = %v, want the geocoded point", got)
	}
	for _, c := range data.lastSet.Conditions {
		if c.Kind == filter.KindTextMatch {
			t.Error("resolved location text must not also match record fields")
		}
	}
}

func TestSearch_LocationNotFound(t *testing.T) {
	gc := &mockGeocoder{err: domain.ErrLocationNotFound}
	svc := New(&mockDataset{}, gc, nil, nil, nil)

	spec := geoSpec()
	spec.FreeText = "Nowhere"
	spec.TextCategories = []string{request.CategoryLocation}

	_, err := svc.Search(context.Background(), spec)
	if !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestSearch_LocationQueryWithoutGeocoder(t *testing.T) {
	svc := New(&mockDataset{}, nil, nil, nil, nil)

	spec := geoSpec()
	spec.FreeText = "Gangnam"
	spec.TextCategories = []string{request.CategoryLocation}

	_, err := svc.Search(context.Background(), spec)
	if !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestSearch_IDLookupBypassesPaging(t *testing.T) {
	rec := located("42", "Target", 37.51, 127.0)
	data := &mockDataset{byID: map[string]domain.Company{"42": rec}}
	svc := New(data, nil, nil, nil, nil)

	spec := geoSpec()
	spec.ID = "42"
	spec.Page = 7

	page, err := svc.Search(context.Background(), spec)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if page.Total != 1 || page.PageCount != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v, want exactly one record", page)
	}
	if page.Items[0].Company.ID != "42" {
		t.Errorf("record = %q, want 42", page.Items[0].Company.ID)
	}
	if data.countCalls != 0 || data.queryCalls != 0 {
		t.Error("id lookup must not scan the dataset")
	}
}

func TestSearch_IDLookupNotFound(t *testing.T) {
	svc := New(&mockDataset{}, nil, nil, nil, nil)

	spec := geoSpec()
	spec.ID = "no-such"

	_, err := svc.Search(context.Background(), spec)
	if !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestSearch_IDLookupDatasetFailure(t *testing.T) {
	// A backend failure on the id path is a data-source error, same as on the
	// count/slice path, not a generic internal error.
	svc := New(&mockDataset{byIDErr: errors.New("connection reset")}, nil, nil, nil, nil)

	spec := geoSpec()
	spec.ID = "42"

	_, err := svc.Search(context.Background(), spec)
	if !errors.Is(err, domain.ErrDataSource) {
		t.Fatalf("expected ErrDataSource, got %v", err)
	}
}

func TestSearch_CacheWriteThroughAndHit(t *testing.T) {
	data := &mockDataset{rows: []domain.Company{located("1", "Near", 37.51, 127.0)}, total: 1}
	c := newMockCache()
	svc := New(data, nil, c, nil, nil)

	first, err := svc.Search(context.Background(), geoSpec())
	if err != nil {
		t.Fatalf("first Search: %v", err)
	}
	if c.sets != 1 {
		t.Fatalf("sets = %d, want write-through on miss", c.sets)
	}

	second, err := svc.Search(context.Background(), geoSpec())
	if err != nil {
		t.Fatalf("second Search: %v", err)
	}

	if data.countCalls != 1 || data.queryCalls != 1 {
		t.Errorf("dataset reached on a cache hit: %d count, %d query", data.countCalls, data.queryCalls)
	}
	if first.Total != second.Total || len(first.Items) != len(second.Items) {
		t.Error("hit and miss must return identical results")
	}
	if first.Items[0].Company.ID != second.Items[0].Company.ID {
		t.Error("hit and miss must return identical items")
	}
}

func TestSearch_CacheFailuresFallBack(t *testing.T) {
	data := &mockDataset{rows: []domain.Company{located("1", "Near", 37.51, 127.0)}, total: 1}
	c := newMockCache()
	c.getErr = domain.ErrCacheUnavailable
	c.setErr = domain.ErrCacheUnavailable
	svc := New(data, nil, c, nil, nil)

	page, err := svc.Search(context.Background(), geoSpec())
	if err != nil {
		t.Fatalf("Search must not fail on a broken cache: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}
}

func TestSearch_BookmarkDecorationAfterCacheRead(t *testing.T) {
	data := &mockDataset{rows: []domain.Company{located("1", "Near", 37.51, 127.0)}, total: 1}
	c := newMockCache()
	bm := &mockBookmarks{markers: map[string]string{"1": "bm-9"}}
	svc := New(data, nil, c, bm, nil)

	spec := geoSpec()
	spec.CallerID = "user-1"

	page, err := svc.Search(context.Background(), spec)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Items[0].BookmarkID != "bm-9" {
		t.Errorf("BookmarkID = %q, want bm-9", page.Items[0].BookmarkID)
	}
	if bm.lastUID != "user-1" {
		t.Errorf("bookmark lookup for %q, want user-1", bm.lastUID)
	}

	// The cached payload must stay undecorated.
	cached := c.store[c.lastKey]
	if cached.Items[0].BookmarkID != "" {
		t.Error("bookmark marker leaked into the cached payload")
	}

	// A different caller hitting the cache gets their own markers.
	other := geoSpec()
	other.CallerID = "user-2"
	bm.markers = nil

	page, err = svc.Search(context.Background(), other)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Items[0].BookmarkID != "" {
		t.Error("another caller's markers leaked via the cache")
	}
	if data.queryCalls != 1 {
		t.Error("second caller should have hit the cache")
	}
}

func TestSearch_DecorationFailureDegrades(t *testing.T) {
	data := &mockDataset{rows: []domain.Company{located("1", "Near", 37.51, 127.0)}, total: 1}
	bm := &mockBookmarks{err: errors.New("bookmark store down")}
	svc := New(data, nil, nil, bm, nil)

	spec := geoSpec()
	spec.CallerID = "user-1"

	page, err := svc.Search(context.Background(), spec)
	if err != nil {
		t.Fatalf("Search must not fail on decoration: %v", err)
	}
	if page.Items[0].BookmarkID != "" {
		t.Error("failed decoration must leave items unmarked")
	}
}

func TestSearch_EmployeeRangeExcludesOutOfBounds(t *testing.T) {
	spec := geoSpec()
	spec.NumericRanges = map[string]request.Range{
		request.FilterEmployeeCount: {Min: f64(50), Max: f64(200)},
	}
	set := filter.Compile(spec)

	rec := located("1", "Big", 37.5, 127.0)
	rec.EmployeeCount = f64(201)
	if set.Matches(&rec, 2026) {
		t.Error("record with employee_count=201 must fail a [50, 200] range")
	}
	rec.EmployeeCount = f64(200)
	if !set.Matches(&rec, 2026) {
		t.Error("record with employee_count=200 must pass a [50, 200] range")
	}
}

func TestFinancialHistory(t *testing.T) {
	data := &mockDataset{financials: []domain.FinancialRecord{{CompanyID: "1", Year: 2023}}}
	svc := New(data, nil, nil, nil, nil)

	records, err := svc.FinancialHistory(context.Background(), "1")
	if err != nil {
		t.Fatalf("FinancialHistory: %v", err)
	}
	if len(records) != 1 || records[0].Year != 2023 {
		t.Errorf("records = %+v", records)
	}
}
