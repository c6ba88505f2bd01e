// Package request defines the Filter Specification: the validated, normalized
// form of a company search request.
package request

import (
	"sort"
	"strings"

	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
)

// Default and maximum paging/radius limits. Limits passed to Parse override
// these; zero values fall back here.
const (
	DefaultRadiusMeters = 200_000.0
	DefaultPageSize     = 20
	MaxPageSize         = 500
)

// Text categories a free-text query can be matched against. Location is
// special: it routes the query to the geocoding resolver instead of the
// record fields.
const (
	CategoryCompany        = "company"
	CategoryRepresentative = "representative"
	CategoryBizNumber      = "bizNumber"
	CategoryLocation       = "location"
)

// Canonical numeric-filter names. These key NumericRanges and are the only
// fields a range filter may target.
const (
	FilterEmployeeCount     = "employee_count"
	FilterSales             = "sales"
	FilterProfit            = "profit"
	FilterNetProfit         = "net_profit"
	FilterUnallocatedProfit = "unallocated_profit"
	FilterTotalEquity       = "total_equity"
)

// Canonical certification identifiers.
const (
	CertInnobiz           = "innobiz"
	CertMainbiz           = "mainbiz"
	CertResearchInstitute = "research_institute"
	CertVenture           = "venture"
)

// Range is an optional-bounded numeric interval. Nil bounds are absent.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Spec is the Filter Specification. It is fully determined by the incoming
// request: building one performs no I/O. Fields are normalized (sorted sets,
// clamped paging, scaled monetary units) so that equal requests produce
// byte-equal specs — the Result Cache keys off this.
type Spec struct {
	// ID requests a direct record lookup, bypassing ranking and paging.
	ID string `json:"id,omitempty"`

	FreeText       string   `json:"search,omitempty"`
	TextCategories []string `json:"categories,omitempty"`

	// ReferencePoint is the explicit ranking origin, when the caller supplied
	// coordinates or a location query was geocoded.
	ReferencePoint *geo.Point `json:"reference_point,omitempty"`
	// UserPoint is the caller's own location, (0,0) when unsupplied.
	UserPoint geo.Point `json:"user_point"`

	RadiusMeters float64 `json:"radius_meters"`

	NumericRanges        map[string]Range `json:"numeric_ranges,omitempty"`
	EstablishmentYearMin int              `json:"establishment_year_min,omitempty"`
	IncludedIndustries   []string         `json:"included_industries,omitempty"`
	ExcludedIndustries   []string         `json:"excluded_industries,omitempty"`
	Certifications       []string         `json:"certifications,omitempty"`
	Gender               string           `json:"gender,omitempty"`
	RepresentativeAgeMin int              `json:"representative_age_min,omitempty"`

	Page     int `json:"page"`
	PageSize int `json:"page_size"`

	// CallerID decorates results with the caller's bookmark markers. It never
	// filters the candidate set and is excluded from the cache key.
	CallerID string `json:"-"`
}

// LocationQuery reports whether the free text should be resolved by the
// geocoder rather than matched against record fields.
func (s *Spec) LocationQuery() bool {
	if s.FreeText == "" {
		return false
	}
	for _, c := range s.TextCategories {
		if c == CategoryLocation {
			return true
		}
	}
	return false
}

// TextSearch reports whether a free-text record match is active. A location
// query is not a text search: it resolves to coordinates.
func (s *Spec) TextSearch() bool {
	return s.FreeText != "" && !s.LocationQuery()
}

// Origin returns the ranking origin: the explicit reference point when
// present, else the caller's own location.
func (s *Spec) Origin() geo.Point {
	if s.ReferencePoint != nil {
		return *s.ReferencePoint
	}
	return s.UserPoint
}

// WithReference returns a copy of the spec whose reference point is the given
// resolved location and whose free text no longer participates in record
// matching. Used after geocoding a location query.
func (s *Spec) WithReference(p geo.Point) *Spec {
	out := *s
	out.ReferencePoint = &p
	out.FreeText = ""
	out.TextCategories = nil
	return &out
}

// normalize trims the free text and sorts set-valued fields so equal
// requests yield identical specs. Case-folding for matching and cache keying
// happens at the point of use.
func (s *Spec) normalize() {
	s.FreeText = strings.TrimSpace(s.FreeText)
	sort.Strings(s.TextCategories)
	sort.Strings(s.IncludedIndustries)
	sort.Strings(s.ExcludedIndustries)
	sort.Strings(s.Certifications)
}
