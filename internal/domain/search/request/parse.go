package request

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
)

// monetaryScale converts caller-facing millions into the storage unit.
const monetaryScale = 1_000_000

// Raw is the loosely-typed request as it arrives at the transport boundary.
type Raw struct {
	ID              string
	Query           string
	QueryCategories []string
	UserID          string

	Latitude, Longitude         *float64
	UserLatitude, UserLongitude *float64

	Page, PageSize *int

	// FiltersJSON is the nested filter object, still undecoded.
	FiltersJSON string
}

// Limits bounds paging and radius defaults. Zero fields fall back to the
// package defaults.
type Limits struct {
	DefaultPageSize     int
	MaxPageSize         int
	DefaultRadiusMeters float64
}

func (l Limits) withDefaults() Limits {
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = DefaultPageSize
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = MaxPageSize
	}
	if l.DefaultRadiusMeters <= 0 {
		l.DefaultRadiusMeters = DefaultRadiusMeters
	}
	return l
}

// optNumber decodes a JSON value that may be a number, a numeric string,
// null, or the empty string. Null and "" both mean "filter absent".
type optNumber struct {
	value *float64
}

func (n *optNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	n.value = &v
	return nil
}

type rawMinMax struct {
	Min optNumber `json:"min"`
	Max optNumber `json:"max"`
}

type rawValue[T any] struct {
	Value T `json:"value"`
}

// rawFilters is the wire shape of the nested filter object.
type rawFilters struct {
	Radius             *rawValue[optNumber] `json:"radius"`
	Certification      *rawValue[[]string]  `json:"certification"`
	EmployeeCount      *rawMinMax           `json:"employee_count"`
	EstablishmentYear  *rawValue[optNumber] `json:"establishment_year"`
	IncludedIndustries *rawValue[string]    `json:"included_industries"`
	ExcludedIndustries *rawValue[string]    `json:"excluded_industries"`
	Gender             *rawValue[string]    `json:"gender"`
	RepresentativeAge  *rawValue[optNumber] `json:"representative_age"`
	NetProfit          *rawMinMax           `json:"net_profit"`
	Profit             *rawMinMax           `json:"profit"`
	Sales              *rawMinMax           `json:"sales"`
	UnallocatedProfit  *rawMinMax           `json:"unallocated_profit"`
	TotalEquity        *rawMinMax           `json:"total_equity"`
}

// certAliases maps spec-style certification names onto the canonical
// identifiers. Unknown names are dropped silently.
var certAliases = map[string]string{
	CertInnobiz:             CertInnobiz,
	CertMainbiz:             CertMainbiz,
	CertResearchInstitute:   CertResearchInstitute,
	CertVenture:             CertVenture,
	"innovation":            CertInnobiz,
	"management-innovation": CertMainbiz,
	"research-institute":    CertResearchInstitute,
}

var validCategories = map[string]struct{}{
	CategoryCompany:        {},
	CategoryRepresentative: {},
	CategoryBizNumber:      {},
	CategoryLocation:       {},
}

// Parse validates and normalizes a raw request into a Spec. It is pure: the
// geocoding of location queries happens later, in the search use case.
// Malformed nested JSON yields domain.ErrInvalidFilterSyntax.
func Parse(raw Raw, limits Limits) (*Spec, error) {
	limits = limits.withDefaults()

	spec := &Spec{
		ID:           strings.TrimSpace(raw.ID),
		FreeText:     strings.TrimSpace(raw.Query),
		CallerID:     raw.UserID,
		RadiusMeters: limits.DefaultRadiusMeters,
		Page:         1,
		PageSize:     limits.DefaultPageSize,
	}

	for _, c := range raw.QueryCategories {
		c = strings.TrimSpace(c)
		if _, ok := validCategories[c]; ok {
			spec.TextCategories = append(spec.TextCategories, c)
		}
	}

	if raw.Latitude != nil && raw.Longitude != nil {
		if !geo.ValidCoordinates(*raw.Latitude, *raw.Longitude) {
			return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidFilterSyntax)
		}
		spec.ReferencePoint = &geo.Point{Lat: *raw.Latitude, Lon: *raw.Longitude}
	}
	if raw.UserLatitude != nil && raw.UserLongitude != nil {
		if !geo.ValidCoordinates(*raw.UserLatitude, *raw.UserLongitude) {
			return nil, fmt.Errorf("%w: user coordinates out of range", domain.ErrInvalidFilterSyntax)
		}
		spec.UserPoint = geo.Point{Lat: *raw.UserLatitude, Lon: *raw.UserLongitude}
	}

	// Out-of-range paging values are corrected, not rejected.
	if raw.Page != nil && *raw.Page > 1 {
		spec.Page = *raw.Page
	}
	if raw.PageSize != nil && *raw.PageSize > 0 {
		spec.PageSize = *raw.PageSize
	}
	if spec.PageSize > limits.MaxPageSize {
		spec.PageSize = limits.MaxPageSize
	}

	if err := parseFilters(spec, raw.FiltersJSON); err != nil {
		return nil, err
	}

	spec.normalize()
	return spec, nil
}

func parseFilters(spec *Spec, filtersJSON string) error {
	if strings.TrimSpace(filtersJSON) == "" {
		return nil
	}

	var f rawFilters
	if err := json.Unmarshal([]byte(filtersJSON), &f); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidFilterSyntax, err.Error())
	}

	if f.Radius != nil && f.Radius.Value.value != nil && *f.Radius.Value.value > 0 {
		spec.RadiusMeters = *f.Radius.Value.value
	}

	ranges := map[string]Range{}
	addRange(ranges, FilterEmployeeCount, f.EmployeeCount, 1)
	addRange(ranges, FilterSales, f.Sales, monetaryScale)
	addRange(ranges, FilterProfit, f.Profit, monetaryScale)
	addRange(ranges, FilterNetProfit, f.NetProfit, monetaryScale)
	addRange(ranges, FilterUnallocatedProfit, f.UnallocatedProfit, monetaryScale)
	addRange(ranges, FilterTotalEquity, f.TotalEquity, monetaryScale)
	if len(ranges) > 0 {
		spec.NumericRanges = ranges
	}

	if f.EstablishmentYear != nil && f.EstablishmentYear.Value.value != nil {
		spec.EstablishmentYearMin = int(*f.EstablishmentYear.Value.value)
	}

	if f.IncludedIndustries != nil {
		spec.IncludedIndustries = splitIndustries(f.IncludedIndustries.Value)
	}
	if f.ExcludedIndustries != nil {
		spec.ExcludedIndustries = splitIndustries(f.ExcludedIndustries.Value)
	}

	if f.Certification != nil {
		seen := map[string]struct{}{}
		for _, name := range f.Certification.Value {
			canonical, ok := certAliases[strings.TrimSpace(name)]
			if !ok {
				continue // unmapped certification names are ignored, not errors
			}
			if _, dup := seen[canonical]; dup {
				continue
			}
			seen[canonical] = struct{}{}
			spec.Certifications = append(spec.Certifications, canonical)
		}
	}

	if f.Gender != nil {
		switch f.Gender.Value {
		case "male":
			spec.Gender = domain.GenderMale
		case "female":
			spec.Gender = domain.GenderFemale
		case "":
		default:
			return fmt.Errorf("%w: unknown gender %q", domain.ErrInvalidFilterSyntax, f.Gender.Value)
		}
	}

	if f.RepresentativeAge != nil && f.RepresentativeAge.Value.value != nil {
		spec.RepresentativeAgeMin = int(*f.RepresentativeAge.Value.value)
	}

	return nil
}

// addRange records a min/max filter, scaling caller units into storage units.
// A bound that is absent after decoding contributes nothing.
func addRange(ranges map[string]Range, name string, mm *rawMinMax, scale float64) {
	if mm == nil {
		return
	}
	var r Range
	if mm.Min.value != nil {
		v := *mm.Min.value * scale
		r.Min = &v
	}
	if mm.Max.value != nil {
		v := *mm.Max.value * scale
		r.Max = &v
	}
	if r.Min == nil && r.Max == nil {
		return
	}
	ranges[name] = r
}

func splitIndustries(joined string) []string {
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
