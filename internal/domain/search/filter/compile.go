package filter

import (
	"sort"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
)

// rangeTargets maps numeric-filter names onto record fields. Adding a
// range-filterable field is a table entry, not new control flow.
var rangeTargets = map[string]Field{
	request.FilterEmployeeCount:     FieldEmployeeCount,
	request.FilterSales:             FieldSales,
	request.FilterProfit:            FieldProfit,
	request.FilterNetProfit:         FieldNetIncome,
	request.FilterUnallocatedProfit: FieldRetainedEarnings,
	request.FilterTotalEquity:       FieldTotalEquity,
}

// certTargets maps each certification onto the structural predicate it
// asserts. Multiple selected certifications are conjunctive.
var certTargets = map[string]Condition{
	request.CertInnobiz:           NewEquals(FieldSMEType, domain.SMETypeTechInnovation),
	request.CertMainbiz:           NewEquals(FieldSMEType, domain.SMETypeMgmtInnovation),
	request.CertResearchInstitute: NewEquals(FieldDivision, domain.DivisionResearchLab),
	request.CertVenture:           NewEquals(FieldConfirmingAuth, domain.VentureAuthority),
}

// textFields maps query categories onto the record fields free text matches.
var textFields = map[string]Field{
	request.CategoryCompany:        FieldName,
	request.CategoryRepresentative: FieldRepresentative,
	request.CategoryBizNumber:      FieldBizRegNo,
}

// allTextFields is the match set when no category is selected.
var allTextFields = []Field{FieldName, FieldRepresentative, FieldBizRegNo, FieldAddress}

// Compile turns a Filter Specification into an executable predicate set with
// its required ordering. Conditions are conjunctive across categories. When a
// free-text search is active the radius predicate is suppressed and results
// order by name; otherwise by distance from the spec's origin.
func Compile(spec *request.Spec) Set {
	var set Set

	if spec.TextSearch() {
		fields := make([]Field, 0, len(spec.TextCategories))
		for _, c := range spec.TextCategories {
			if f, ok := textFields[c]; ok {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			fields = allTextFields
		}
		if cond, err := NewTextMatch(fields, spec.FreeText); err == nil {
			set.Conditions = append(set.Conditions, cond)
		}
		set.Order = Order{Key: OrderByName}
	} else {
		origin := spec.Origin()
		set.Conditions = append(set.Conditions, NewGeoRadius(origin, spec.RadiusMeters))
		set.RequireCoordinates = true
		set.Order = Order{Key: OrderByDistance, Origin: origin}
	}

	for _, name := range sortedRangeNames(spec.NumericRanges) {
		r := spec.NumericRanges[name]
		field, ok := rangeTargets[name]
		if !ok {
			continue
		}
		if cond, err := NewRange(field, r.Min, r.Max); err == nil {
			set.Conditions = append(set.Conditions, cond)
		}
	}

	if spec.EstablishmentYearMin > 0 {
		min := float64(spec.EstablishmentYearMin)
		if cond, err := NewRange(FieldEstablishedYear, &min, nil); err == nil {
			set.Conditions = append(set.Conditions, cond)
		}
	}

	if len(spec.IncludedIndustries) > 0 {
		if cond, err := NewSetMembership(FieldIndustryCode, spec.IncludedIndustries, false); err == nil {
			set.Conditions = append(set.Conditions, cond)
		}
	}
	if len(spec.ExcludedIndustries) > 0 {
		if cond, err := NewSetMembership(FieldIndustryCode, spec.ExcludedIndustries, true); err == nil {
			set.Conditions = append(set.Conditions, cond)
		}
	}

	for _, cert := range spec.Certifications {
		if cond, ok := certTargets[cert]; ok {
			set.Conditions = append(set.Conditions, cond)
		}
	}

	if spec.Gender != "" {
		set.Conditions = append(set.Conditions, NewEquals(FieldGender, spec.Gender))
	}
	if spec.RepresentativeAgeMin > 0 {
		min := float64(spec.RepresentativeAgeMin)
		if cond, err := NewRange(FieldRepresentativeAge, &min, nil); err == nil {
			set.Conditions = append(set.Conditions, cond)
		}
	}

	return set
}

// sortedRangeNames yields map keys in deterministic order so compiled sets
// are reproducible for identical specs.
func sortedRangeNames(ranges map[string]request.Range) []string {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
