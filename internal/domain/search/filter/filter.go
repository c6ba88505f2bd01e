// Package filter defines the predicate AST the search engine compiles a
// Filter Specification into. Conditions are structured variants — never
// caller-controlled strings — so storage backends can bind them as query
// parameters.
package filter

import (
	"fmt"

	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
)

// Field names a Company attribute a condition applies to.
type Field string

// Fields addressable by conditions.
const (
	FieldName              Field = "name"
	FieldRepresentative    Field = "representative"
	FieldAddress           Field = "address"
	FieldBizRegNo          Field = "biz_reg_no"
	FieldEmployeeCount     Field = "employee_count"
	FieldSales             Field = "sales"
	FieldProfit            Field = "profit"
	FieldNetIncome         Field = "net_income"
	FieldRetainedEarnings  Field = "retained_earnings"
	FieldTotalEquity       Field = "total_equity"
	FieldIndustryCode      Field = "industry_code"
	FieldSMEType           Field = "sme_type"
	FieldDivision          Field = "division"
	FieldConfirmingAuth    Field = "confirming_authority"
	FieldGender            Field = "gender"
	FieldRepresentativeAge Field = "representative_age"
	FieldEstablishedYear   Field = "established_year"
)

// Kind discriminates condition variants.
type Kind int

// Condition variants.
const (
	KindTextMatch Kind = iota
	KindRange
	KindSetMembership
	KindEquals
	KindGeoRadius
)

// Condition is a single boolean predicate over a Company record. Exactly one
// variant's fields are populated, per Kind. Conditions in a Set are
// conjunctive.
type Condition struct {
	Kind Kind

	// TextMatch: case-insensitive substring across Fields (OR within).
	Fields []Field
	Text   string

	// Range / Equals: single target field.
	Field Field
	Min   *float64
	Max   *float64
	Value string

	// SetMembership: exact membership (or exclusion, when Negated).
	Values  []string
	Negated bool

	// GeoRadius: distance from Center must not exceed RadiusMeters.
	Center       geo.Point
	RadiusMeters float64
}

// NewTextMatch creates a substring-match condition over one or more fields.
func NewTextMatch(fields []Field, text string) (Condition, error) {
	if len(fields) == 0 {
		return Condition{}, fmt.Errorf("text match requires at least one field")
	}
	if text == "" {
		return Condition{}, fmt.Errorf("text match requires a value")
	}
	return Condition{Kind: KindTextMatch, Fields: fields, Text: text}, nil
}

// NewRange creates a numeric range condition. At least one bound is required.
func NewRange(field Field, min, max *float64) (Condition, error) {
	if min == nil && max == nil {
		return Condition{}, fmt.Errorf("range on %s requires a bound", field)
	}
	if min != nil && max != nil && *min > *max {
		return Condition{}, fmt.Errorf("range on %s has min above max", field)
	}
	return Condition{Kind: KindRange, Field: field, Min: min, Max: max}, nil
}

// NewSetMembership creates an exact membership condition; negated inverts it.
func NewSetMembership(field Field, values []string, negated bool) (Condition, error) {
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("membership on %s requires values", field)
	}
	return Condition{Kind: KindSetMembership, Field: field, Values: values, Negated: negated}, nil
}

// NewEquals creates an exact equality condition.
func NewEquals(field Field, value string) Condition {
	return Condition{Kind: KindEquals, Field: field, Value: value}
}

// NewGeoRadius keeps records within radiusMeters of center.
func NewGeoRadius(center geo.Point, radiusMeters float64) Condition {
	return Condition{Kind: KindGeoRadius, Center: center, RadiusMeters: radiusMeters}
}

// OrderKey selects the result ordering.
type OrderKey int

// Orderings. Distance ordering requires an origin; ties always break on
// record ID so pagination stays stable.
const (
	OrderByDistance OrderKey = iota
	OrderByName
)

// Order is the sort instruction emitted alongside the predicate set.
type Order struct {
	Key    OrderKey
	Origin geo.Point
}

// Set is a compiled, executable predicate set: conjunctive conditions plus
// the required ordering.
type Set struct {
	Conditions []Condition
	Order      Order
	// RequireCoordinates excludes records lacking latitude/longitude. Set for
	// every geo-ranked listing; clear for pure free-text searches.
	RequireCoordinates bool
}
