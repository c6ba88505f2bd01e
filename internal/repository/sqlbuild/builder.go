// Package sqlbuild compiles the predicate AST into parameterized SQL.
// Caller-controlled values only ever travel as bind arguments; the clause
// text is assembled purely from the static field-mapping tables below.
package sqlbuild

import (
	"fmt"
	"strings"

	"github.com/rooibos-labs/corpsearch/internal/domain/search/filter"
)

// Dialect selects placeholder style and dialect-specific expressions.
type Dialect int

// Supported dialects.
const (
	Postgres Dialect = iota
	SQLite
)

// columns maps AST fields onto directory columns.
var columns = map[filter.Field]string{
	filter.FieldName:             "company_name",
	filter.FieldRepresentative:   "representative",
	filter.FieldAddress:          "address",
	filter.FieldBizRegNo:         "business_registration_number",
	filter.FieldEmployeeCount:    "employee_count",
	filter.FieldSales:            "sales_amount",
	filter.FieldProfit:           "recent_profit",
	filter.FieldNetIncome:        "net_income",
	filter.FieldRetainedEarnings: "retained_earnings",
	filter.FieldTotalEquity:      "total_equity",
	filter.FieldIndustryCode:     "industry_code",
	filter.FieldSMEType:          "sme_type",
	filter.FieldDivision:         "division",
	filter.FieldConfirmingAuth:   "confirming_authority",
	filter.FieldGender:           "representative_gender",
}

// computed holds per-dialect expressions for fields derived from columns.
var computed = map[Dialect]map[filter.Field]string{
	Postgres: {
		filter.FieldEstablishedYear:   "SUBSTRING(establishment_date, 1, 4)::integer",
		filter.FieldRepresentativeAge: "(EXTRACT(YEAR FROM CURRENT_DATE) - representative_birth_year)",
	},
	SQLite: {
		filter.FieldEstablishedYear:   "CAST(substr(establishment_date, 1, 4) AS INTEGER)",
		filter.FieldRepresentativeAge: "(CAST(strftime('%Y', 'now') AS INTEGER) - representative_birth_year)",
	},
}

// Query is a compiled WHERE/ORDER BY pair with its bind arguments.
type Query struct {
	Where   string
	OrderBy string
	Args    []any
}

// Builder accumulates clauses and bind arguments for one statement.
type Builder struct {
	dialect Dialect
	clauses []string
	args    []any
}

// New creates a builder for the given dialect.
func New(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// placeholder appends an argument and returns its placeholder token.
func (b *Builder) placeholder(arg any) string {
	b.args = append(b.args, arg)
	if b.dialect == Postgres {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

// Build compiles the predicate set. Backends that cannot evaluate geo
// predicates server-side pass skipGeo and refine in application code.
func Build(set filter.Set, dialect Dialect, skipGeo bool) (Query, error) {
	b := New(dialect)

	if set.RequireCoordinates {
		b.clauses = append(b.clauses, "latitude IS NOT NULL AND longitude IS NOT NULL")
	}

	for i := range set.Conditions {
		if err := b.addCondition(&set.Conditions[i], skipGeo); err != nil {
			return Query{}, err
		}
	}

	where := "TRUE"
	if dialect == SQLite {
		where = "1=1"
	}
	if len(b.clauses) > 0 {
		where = strings.Join(b.clauses, " AND ")
	}

	orderBy, err := b.orderBy(set.Order, skipGeo)
	if err != nil {
		return Query{}, err
	}

	return Query{Where: where, OrderBy: orderBy, Args: b.args}, nil
}

func (b *Builder) addCondition(c *filter.Condition, skipGeo bool) error {
	switch c.Kind {
	case filter.KindTextMatch:
		return b.addTextMatch(c)
	case filter.KindRange:
		return b.addRange(c)
	case filter.KindSetMembership:
		return b.addSetMembership(c)
	case filter.KindEquals:
		col, ok := columns[c.Field]
		if !ok {
			return fmt.Errorf("no column for field %s", c.Field)
		}
		b.clauses = append(b.clauses, fmt.Sprintf("%s = %s", col, b.placeholder(c.Value)))
		return nil
	case filter.KindGeoRadius:
		if skipGeo {
			return nil
		}
		return b.addGeoRadius(c)
	default:
		return fmt.Errorf("unknown condition kind %d", c.Kind)
	}
}

func (b *Builder) addTextMatch(c *filter.Condition) error {
	pattern := "%" + c.Text + "%"
	parts := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		col, ok := columns[f]
		if !ok {
			return fmt.Errorf("no column for text field %s", f)
		}
		if b.dialect == Postgres {
			parts = append(parts, fmt.Sprintf("%s ILIKE %s", col, b.placeholder(pattern)))
		} else {
			parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", col, b.placeholder(pattern)))
		}
	}
	b.clauses = append(b.clauses, "("+strings.Join(parts, " OR ")+")")
	return nil
}

func (b *Builder) addRange(c *filter.Condition) error {
	expr, ok := columns[c.Field]
	if !ok {
		expr, ok = computed[b.dialect][c.Field]
		if !ok {
			return fmt.Errorf("no column for range field %s", c.Field)
		}
	}
	if c.Min != nil {
		b.clauses = append(b.clauses, fmt.Sprintf("%s >= %s", expr, b.placeholder(*c.Min)))
	}
	if c.Max != nil {
		b.clauses = append(b.clauses, fmt.Sprintf("%s <= %s", expr, b.placeholder(*c.Max)))
	}
	return nil
}

func (b *Builder) addSetMembership(c *filter.Condition) error {
	col, ok := columns[c.Field]
	if !ok {
		return fmt.Errorf("no column for membership field %s", c.Field)
	}
	// NULL columns compare as the empty string: plain NOT IN / <> ALL yields
	// NULL and silently drops such records, which the in-memory evaluator
	// keeps. COALESCE keeps all backends in agreement.
	expr := fmt.Sprintf("COALESCE(%s, '')", col)

	if b.dialect == Postgres {
		// Single text[] bind; pgx encodes []string natively.
		op := "= ANY"
		if c.Negated {
			op = "<> ALL"
		}
		b.clauses = append(b.clauses, fmt.Sprintf("%s %s(%s)", expr, op, b.placeholder(c.Values)))
		return nil
	}

	marks := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		marks = append(marks, b.placeholder(v))
	}
	op := "IN"
	if c.Negated {
		op = "NOT IN"
	}
	b.clauses = append(b.clauses, fmt.Sprintf("%s %s (%s)", expr, op, strings.Join(marks, ", ")))
	return nil
}

// addGeoRadius binds the spherical-law distance expression used both for the
// radius predicate and the distance ordering.
func (b *Builder) addGeoRadius(c *filter.Condition) error {
	if b.dialect != Postgres {
		return fmt.Errorf("geo radius requires postgres; refine in application code instead")
	}
	expr := b.distanceExpr(c.Center.Lat, c.Center.Lon)
	b.clauses = append(b.clauses, fmt.Sprintf("%s <= %s", expr, b.placeholder(c.RadiusMeters)))
	return nil
}

// distanceExpr renders the haversine distance in meters from bound
// coordinates to each record, the same formula the in-Go ranker uses, so the
// distance decorated onto a result never exceeds the radius that admitted it.
func (b *Builder) distanceExpr(lat, lon float64) string {
	latP := b.placeholder(lat)
	lonP := b.placeholder(lon)
	return fmt.Sprintf(
		"ROUND(6371000 * 2 * asin(sqrt(LEAST(1.0, "+
			"power(sin((radians(latitude) - radians(%s)) / 2), 2) + "+
			"cos(radians(%s)) * cos(radians(latitude)) * "+
			"power(sin((radians(longitude) - radians(%s)) / 2), 2)))))",
		latP, latP, lonP,
	)
}

func (b *Builder) orderBy(o filter.Order, skipGeo bool) (string, error) {
	switch o.Key {
	case filter.OrderByDistance:
		if skipGeo {
			return "", nil // ordering happens in application code
		}
		if b.dialect != Postgres {
			return "", fmt.Errorf("distance ordering requires postgres")
		}
		return b.distanceExpr(o.Origin.Lat, o.Origin.Lon) + " ASC, id ASC", nil
	case filter.OrderByName:
		return "LOWER(company_name) ASC, id ASC", nil
	default:
		return "", fmt.Errorf("unknown order key %d", o.Key)
	}
}
