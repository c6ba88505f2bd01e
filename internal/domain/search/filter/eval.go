package filter

import (
	"sort"
	"strings"

	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/geo"
)

// Matches evaluates the full predicate set against one record. currentYear
// anchors the representative-age condition.
func (s *Set) Matches(rec *domain.Company, currentYear int) bool {
	if s.RequireCoordinates && !rec.HasCoordinates() {
		return false
	}
	for i := range s.Conditions {
		if !s.Conditions[i].Matches(rec, currentYear) {
			return false
		}
	}
	return true
}

// Matches evaluates one condition against a record.
func (c *Condition) Matches(rec *domain.Company, currentYear int) bool {
	switch c.Kind {
	case KindTextMatch:
		needle := strings.ToLower(c.Text)
		for _, f := range c.Fields {
			if strings.Contains(strings.ToLower(textValue(rec, f)), needle) {
				return true
			}
		}
		return false

	case KindRange:
		v, ok := numericValue(rec, c.Field, currentYear)
		if !ok {
			return false
		}
		if c.Min != nil && v < *c.Min {
			return false
		}
		if c.Max != nil && v > *c.Max {
			return false
		}
		return true

	case KindSetMembership:
		member := false
		for _, v := range c.Values {
			if textValue(rec, c.Field) == v {
				member = true
				break
			}
		}
		return member != c.Negated

	case KindEquals:
		return textValue(rec, c.Field) == c.Value

	case KindGeoRadius:
		if !rec.HasCoordinates() {
			return false
		}
		d := geo.DistanceMeters(c.Center, geo.Point{Lat: *rec.Latitude, Lon: *rec.Longitude})
		return d <= c.RadiusMeters

	default:
		return false
	}
}

// Sort orders records in place according to the set's Order, breaking ties on
// record ID so pagination stays stable.
func (s *Set) Sort(records []domain.Company) {
	switch s.Order.Key {
	case OrderByDistance:
		origin := s.Order.Origin
		sort.SliceStable(records, func(i, j int) bool {
			di, dj := recordDistance(&records[i], origin), recordDistance(&records[j], origin)
			if di != dj {
				return di < dj
			}
			return records[i].ID < records[j].ID
		})
	case OrderByName:
		sort.SliceStable(records, func(i, j int) bool {
			ni, nj := strings.ToLower(records[i].Name), strings.ToLower(records[j].Name)
			if ni != nj {
				return ni < nj
			}
			return records[i].ID < records[j].ID
		})
	}
}

// recordDistance sorts coordinate-less records last.
func recordDistance(rec *domain.Company, origin geo.Point) float64 {
	if !rec.HasCoordinates() {
		return geo.EarthRadiusMeters * 4
	}
	return geo.DistanceMeters(origin, geo.Point{Lat: *rec.Latitude, Lon: *rec.Longitude})
}

func textValue(rec *domain.Company, f Field) string {
	switch f {
	case FieldName:
		return rec.Name
	case FieldRepresentative:
		return rec.Representative
	case FieldAddress:
		return rec.Address
	case FieldBizRegNo:
		return rec.BizRegNo
	case FieldIndustryCode:
		return rec.IndustryCode
	case FieldSMEType:
		return rec.SMEType
	case FieldDivision:
		return rec.Division
	case FieldConfirmingAuth:
		return rec.ConfirmingAuthority
	case FieldGender:
		return rec.RepresentativeGender
	default:
		return ""
	}
}

// numericValue resolves a range field; ok is false when the record does not
// report the value (null financials never match a range filter).
func numericValue(rec *domain.Company, f Field, currentYear int) (float64, bool) {
	switch f {
	case FieldEmployeeCount:
		return deref(rec.EmployeeCount)
	case FieldSales:
		return deref(rec.Sales)
	case FieldProfit:
		return deref(rec.Profit)
	case FieldNetIncome:
		return deref(rec.NetIncome)
	case FieldRetainedEarnings:
		return deref(rec.RetainedEarnings)
	case FieldTotalEquity:
		return deref(rec.TotalEquity)
	case FieldEstablishedYear:
		if y := rec.EstablishedYear(); y > 0 {
			return float64(y), true
		}
		return 0, false
	case FieldRepresentativeAge:
		if rec.RepresentativeBirthYear > 0 {
			return float64(currentYear - rec.RepresentativeBirthYear), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
