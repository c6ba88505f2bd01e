// Package cache implements the Result Cache: a bounded, staleness-bounded
// memo from normalized Filter Specifications to computed result pages.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
)

// Key derives the deterministic cache key for a spec. Every field that can
// change the computed page participates; CallerID does not, because bookmark
// decoration is applied after cache reads. Free text is lowercased since
// matching is case-insensitive.
func Key(spec *request.Spec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "id=%s;", spec.ID)
	fmt.Fprintf(&b, "q=%s;", strings.ToLower(spec.FreeText))
	fmt.Fprintf(&b, "cat=%s;", strings.Join(spec.TextCategories, ","))
	if spec.ReferencePoint != nil {
		fmt.Fprintf(&b, "ref=%.6f,%.6f;", spec.ReferencePoint.Lat, spec.ReferencePoint.Lon)
	}
	fmt.Fprintf(&b, "user=%.6f,%.6f;", spec.UserPoint.Lat, spec.UserPoint.Lon)
	fmt.Fprintf(&b, "r=%.0f;", spec.RadiusMeters)

	// NumericRanges iterates sorted: map order must not leak into the key.
	for _, name := range sortedNames(spec.NumericRanges) {
		r := spec.NumericRanges[name]
		fmt.Fprintf(&b, "n:%s=%s,%s;", name, bound(r.Min), bound(r.Max))
	}

	fmt.Fprintf(&b, "ey=%d;", spec.EstablishmentYearMin)
	fmt.Fprintf(&b, "in=%s;", strings.Join(spec.IncludedIndustries, ","))
	fmt.Fprintf(&b, "ex=%s;", strings.Join(spec.ExcludedIndustries, ","))
	fmt.Fprintf(&b, "cert=%s;", strings.Join(spec.Certifications, ","))
	fmt.Fprintf(&b, "g=%s;age=%d;", spec.Gender, spec.RepresentativeAgeMin)
	fmt.Fprintf(&b, "p=%d,%d", spec.Page, spec.PageSize)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func bound(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func sortedNames(ranges map[string]request.Range) []string {
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
