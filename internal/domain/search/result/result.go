// Package result defines the Search Result Page. Pages cross the Result
// Cache's serialization boundary, so fields are exported and JSON-tagged.
package result

import (
	"github.com/rooibos-labs/corpsearch/internal/domain"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
)

// Item is one ranked hit: the record, its distance from the ranking origin
// (nil when the record has no coordinates), and the caller's bookmark marker.
// BookmarkID is decoration applied after cache reads and is never cached.
type Item struct {
	Company        domain.Company `json:"company"`
	DistanceMeters *float64       `json:"distance_meters,omitempty"`
	BookmarkID     string         `json:"bookmark_id,omitempty"`
}

// Page is one page of ranked, filtered results plus paging metadata.
type Page struct {
	Items     []Item `json:"items"`
	Total     int    `json:"total"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	PageCount int    `json:"page_count"`

	// Echo is the normalized specification the page was computed from.
	Echo request.Spec `json:"query"`
}

// Clone returns a deep copy. Cache backends hand out clones so bookmark
// decoration on one response never leaks into another caller's.
func (p *Page) Clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Items = make([]Item, len(p.Items))
	copy(out.Items, p.Items)
	for i := range out.Items {
		if d := out.Items[i].DistanceMeters; d != nil {
			v := *d
			out.Items[i].DistanceMeters = &v
		}
	}
	return &out
}
