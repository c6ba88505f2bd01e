package result

import (
	"testing"

	"github.com/rooibos-labs/corpsearch/internal/domain"
)

func TestClone_DeepCopiesItems(t *testing.T) {
	d := 1234.0
	page := &Page{
		Items: []Item{
			{Company: domain.Company{ID: "1", Name: "Acme"}, DistanceMeters: &d},
			{Company: domain.Company{ID: "2", Name: "Beta"}},
		},
		Total:     2,
		Page:      1,
		PageSize:  20,
		PageCount: 1,
	}

	clone := page.Clone()

	clone.Items[0].BookmarkID = "bm-1"
	*clone.Items[0].DistanceMeters = 9999

	if page.Items[0].BookmarkID != "" {
		t.Error("decorating a clone leaked into the original")
	}
	if *page.Items[0].DistanceMeters != 1234 {
		t.Error("mutating a clone's distance leaked into the original")
	}
	if clone.Total != page.Total || clone.PageCount != page.PageCount {
		t.Error("paging metadata must carry over")
	}
}

func TestClone_Nil(t *testing.T) {
	var page *Page
	if page.Clone() != nil {
		t.Error("cloning nil must yield nil")
	}
}
