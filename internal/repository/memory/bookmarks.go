package memory

import "context"

// Bookmarks is an in-memory BookmarkReader: user id → company id → bookmark
// id. Used in local mode and tests.
type Bookmarks struct {
	byUser map[string]map[string]string
}

// NewBookmarks creates a bookmark reader over a static mapping.
func NewBookmarks(byUser map[string]map[string]string) *Bookmarks {
	return &Bookmarks{byUser: byUser}
}

// BookmarkIDs returns the caller's bookmark ids for the given companies.
func (b *Bookmarks) BookmarkIDs(_ context.Context, userID string, companyIDs []string) (map[string]string, error) {
	user := b.byUser[userID]
	if len(user) == 0 {
		return nil, nil
	}
	out := make(map[string]string)
	for _, id := range companyIDs {
		if marker, ok := user[id]; ok {
			out[id] = marker
		}
	}
	return out, nil
}
