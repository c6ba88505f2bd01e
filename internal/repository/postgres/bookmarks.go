package postgres

import (
	"context"
	"fmt"
)

// BookmarkIDs returns the caller's bookmark id per company id for the given
// candidates. Implements the search use case's BookmarkReader.
func (r *Repo) BookmarkIDs(ctx context.Context, userID string, companyIDs []string) (map[string]string, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}

	const q = `SELECT company_id, id FROM corp_bookmark
		WHERE user_id = $1 AND company_id = ANY($2)`

	rows, err := r.pool.Query(ctx, q, userID, companyIDs)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var companyID, bookmarkID string
		if err := rows.Scan(&companyID, &bookmarkID); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out[companyID] = bookmarkID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}
