package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stacklok/wiki-index-sync/internal/reference"
)

// CleanInvalid removes rows within scope that cannot take part in a diff: a
// row whose key fields do not rebuild a valid key, whose key does not
// serialize back to the row id, or whose version is empty. It returns the
// number of rows removed.
func (x *Index) CleanInvalid(ctx context.Context, scope reference.Scope) (int64, error) {
	var removed int64
	err := x.inTx(ctx, func(tx *sql.Tx) error {
		invalid, err := invalidIDs(ctx, tx, scope)
		if err != nil {
			return err
		}
		removed, err = deleteIDs(ctx, tx, invalid)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean invalid index entries: %w", err)
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Removed invalid index entries", "root", scope.String(), "count", removed)
	}
	return removed, nil
}

func invalidIDs(ctx context.Context, tx *sql.Tx, scope reference.Scope) ([]string, error) {
	where, args := scopeFilter(scope)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, wiki, space_key, name, locale, version FROM index_entries`+whereClause(where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan index entries: %w", err)
	}
	defer rows.Close()

	var invalid []string
	for rows.Next() {
		var id, wiki, spaceKey, name, locale, version string
		if err := rows.Scan(&id, &wiki, &spaceKey, &name, &locale, &version); err != nil {
			return nil, err
		}
		if reason := invalidReason(id, wiki, spaceKey, name, locale, version); reason != "" {
			slog.DebugContext(ctx, "Invalid index entry", "id", id, "reason", reason)
			invalid = append(invalid, id)
		}
	}
	return invalid, rows.Err()
}

func invalidReason(id, wiki, spaceKey, name, locale, version string) string {
	if version == "" {
		return "empty version"
	}
	key, err := reference.StoredKey(wiki, reference.SplitSpaceSortKey(spaceKey), name, locale)
	if err != nil {
		return err.Error()
	}
	if key.String() != id {
		return "id does not match key fields"
	}
	return ""
}
