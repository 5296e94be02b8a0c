// Package sqlite implements the full-text search index on SQLite.
//
// Every indexed document locale is one row of index_entries, identified by its
// serialized key, plus one row of the index_text FTS5 table. Rows are
// enumerated in (wiki, space_key, name, locale, id) order under the BINARY
// collation, which is the order of reference.Compare.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/store"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Index is an open search index database.
type Index struct {
	db *sql.DB
}

var _ iterator.IndexQuerier = (*Index)(nil)

// Open opens or creates the index at path. ":memory:" opens a private
// in-memory index.
func Open(ctx context.Context, path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("index path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}
	if err := applySchema(ctx, db, path); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("Search index opened", "path", path)
	return &Index{db: db}, nil
}

func applySchema(ctx context.Context, db *sql.DB, path string) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply index schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set index schema version: %w", err)
	}
	return nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Ping checks the database is usable.
func (x *Index) Ping(ctx context.Context) error {
	return x.db.PingContext(ctx)
}

// QueryEntries returns up to pageSize rows after mark, and the mark of the
// last row returned. An empty page returns mark unchanged.
func (x *Index) QueryEntries(
	ctx context.Context, scope reference.Scope, mark string, pageSize int,
) ([]iterator.Row, string, error) {
	if pageSize <= 0 {
		return nil, "", fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	where, args := scopeFilter(scope)
	if mark != iterator.InitialCursorMark {
		c, err := decodeCursor(mark)
		if err != nil {
			return nil, "", err
		}
		where = append(where, "(wiki, space_key, name, locale, id) > (?, ?, ?, ?, ?)")
		args = append(args, c.Wiki, c.SpaceKey, c.Name, c.Locale, c.ID)
	}
	args = append(args, pageSize)

	query := `SELECT id, wiki, space_key, name, locale, version FROM index_entries` +
		whereClause(where) +
		` ORDER BY wiki, space_key, name, locale, id LIMIT ?`

	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query index entries: %w", err)
	}
	defer rows.Close()

	var (
		page []iterator.Row
		last cursor
	)
	for rows.Next() {
		var spaceKey string
		var r iterator.Row
		if err := rows.Scan(&last.ID, &r.Wiki, &spaceKey, &r.Name, &r.Locale, &r.Version); err != nil {
			return nil, "", fmt.Errorf("failed to scan index entry: %w", err)
		}
		r.Space = reference.SplitSpaceSortKey(spaceKey)
		last.Wiki, last.SpaceKey, last.Name, last.Locale = r.Wiki, spaceKey, r.Name, r.Locale
		page = append(page, r)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read index entries: %w", err)
	}

	if len(page) == 0 {
		return nil, mark, nil
	}
	return page, encodeCursor(last), nil
}

// CountEntries counts the rows within scope.
func (x *Index) CountEntries(ctx context.Context, scope reference.Scope) (int64, error) {
	where, args := scopeFilter(scope)
	var n int64
	err := x.db.QueryRowContext(ctx, `SELECT count(*) FROM index_entries`+whereClause(where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return n, nil
}

// Put stores doc, replacing any row with the same key.
func (x *Index) Put(ctx context.Context, docs ...store.Document) error {
	return x.inTx(ctx, func(tx *sql.Tx) error {
		for _, doc := range docs {
			if err := putDocument(ctx, tx, doc); err != nil {
				return err
			}
		}
		return nil
	})
}

func putDocument(ctx context.Context, tx *sql.Tx, doc store.Document) error {
	id := doc.Key.String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_entries (id, wiki, space_key, name, locale, version, title, content)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   version = excluded.version,
		   title = excluded.title,
		   content = excluded.content,
		   indexed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		id, doc.Key.Wiki, doc.Key.SpaceSortKey(), doc.Key.Name, doc.Key.Locale,
		doc.Version, doc.Title, doc.Content,
	); err != nil {
		return fmt.Errorf("failed to index %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_text WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear text of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_text (id, title, content) VALUES (?, ?, ?)`,
		id, doc.Title, doc.Content,
	); err != nil {
		return fmt.Errorf("failed to index text of %s: %w", id, err)
	}
	return nil
}

// Remove deletes the rows of key. With allLocales every locale of the
// document is removed. It returns the number of rows removed.
func (x *Index) Remove(ctx context.Context, key reference.Key, allLocales bool) (int64, error) {
	var removed int64
	err := x.inTx(ctx, func(tx *sql.Tx) error {
		ids := []string{key.String()}
		if allLocales {
			var err error
			ids, err = localeIDs(ctx, tx, key)
			if err != nil {
				return err
			}
		}
		n, err := deleteIDs(ctx, tx, ids)
		removed = n
		return err
	})
	return removed, err
}

// Version returns the indexed version of key, or store.ErrDocumentNotFound.
func (x *Index) Version(ctx context.Context, key reference.Key) (string, error) {
	var v string
	err := x.db.QueryRowContext(ctx, `SELECT version FROM index_entries WHERE id = ?`, key.String()).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w in index: %s", store.ErrDocumentNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version of %s: %w", key, err)
	}
	return v, nil
}

// Search returns the keys of documents whose text matches an FTS5 match
// expression, best match first.
func (x *Index) Search(ctx context.Context, match string, limit int) ([]reference.Key, error) {
	if limit <= 0 {
		limit = iterator.DefaultPageSize
	}
	rows, err := x.db.QueryContext(ctx,
		`SELECT id FROM index_text WHERE index_text MATCH ? ORDER BY rank LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	defer rows.Close()

	var keys []reference.Key
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		key, err := reference.ParseKey(id)
		if err != nil {
			slog.WarnContext(ctx, "Skipping search hit with invalid id", "id", id, "error", err)
			continue
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (x *Index) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index transaction: %w", err)
	}
	return nil
}

func localeIDs(ctx context.Context, tx *sql.Tx, key reference.Key) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM index_entries WHERE wiki = ? AND space_key = ? AND name = ?`,
		key.Wiki, key.SpaceSortKey(), key.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list locales of %s: %w", key, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func deleteIDs(ctx context.Context, tx *sql.Tx, ids []string) (int64, error) {
	var removed int64
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM index_entries WHERE id = ?`, id)
		if err != nil {
			return removed, fmt.Errorf("failed to delete %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, err
		}
		removed += n
		if _, err := tx.ExecContext(ctx, `DELETE FROM index_text WHERE id = ?`, id); err != nil {
			return removed, fmt.Errorf("failed to delete text of %s: %w", id, err)
		}
	}
	return removed, nil
}

// scopeFilter returns the conditions selecting the rows within scope. A
// space prefix matches its own space_key and every key in the half-open range
// [prefix\x01, prefix\x02), which holds exactly its descendants.
func scopeFilter(scope reference.Scope) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if scope.Wiki != "" {
		where = append(where, "wiki = ?")
		args = append(args, scope.Wiki)
	}
	if len(scope.Space) == 0 {
		return where, args
	}

	prefix := reference.SpaceSortKey(scope.Space)
	if scope.IsDocument() {
		where = append(where, "space_key = ?", "name = ?")
		return where, append(args, prefix, scope.Name)
	}
	where = append(where, "(space_key = ? OR (space_key >= ? AND space_key < ?))")
	return where, append(args, prefix, prefix+"\x01", prefix+"\x02")
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}
