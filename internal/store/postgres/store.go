// Package postgres reads and writes wiki documents in PostgreSQL.
//
// Sort columns are declared with the "C" collation and space paths are text
// arrays, so ORDER BY wiki, space_path, name, locale matches reference.Compare.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/store"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
)

// ErrDocumentNotFound is returned by LoadDocument for a missing key.
var ErrDocumentNotFound = store.ErrDocumentNotFound

// Store is the pgx-backed document store.
type Store struct {
	pool *pgxpool.Pool
}

var _ iterator.StoreQuerier = (*Store)(nil)

// New creates a Store over pool. The caller owns the pool.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &Store{pool: pool}, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ListWikis returns the wikis within scope in byte order.
func (s *Store) ListWikis(ctx context.Context, scope reference.Scope) ([]string, error) {
	query := `SELECT name FROM wikis`
	var args []any
	if scope.Wiki != "" {
		query += ` WHERE name = $1`
		args = append(args, scope.Wiki)
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wikis: %w", err)
	}
	wikis, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read wikis: %w", err)
	}
	return wikis, nil
}

// ListDocuments returns one page of a wiki's documents within scope.
func (s *Store) ListDocuments(
	ctx context.Context, scope reference.Scope, wiki string, limit int, offset int64,
) ([]iterator.Row, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	where, args := scopeFilter(scope, []any{wiki}, "wiki = $1")
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT wiki, space_path, name, locale, version FROM documents WHERE %s
		 ORDER BY space_path, name, locale LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	page, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (iterator.Row, error) {
		var r iterator.Row
		err := row.Scan(&r.Wiki, &r.Space, &r.Name, &r.Locale, &r.Version)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return page, nil
}

// CountDocuments counts the documents within scope.
func (s *Store) CountDocuments(ctx context.Context, scope reference.Scope) (int64, error) {
	where, args := scopeFilter(scope, nil, "TRUE")

	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// LoadDocument returns the document at key, or ErrDocumentNotFound.
func (s *Store) LoadDocument(ctx context.Context, key reference.Key) (store.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT version, title, content FROM documents
		 WHERE wiki = $1 AND space_path = $2 AND name = $3 AND locale = $4`,
		key.Wiki, key.Space, key.Name, key.Locale,
	)
	doc := store.Document{Key: key}
	if err := row.Scan(&doc.Version, &doc.Title, &doc.Content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, key)
		}
		return store.Document{}, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return doc, nil
}

// LoadTranslations returns every locale of the document at key, ignoring the
// key's own locale. An empty result means the document is gone.
func (s *Store) LoadTranslations(ctx context.Context, key reference.Key) ([]store.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT wiki, space_path, name, locale, version, title, content FROM documents
		 WHERE wiki = $1 AND space_path = $2 AND name = $3
		 ORDER BY locale`,
		key.Wiki, key.Space, key.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations of %s: %w", key, err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to read translations of %s: %w", key, err)
	}
	return docs, nil
}

func scanDocument(row pgx.CollectableRow) (store.Document, error) {
	var (
		wiki, name, locale string
		space              []string
		doc                store.Document
	)
	if err := row.Scan(&wiki, &space, &name, &locale, &doc.Version, &doc.Title, &doc.Content); err != nil {
		return store.Document{}, err
	}
	key, err := reference.StoredKey(wiki, space, name, locale)
	if err != nil {
		return store.Document{}, err
	}
	doc.Key = key
	return doc, nil
}

// scopeFilter appends the WHERE conditions of scope to base, numbering
// parameters after the ones already in args.
func scopeFilter(scope reference.Scope, args []any, base string) (string, []any) {
	conditions := []string{base}
	if scope.Wiki != "" {
		args = append(args, scope.Wiki)
		conditions = append(conditions, fmt.Sprintf("wiki = $%d", len(args)))
	}
	switch {
	case scope.IsDocument():
		args = append(args, scope.Space, scope.Name)
		conditions = append(conditions,
			fmt.Sprintf("space_path = $%d", len(args)-1),
			fmt.Sprintf("name = $%d", len(args)),
		)
	case len(scope.Space) > 0:
		args = append(args, scope.Space)
		conditions = append(conditions,
			fmt.Sprintf("space_path[1:%d] = $%d", len(scope.Space), len(args)),
		)
	}
	return strings.Join(conditions, " AND "), args
}
