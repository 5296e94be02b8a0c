package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stacklok/wiki-index-sync/internal/store"
)

// SaveDocument inserts or replaces a document, creating its wiki if needed.
func (s *Store) SaveDocument(ctx context.Context, doc store.Document) error {
	if err := doc.Key.Validate(); err != nil {
		return err
	}
	if doc.Version == "" {
		return fmt.Errorf("document %s has no version", doc.Key)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO wikis (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			doc.Key.Wiki,
		); err != nil {
			return fmt.Errorf("failed to upsert wiki %s: %w", doc.Key.Wiki, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (wiki, space_path, name, locale, version, title, content)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (wiki, space_path, name, locale) DO UPDATE SET
			   version = EXCLUDED.version,
			   title = EXCLUDED.title,
			   content = EXCLUDED.content,
			   updated_at = now()`,
			doc.Key.Wiki, doc.Key.Space, doc.Key.Name, doc.Key.Locale,
			doc.Version, doc.Title, doc.Content,
		); err != nil {
			return fmt.Errorf("failed to save document %s: %w", doc.Key, err)
		}
		return nil
	})
}

// SaveDocuments saves docs in one transaction.
func (s *Store) SaveDocuments(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		wikis := make(map[string]struct{})
		batch := &pgx.Batch{}
		for _, doc := range docs {
			if err := doc.Key.Validate(); err != nil {
				return err
			}
			if _, ok := wikis[doc.Key.Wiki]; !ok {
				wikis[doc.Key.Wiki] = struct{}{}
				batch.Queue(`INSERT INTO wikis (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, doc.Key.Wiki)
			}
			batch.Queue(
				`INSERT INTO documents (wiki, space_path, name, locale, version, title, content)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 ON CONFLICT (wiki, space_path, name, locale) DO UPDATE SET
				   version = EXCLUDED.version, title = EXCLUDED.title,
				   content = EXCLUDED.content, updated_at = now()`,
				doc.Key.Wiki, doc.Key.Space, doc.Key.Name, doc.Key.Locale,
				doc.Version, doc.Title, doc.Content,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save %d documents: %w", len(docs), err)
		}
		return nil
	})
}

// DeleteDocument removes one locale of a document. Deleting a missing
// document is not an error.
func (s *Store) DeleteDocument(ctx context.Context, doc store.Document) error {
	key := doc.Key
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE wiki = $1 AND space_path = $2 AND name = $3 AND locale = $4`,
		key.Wiki, key.Space, key.Name, key.Locale,
	); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}
