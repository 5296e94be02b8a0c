package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/store"
)

//go:generate mockgen -destination=mocks/mock_loader.go -package=mocks -source=writer.go DocumentLoader

// DocumentLoader reads document bodies from the authoritative store.
type DocumentLoader interface {
	// LoadDocument returns one locale of a document, or an error wrapping
	// store.ErrDocumentNotFound.
	LoadDocument(ctx context.Context, key reference.Key) (store.Document, error)
	// LoadTranslations returns every locale of the document at key.
	LoadTranslations(ctx context.Context, key reference.Key) ([]store.Document, error)
}

// Writer applies index and delete requests to an Index, loading document
// bodies through a DocumentLoader. Both operations are idempotent.
type Writer struct {
	index  *Index
	loader DocumentLoader
}

// NewWriter creates a Writer.
func NewWriter(index *Index, loader DocumentLoader) *Writer {
	return &Writer{index: index, loader: loader}
}

// Index loads the document at key and stores it. With recursive every locale
// of the document is reindexed and locales no longer in the store are
// dropped.
func (w *Writer) Index(ctx context.Context, key reference.Key, recursive bool) error {
	if !recursive {
		doc, err := w.loader.LoadDocument(ctx, key)
		if err != nil {
			return err
		}
		return w.index.Put(ctx, doc)
	}

	docs, err := w.loader.LoadTranslations(ctx, key)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: %s", store.ErrDocumentNotFound, key)
	}
	if err := w.index.Put(ctx, docs...); err != nil {
		return err
	}

	return w.index.inTx(ctx, func(tx *sql.Tx) error {
		indexed, err := localeIDs(ctx, tx, key)
		if err != nil {
			return err
		}
		keep := make(map[string]struct{}, len(docs))
		for _, d := range docs {
			keep[d.Key.String()] = struct{}{}
		}
		var stale []string
		for _, id := range indexed {
			if _, ok := keep[id]; !ok {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			slog.DebugContext(ctx, "Dropping stale translations", "key", key.String(), "count", len(stale))
		}
		_, err = deleteIDs(ctx, tx, stale)
		return err
	})
}

// Delete removes key from the index. With recursive every locale of the
// document is removed.
func (w *Writer) Delete(ctx context.Context, key reference.Key, recursive bool) error {
	_, err := w.index.Remove(ctx, key, recursive)
	return err
}
