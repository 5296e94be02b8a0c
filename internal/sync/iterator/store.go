package iterator

import (
	"context"
	"fmt"

	"github.com/stacklok/wiki-index-sync/internal/reference"
)

// StoreIterator enumerates the document store wiki by wiki, in ascending
// wiki order, using absolute offset pagination inside each wiki.
//
// Concurrent inserts or deletes before the current offset can make the
// iterator skip or repeat a row. The next synchronization corrects it.
type StoreIterator struct {
	querier  StoreQuerier
	pageSize int
	scope    reference.Scope

	wikis       []string
	wikisLoaded bool
	wikiIndex   int
	offset      int64

	pager pager
}

var _ SourceIterator = (*StoreIterator)(nil)

// NewStoreIterator creates an iterator over the document store.
// A non-positive pageSize selects DefaultPageSize.
func NewStoreIterator(querier StoreQuerier, pageSize int) *StoreIterator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	it := &StoreIterator{querier: querier, pageSize: pageSize}
	it.pager = newPager(it.fetchPage)
	return it
}

// SetRootScope restricts enumeration to scope.
func (it *StoreIterator) SetRootScope(scope reference.Scope) error {
	if it.pager.started() {
		return ErrAlreadyStarted
	}
	if err := scope.Validate(); err != nil {
		return err
	}
	it.scope = scope
	return nil
}

// HasNext reports whether another entry remains.
func (it *StoreIterator) HasNext(ctx context.Context) (bool, error) {
	return it.pager.hasNext(ctx)
}

// Next returns the next entry.
func (it *StoreIterator) Next(ctx context.Context) (Entry, error) {
	return it.pager.next(ctx)
}

// Size counts the documents within the root scope.
func (it *StoreIterator) Size(ctx context.Context) (int64, error) {
	n, err := it.querier.CountDocuments(ctx, it.scope)
	if err != nil {
		return 0, fmt.Errorf("failed to count store documents: %w", err)
	}
	return n, nil
}

func (it *StoreIterator) fetchPage(ctx context.Context) ([]Entry, bool, error) {
	if !it.wikisLoaded {
		wikis, err := it.listWikis(ctx)
		if err != nil {
			return nil, false, err
		}
		it.wikis = wikis
		it.wikisLoaded = true
	}

	if it.wikiIndex >= len(it.wikis) {
		return nil, true, nil
	}

	wiki := it.wikis[it.wikiIndex]
	rows, err := it.querier.ListDocuments(ctx, it.scope, wiki, it.pageSize, it.offset)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch store page (wiki %s, offset %d): %w", wiki, it.offset, err)
	}
	entries, err := rowsToEntries(rows)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read store page (wiki %s, offset %d): %w", wiki, it.offset, err)
	}

	if len(rows) < it.pageSize {
		// Short page: this wiki is done.
		it.wikiIndex++
		it.offset = 0
	} else {
		it.offset += int64(len(rows))
	}

	return entries, it.wikiIndex >= len(it.wikis), nil
}

func (it *StoreIterator) listWikis(ctx context.Context) ([]string, error) {
	if it.scope.Wiki != "" {
		return []string{it.scope.Wiki}, nil
	}
	wikis, err := it.querier.ListWikis(ctx, it.scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list wikis: %w", err)
	}
	return wikis, nil
}
