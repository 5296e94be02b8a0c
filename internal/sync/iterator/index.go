package iterator

import (
	"context"
	"fmt"

	"github.com/stacklok/wiki-index-sync/internal/reference"
)

// IndexIterator enumerates the search index with cursor-mark pagination.
// The mark is opaque: it is only ever passed back to the querier.
type IndexIterator struct {
	querier  IndexQuerier
	pageSize int
	scope    reference.Scope
	mark     string

	pager pager
}

var _ SourceIterator = (*IndexIterator)(nil)

// NewIndexIterator creates an iterator over the search index.
// A non-positive pageSize selects DefaultPageSize.
func NewIndexIterator(querier IndexQuerier, pageSize int) *IndexIterator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	it := &IndexIterator{querier: querier, pageSize: pageSize, mark: InitialCursorMark}
	it.pager = newPager(it.fetchPage)
	return it
}

// SetRootScope restricts enumeration to scope.
func (it *IndexIterator) SetRootScope(scope reference.Scope) error {
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
func (it *IndexIterator) HasNext(ctx context.Context) (bool, error) {
	return it.pager.hasNext(ctx)
}

// Next returns the next entry.
func (it *IndexIterator) Next(ctx context.Context) (Entry, error) {
	return it.pager.next(ctx)
}

// Size counts the index entries within the root scope.
func (it *IndexIterator) Size(ctx context.Context) (int64, error) {
	n, err := it.querier.CountEntries(ctx, it.scope)
	if err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return n, nil
}

func (it *IndexIterator) fetchPage(ctx context.Context) ([]Entry, bool, error) {
	rows, nextMark, err := it.querier.QueryEntries(ctx, it.scope, it.mark, it.pageSize)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch index page (mark %q): %w", it.mark, err)
	}
	entries, err := rowsToEntries(rows)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read index page (mark %q): %w", it.mark, err)
	}

	last := nextMark == it.mark
	it.mark = nextMark
	return entries, last, nil
}
