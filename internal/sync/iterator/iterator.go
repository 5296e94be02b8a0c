// Package iterator provides the ordered, paginated document sequences read
// from the document store and the search index, and the merge-diff that
// compares them.
//
// Both source iterators emit entries in ascending reference.Compare order.
// The store side resumes with an absolute offset, the index side with an
// opaque cursor mark; the difference is kept inside each implementation.
package iterator

import (
	"context"
	"errors"

	"github.com/stacklok/wiki-index-sync/internal/reference"
)

// DefaultPageSize is the number of entries fetched per page when no page size is configured.
const DefaultPageSize = 100

var (
	// ErrNoMoreEntries is returned by Next once the sequence is exhausted.
	ErrNoMoreEntries = errors.New("no more entries")

	// ErrAlreadyStarted is returned when the root scope is changed after enumeration started.
	ErrAlreadyStarted = errors.New("iterator already started")
)

// Entry is the unit compared between the store and the index.
type Entry struct {
	Key     reference.Key
	Version string
}

// Row is a raw page row as returned by a backend query.
type Row struct {
	Wiki    string
	Space   []string
	Name    string
	Locale  string
	Version string
}

// Entry converts the row to an Entry. Rows whose components are not stored
// in canonical form are rejected.
func (r Row) Entry() (Entry, error) {
	key, err := reference.StoredKey(r.Wiki, r.Space, r.Name, r.Locale)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: key, Version: r.Version}, nil
}

// SourceIterator is a lazy ordered sequence of entries from one backend.
//
//go:generate mockgen -destination=mocks/mock_source_iterator.go -package=mocks -source=iterator.go SourceIterator
type SourceIterator interface {
	// SetRootScope restricts enumeration. It must be called before the first
	// HasNext or Next.
	SetRootScope(scope reference.Scope) error
	// HasNext reports whether another entry remains, fetching a page if the
	// current one is exhausted.
	HasNext(ctx context.Context) (bool, error)
	// Next returns the next entry and advances past it.
	Next(ctx context.Context) (Entry, error)
	// Size returns a best-effort estimate of the number of entries.
	Size(ctx context.Context) (int64, error)
}

// StoreQuerier is the document store collaborator used by StoreIterator.
type StoreQuerier interface {
	// ListWikis returns the wiki identifiers within scope in ascending byte order.
	ListWikis(ctx context.Context, scope reference.Scope) ([]string, error)
	// ListDocuments returns at most limit rows of one wiki, starting at offset,
	// in ascending space, name, locale order.
	ListDocuments(ctx context.Context, scope reference.Scope, wiki string, limit int, offset int64) ([]Row, error)
	// CountDocuments returns the number of documents within scope.
	CountDocuments(ctx context.Context, scope reference.Scope) (int64, error)
}

// InitialCursorMark is the cursor mark that starts an index enumeration.
const InitialCursorMark = "*"

// IndexQuerier is the search index collaborator used by IndexIterator.
type IndexQuerier interface {
	// QueryEntries returns at most pageSize rows following mark, and the mark
	// to resume from. A returned mark equal to the input mark signals the end.
	QueryEntries(ctx context.Context, scope reference.Scope, mark string, pageSize int) ([]Row, string, error)
	// CountEntries returns the number of indexed entries within scope.
	CountEntries(ctx context.Context, scope reference.Scope) (int64, error)
}
