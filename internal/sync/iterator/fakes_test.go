package iterator_test

import (
	"context"
	"slices"
	"strconv"

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
)

func key(name string) reference.Key {
	return reference.MustKey("xwiki", []string{"Main"}, name, "")
}

func entry(name, version string) iterator.Entry {
	return iterator.Entry{Key: key(name), Version: version}
}

func rowOf(e iterator.Entry) iterator.Row {
	return iterator.Row{
		Wiki:    e.Key.Wiki,
		Space:   e.Key.Space,
		Name:    e.Key.Name,
		Locale:  e.Key.Locale,
		Version: e.Version,
	}
}

// sortedWithin returns the entries of rows inside scope in comparator order.
func sortedWithin(rows []iterator.Row, scope reference.Scope) []iterator.Entry {
	var out []iterator.Entry
	for _, r := range rows {
		e, err := r.Entry()
		if err != nil {
			panic(err)
		}
		if scope.Contains(e.Key) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b iterator.Entry) int { return reference.Compare(a.Key, b.Key) })
	return out
}

// fakeStore is an in-memory StoreQuerier.
type fakeStore struct {
	rows       []iterator.Row
	pageCalls  int
	wikiCalls  int
	countCalls int
}

func newFakeStore(entries ...iterator.Entry) *fakeStore {
	s := &fakeStore{}
	for _, e := range entries {
		s.rows = append(s.rows, rowOf(e))
	}
	return s
}

func (s *fakeStore) ListWikis(_ context.Context, scope reference.Scope) ([]string, error) {
	s.wikiCalls++
	var wikis []string
	for _, e := range sortedWithin(s.rows, scope) {
		if !slices.Contains(wikis, e.Key.Wiki) {
			wikis = append(wikis, e.Key.Wiki)
		}
	}
	return wikis, nil
}

func (s *fakeStore) ListDocuments(
	_ context.Context, scope reference.Scope, wiki string, limit int, offset int64,
) ([]iterator.Row, error) {
	s.pageCalls++
	var inWiki []iterator.Row
	for _, e := range sortedWithin(s.rows, scope) {
		if e.Key.Wiki == wiki {
			inWiki = append(inWiki, rowOf(e))
		}
	}
	start := min(int(offset), len(inWiki))
	end := min(start+limit, len(inWiki))
	return inWiki[start:end], nil
}

func (s *fakeStore) CountDocuments(_ context.Context, scope reference.Scope) (int64, error) {
	s.countCalls++
	return int64(len(sortedWithin(s.rows, scope))), nil
}

// fakeIndex is an in-memory IndexQuerier whose cursor mark is the position
// after the last returned row.
type fakeIndex struct {
	rows      []iterator.Row
	pageCalls int
}

func newFakeIndex(entries ...iterator.Entry) *fakeIndex {
	idx := &fakeIndex{}
	for _, e := range entries {
		idx.rows = append(idx.rows, rowOf(e))
	}
	return idx
}

func (f *fakeIndex) QueryEntries(
	_ context.Context, scope reference.Scope, mark string, pageSize int,
) ([]iterator.Row, string, error) {
	f.pageCalls++
	pos := 0
	if mark != iterator.InitialCursorMark {
		var err error
		if pos, err = strconv.Atoi(mark); err != nil {
			return nil, "", err
		}
	}
	all := sortedWithin(f.rows, scope)
	if pos >= len(all) {
		return nil, mark, nil
	}
	end := min(pos+pageSize, len(all))
	var page []iterator.Row
	for _, e := range all[pos:end] {
		page = append(page, rowOf(e))
	}
	return page, strconv.Itoa(end), nil
}

func (f *fakeIndex) CountEntries(_ context.Context, scope reference.Scope) (int64, error) {
	return int64(len(sortedWithin(f.rows, scope))), nil
}

// drain reads it to exhaustion.
func drain(ctx context.Context, it iterator.SourceIterator) ([]iterator.Entry, error) {
	var out []iterator.Entry
	for {
		ok, err := it.HasNext(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		e, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

func drainDiff(ctx context.Context, d *iterator.DiffIterator) ([]iterator.DiffEntry, error) {
	var out []iterator.DiffEntry
	for {
		ok, err := d.HasNext(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		e, err := d.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}
