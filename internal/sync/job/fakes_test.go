package job_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
)

func key(space, name, locale string) reference.Key {
	return reference.MustKey("xwiki", []string{space}, name, locale)
}

// docs is a keyed set of versions, enumerated in comparator order.
type docs map[string]iterator.Entry

func (d docs) put(k reference.Key, version string) {
	d[k.String()] = iterator.Entry{Key: k, Version: version}
}

// versions maps serialized keys to versions.
type versions map[string]string

func (d docs) load(t *testing.T, v versions) {
	t.Helper()
	for raw, version := range v {
		k, err := reference.ParseKey(raw)
		require.NoError(t, err)
		d.put(k, version)
	}
}

func (d docs) sorted(scope reference.Scope) []iterator.Entry {
	var out []iterator.Entry
	for _, e := range d {
		if scope.Contains(e.Key) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b iterator.Entry) int { return reference.Compare(a.Key, b.Key) })
	return out
}

func toRow(e iterator.Entry) iterator.Row {
	return iterator.Row{Wiki: e.Key.Wiki, Space: e.Key.Space, Name: e.Key.Name, Locale: e.Key.Locale, Version: e.Version}
}

// world is an in-memory store and index. It also acts as the IndexWriter,
// copying store versions into the index and recording every call.
type world struct {
	mu    sync.Mutex
	store docs
	index docs
	calls []string

	failIndex map[string]error
	failPage  error
}

func newWorld() *world {
	return &world{store: docs{}, index: docs{}, failIndex: map[string]error{}}
}

func (w *world) ListWikis(_ context.Context, scope reference.Scope) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var wikis []string
	for _, e := range w.store.sorted(scope) {
		if !slices.Contains(wikis, e.Key.Wiki) {
			wikis = append(wikis, e.Key.Wiki)
		}
	}
	return wikis, nil
}

func (w *world) ListDocuments(
	_ context.Context, scope reference.Scope, wiki string, limit int, offset int64,
) ([]iterator.Row, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failPage != nil {
		return nil, w.failPage
	}
	var rows []iterator.Row
	for _, e := range w.store.sorted(scope) {
		if e.Key.Wiki == wiki {
			rows = append(rows, toRow(e))
		}
	}
	if offset >= int64(len(rows)) {
		return nil, nil
	}
	return rows[offset:min(int(offset)+limit, len(rows))], nil
}

func (w *world) CountDocuments(_ context.Context, scope reference.Scope) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(len(w.store.sorted(scope))), nil
}

// QueryEntries uses the key of the last returned row as the mark and resumes
// after it, so writes made behind the mark during a scan are never revisited.
func (w *world) QueryEntries(
	_ context.Context, scope reference.Scope, mark string, pageSize int,
) ([]iterator.Row, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var after *reference.Key
	if mark != iterator.InitialCursorMark {
		k, err := reference.ParseKey(mark)
		if err != nil {
			return nil, "", err
		}
		after = &k
	}

	var rows []iterator.Row
	next := mark
	for _, e := range w.index.sorted(scope) {
		if len(rows) == pageSize {
			break
		}
		if after != nil && reference.Compare(e.Key, *after) <= 0 {
			continue
		}
		rows = append(rows, toRow(e))
		next = e.Key.String()
	}
	return rows, next, nil
}

func (w *world) CountEntries(_ context.Context, scope reference.Scope) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(len(w.index.sorted(scope))), nil
}

func (w *world) Index(_ context.Context, k reference.Key, recursive bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, fmt.Sprintf("index %s recursive=%t", k, recursive))
	if err := w.failIndex[k.String()]; err != nil {
		return err
	}
	if recursive {
		doc := reference.ScopeOf(k)
		for id, e := range w.index {
			if doc.Contains(e.Key) {
				delete(w.index, id)
			}
		}
		for id, e := range w.store {
			if doc.Contains(e.Key) {
				w.index[id] = e
			}
		}
		return nil
	}
	e, ok := w.store[k.String()]
	if !ok {
		return fmt.Errorf("document %s is gone", k)
	}
	w.index[k.String()] = e
	return nil
}

func (w *world) Delete(_ context.Context, k reference.Key, recursive bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, fmt.Sprintf("delete %s recursive=%t", k, recursive))
	if !recursive {
		delete(w.index, k.String())
		return nil
	}
	doc := reference.ScopeOf(k)
	for id, e := range w.index {
		if doc.Contains(e.Key) {
			delete(w.index, id)
		}
	}
	return nil
}

func (w *world) trace() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var b strings.Builder
	for _, c := range w.calls {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	return b.String()
}

func (w *world) resetCalls() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = nil
}
