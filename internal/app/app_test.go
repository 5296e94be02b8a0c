package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/wiki-index-sync/internal/config"
	"github.com/stacklok/wiki-index-sync/internal/index/sqlite"
	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/store"
	"github.com/stacklok/wiki-index-sync/internal/sync/coordinator"
	"github.com/stacklok/wiki-index-sync/internal/sync/iterator"
	"github.com/stacklok/wiki-index-sync/internal/telemetry"
)

// memStore is an in-memory DocumentStore.
type memStore struct {
	docs    []store.Document
	pingErr error
}

func newMemStore(docs ...store.Document) *memStore {
	s := &memStore{docs: slices.Clone(docs)}
	slices.SortFunc(s.docs, func(a, b store.Document) int { return reference.Compare(a.Key, b.Key) })
	return s
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func (s *memStore) ListWikis(_ context.Context, scope reference.Scope) ([]string, error) {
	var wikis []string
	for _, d := range s.docs {
		if scope.Contains(d.Key) && !slices.Contains(wikis, d.Key.Wiki) {
			wikis = append(wikis, d.Key.Wiki)
		}
	}
	return wikis, nil
}

func (s *memStore) ListDocuments(
	_ context.Context, scope reference.Scope, wiki string, limit int, offset int64,
) ([]iterator.Row, error) {
	var rows []iterator.Row
	for _, d := range s.docs {
		if d.Key.Wiki != wiki || !scope.Contains(d.Key) {
			continue
		}
		rows = append(rows, iterator.Row{
			Wiki: d.Key.Wiki, Space: d.Key.Space, Name: d.Key.Name, Locale: d.Key.Locale, Version: d.Version,
		})
	}
	if offset >= int64(len(rows)) {
		return nil, nil
	}
	rows = rows[offset:]
	return rows[:min(limit, len(rows))], nil
}

func (s *memStore) CountDocuments(_ context.Context, scope reference.Scope) (int64, error) {
	var n int64
	for _, d := range s.docs {
		if scope.Contains(d.Key) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) LoadDocument(_ context.Context, key reference.Key) (store.Document, error) {
	for _, d := range s.docs {
		if d.Key.Equal(key) {
			return d, nil
		}
	}
	return store.Document{}, fmt.Errorf("%w: %s", store.ErrDocumentNotFound, key)
}

func (s *memStore) LoadTranslations(_ context.Context, key reference.Key) ([]store.Document, error) {
	var out []store.Document
	for _, d := range s.docs {
		if d.Key.WithLocale("").Equal(key.WithLocale("")) {
			out = append(out, d)
		}
	}
	return out, nil
}

func testDoc(space, name, version string) store.Document {
	return store.Document{
		Key:     reference.MustKey("xwiki", []string{space}, name, ""),
		Version: version,
		Title:   name,
		Content: "content of " + name,
	}
}

func testConfig(jobs ...config.JobConfig) *config.Config {
	return &config.Config{
		Index: config.IndexConfig{Path: ":memory:"},
		Sync:  config.SyncConfig{Jobs: jobs},
	}
}

func openIndex(t *testing.T) *sqlite.Index {
	t.Helper()
	idx, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestNewIndexSyncApp_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewIndexSyncApp(context.Background())
	require.ErrorContains(t, err, "config cannot be nil")
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr    string
		wantErr bool
	}{
		{addr: ":8080"},
		{addr: "localhost:9090"},
		{addr: "127.0.0.1:0"},
		{addr: "", wantErr: true},
		{addr: "8080", wantErr: true},
		{addr: "localhost:", wantErr: true},
		{addr: "not a host:80", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			cfg := &appConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestRequestFor(t *testing.T) {
	t.Parallel()

	keep := false
	req, err := RequestFor(&config.JobConfig{Name: "main", Root: "xwiki:Main", CleanInvalid: true, RemoveMissing: &keep})
	require.NoError(t, err)
	assert.Equal(t, "xwiki:Main", req.Root.String())
	assert.False(t, req.RemoveMissing)
	assert.True(t, req.CleanInvalid)
	assert.False(t, req.Overwrite)

	req, err = RequestFor(&config.JobConfig{Name: "all"})
	require.NoError(t, err)
	assert.True(t, req.Root.IsAll())
	assert.True(t, req.RemoveMissing, "deletions are applied by default")

	_, err = RequestFor(&config.JobConfig{Name: "bad", Root: ":Main"})
	require.Error(t, err)
}

func TestNewIndexSyncApp_WiresComponents(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	idx := openIndex(t)
	cfg := testConfig(
		config.JobConfig{Name: "main", Root: "xwiki:Main", Interval: "5m"},
		config.JobConfig{Name: "full", Overwrite: true},
	)

	a, err := NewIndexSyncApp(context.Background(),
		WithConfig(cfg), WithStore(st), WithIndex(idx), WithTelemetry(telemetry.NewNoOp()))
	require.NoError(t, err)

	names := make([]string, 0, 2)
	for _, j := range a.Components().Jobs {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{"main", "full"}, names)
	assert.Equal(t, config.DefaultServerAddress, a.GetHTTPServer().Addr)
	assert.Same(t, cfg, a.GetConfig())

	rr := httptest.NewRecorder()
	a.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	st.pingErr = fmt.Errorf("connection refused")
	rr = httptest.NewRecorder()
	a.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNewIndexSyncApp_DuplicateJobNames(t *testing.T) {
	t.Parallel()

	cfg := testConfig(config.JobConfig{Name: "main"}, config.JobConfig{Name: "main"})
	_, err := NewIndexSyncApp(context.Background(),
		WithConfig(cfg), WithStore(newMemStore()), WithIndex(openIndex(t)), WithTelemetry(telemetry.NewNoOp()))
	require.ErrorContains(t, err, "duplicate job name")
}

func TestIndexSyncApp_Run(t *testing.T) {
	t.Parallel()

	st := newMemStore(
		testDoc("Main", "WebHome", "1.1"),
		testDoc("Main", "Sandbox", "2.1"),
		testDoc("Blog", "Post", "1.1"),
	)
	idx := openIndex(t)
	cfg := testConfig(config.JobConfig{Name: "main", Root: "xwiki:Main", Interval: "1h"})

	a, err := NewIndexSyncApp(context.Background(),
		WithConfig(cfg),
		WithAddress("127.0.0.1:0"),
		WithStore(st),
		WithIndex(idx),
		WithTelemetry(telemetry.NewNoOp()),
		WithCoordinatorOptions(coordinator.WithPollingInterval(time.Hour, 0)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx, 5*time.Second) }()

	require.Eventually(t, func() bool {
		n, err := idx.CountEntries(context.Background(), reference.Scope{})
		return err == nil && n == 2
	}, 10*time.Second, 10*time.Millisecond, "the Main space is indexed")

	require.Eventually(t, func() bool {
		rr := httptest.NewRecorder()
		a.GetHTTPServer().Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
		body, _ := io.ReadAll(rr.Body)
		return rr.Code == http.StatusOK && strings.Contains(string(body), `"phase":"Complete"`)
	}, 10*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
}
