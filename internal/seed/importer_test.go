package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vammshi2/Roxiler-Systems/internal/core"
)

type memStore struct {
	rows map[int64]core.Transaction
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]core.Transaction)}
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

func (m *memStore) UpsertTransactions(ctx context.Context, txs []core.Transaction) error {
	for _, t := range txs {
		m.rows[t.ID] = t
	}
	return nil
}

const feedJSON = `[
	{"id":1,"title":"Laptop","price":999,"description":"fast","category":"electronics","image":"","sold":true,"dateOfSale":"2021-11-27T20:29:54Z"},
	{"id":2,"title":"Mouse","price":50,"description":"wireless","category":"electronics","image":"","sold":false,"dateOfSale":"2022-01-15T10:00:00Z"},
	{"id":3,"title":"Broken","price":-5,"description":"","category":"","image":"","sold":false,"dateOfSale":"2022-01-15T10:00:00Z"}
]`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = strings.NewReader(feedJSON).WriteTo(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSkipsInvalidRecords(t *testing.T) {
	srv := feedServer(t)
	store := newMemStore()
	imp := NewImporter(store, srv.URL, 5*time.Second, 100)

	imported, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if imported != 2 {
		t.Fatalf("imported %d records, want 2 (invalid one skipped)", imported)
	}
	if _, ok := store.rows[3]; ok {
		t.Fatalf("invalid record was stored")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	srv := feedServer(t)
	store := newMemStore()
	imp := NewImporter(store, srv.URL, 5*time.Second, 1) // batch size 1 exercises batching

	if _, err := imp.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := imp.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(store.rows) != 2 {
		t.Fatalf("re-import duplicated rows: %d", len(store.rows))
	}
}

func TestRunIfEmpty(t *testing.T) {
	srv := feedServer(t)
	store := newMemStore()
	imp := NewImporter(store, srv.URL, 5*time.Second, 100)

	ran, err := imp.RunIfEmpty(context.Background())
	if err != nil {
		t.Fatalf("run if empty: %v", err)
	}
	if !ran {
		t.Fatalf("expected seed to run on empty store")
	}

	ran, err = imp.RunIfEmpty(context.Background())
	if err != nil {
		t.Fatalf("second run if empty: %v", err)
	}
	if ran {
		t.Fatalf("seed must not re-run once populated")
	}
}

func TestRunSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	imp := NewImporter(newMemStore(), srv.URL, 5*time.Second, 100)
	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatalf("expected error for non-200 feed response")
	}
}

func TestRunRejectsMalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	imp := NewImporter(newMemStore(), srv.URL, 5*time.Second, 100)
	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}
