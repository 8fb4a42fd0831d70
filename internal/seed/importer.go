package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Vammshi2/Roxiler-Systems/internal/core"
)

// Store is the subset of the repository the importer writes through.
type Store interface {
	Count(ctx context.Context) (int64, error)
	UpsertTransactions(ctx context.Context, txs []core.Transaction) error
}

// Importer fetches the external product-transaction feed and loads it into
// the store. Upsert semantics make re-runs safe.
type Importer struct {
	store     Store
	client    *http.Client
	url       string
	batchSize int
}

func NewImporter(store Store, url string, timeout time.Duration, batchSize int) *Importer {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Importer{
		store:     store,
		client:    &http.Client{Timeout: timeout},
		url:       url,
		batchSize: batchSize,
	}
}

// RunIfEmpty runs the import only when the store holds no transactions yet.
// Returns whether an import was performed.
func (i *Importer) RunIfEmpty(ctx context.Context) (bool, error) {
	n, err := i.store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("check seed state: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Seed skipped, store already populated", "rows", n)
		return false, nil
	}
	imported, err := i.Run(ctx)
	if err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "First-boot seed completed", "imported", imported)
	return true, nil
}

// Run fetches the feed and upserts every valid record in batches. Invalid
// records are logged and skipped rather than failing the whole import.
func (i *Importer) Run(ctx context.Context) (int, error) {
	txs, err := i.fetch(ctx)
	if err != nil {
		return 0, err
	}

	valid := txs[:0]
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid feed record", "id", t.ID, "error", err)
			continue
		}
		valid = append(valid, t)
	}

	for start := 0; start < len(valid); start += i.batchSize {
		end := start + i.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		if err := i.store.UpsertTransactions(ctx, valid[start:end]); err != nil {
			return start, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
	}

	return len(valid), nil
}

func (i *Importer) fetch(ctx context.Context) ([]core.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build seed request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("seed feed returned %d: %s", resp.StatusCode, string(body))
	}

	var txs []core.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode seed feed: %w", err)
	}

	return txs, nil
}
