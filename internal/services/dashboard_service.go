package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Vammshi2/Roxiler-Systems/internal/core"
	"github.com/Vammshi2/Roxiler-Systems/internal/storage"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Store is the slice of the repository the dashboard reads from.
type Store interface {
	ListTransactions(ctx context.Context, f storage.Filter, limit, offset int) ([]core.Transaction, error)
	CountTransactions(ctx context.Context, f storage.Filter) (int64, error)
	Statistics(ctx context.Context, month string) (core.Statistics, error)
	Prices(ctx context.Context, month string) ([]float64, error)
	CategoryCounts(ctx context.Context, month string) ([]core.CategoryCount, error)
}

// ListQuery carries the dashboard's list filters. Month must already be
// normalized to two digits (or empty for all months).
type ListQuery struct {
	Month   string
	Search  string
	Page    int
	PerPage int
}

// TransactionPage is one page of results plus the pagination envelope.
type TransactionPage struct {
	Data       []core.Transaction `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"perPage"`
	TotalPages int64              `json:"totalPages"`
}

// DashboardService translates dashboard queries into store reads and shapes
// the aggregates.
type DashboardService struct {
	store Store
}

func NewDashboardService(store Store) *DashboardService {
	return &DashboardService{store: store}
}

// List returns one page of filtered transactions together with the total
// matching count and page arithmetic.
func (s *DashboardService) List(ctx context.Context, q ListQuery) (TransactionPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}

	f := storage.Filter{Month: q.Month, Search: q.Search}
	offset := (q.Page - 1) * q.PerPage

	txs, err := s.store.ListTransactions(ctx, f, q.PerPage, offset)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}
	total, err := s.store.CountTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("count transactions: %w", err)
	}

	if txs == nil {
		txs = []core.Transaction{}
	}
	return TransactionPage{
		Data:       txs,
		Total:      total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: totalPages(total, q.PerPage),
	}, nil
}

func totalPages(total int64, perPage int) int64 {
	if total == 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}

// Statistics aggregates sale amount and sold/unsold counts over the whole
// filtered set.
func (s *DashboardService) Statistics(ctx context.Context, month string) (core.Statistics, error) {
	return s.store.Statistics(ctx, month)
}

// BarChart buckets every matching price into the fixed ten ranges. All ten
// labels are present even when empty.
func (s *DashboardService) BarChart(ctx context.Context, month string) ([]core.BucketCount, error) {
	prices, err := s.store.Prices(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("bar chart prices: %w", err)
	}
	return core.BucketPrices(prices), nil
}

// PieChart groups matching rows by category.
func (s *DashboardService) PieChart(ctx context.Context, month string) ([]core.CategoryCount, error) {
	return s.store.CategoryCounts(ctx, month)
}

// Combined runs all three aggregates concurrently for the same month filter.
// Any one failing fails the whole call.
func (s *DashboardService) Combined(ctx context.Context, month string) (core.CombinedData, error) {
	var (
		stats      core.Statistics
		buckets    []core.BucketCount
		categories []core.CategoryCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.Statistics(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		buckets, err = s.BarChart(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.PieChart(gctx, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.CombinedData{}, fmt.Errorf("combined fetch: %w", err)
	}

	return core.CombinedData{
		Statistics: stats,
		BarChart:   core.BucketMap(buckets),
		PieChart:   core.CategoryMap(categories),
	}, nil
}
