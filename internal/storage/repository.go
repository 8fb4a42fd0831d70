package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Vammshi2/Roxiler-Systems/internal/core"

	_ "modernc.org/sqlite"
)

// Filter narrows transaction queries. Month is a two-digit string matched as a
// literal "-MM-" substring of the stored timestamp, so it is year-agnostic.
// Search matches title, description or the textual form of price,
// case-insensitively. Both are optional and combine as AND.
type Filter struct {
	Month  string
	Search string
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// whereClause builds the shared WHERE fragment and its arguments for a filter.
func whereClause(f Filter) (string, []any) {
	conds := []string{"1=1"}
	var args []any

	if f.Month != "" {
		conds = append(conds, "instr(date_of_sale, ?) > 0")
		args = append(args, "-"+f.Month+"-")
	}
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		conds = append(conds, "(lower(title) LIKE ? OR lower(description) LIKE ? OR CAST(price AS TEXT) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	return strings.Join(conds, " AND "), args
}

// ListTransactions returns one page of matching rows ordered by sale date
// descending, ties broken by id descending so pagination is reproducible.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f Filter, limit, offset int) ([]core.Transaction, error) {
	where, args := whereClause(f)
	query := `SELECT id, title, price, description, category, image, sold, date_of_sale
		FROM transactions WHERE ` + where + `
		ORDER BY date_of_sale DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var sold int64
		var dateOfSale string
		if err := rows.Scan(&t.ID, &t.Title, &t.Price, &t.Description, &t.Category, &t.Image, &sold, &dateOfSale); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Sold = sold != 0
		t.DateOfSale, err = time.Parse(time.RFC3339, dateOfSale)
		if err != nil {
			return nil, fmt.Errorf("parse date_of_sale %q: %w", dateOfSale, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

// CountTransactions returns the number of rows matching the filter, ignoring
// pagination.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, f Filter) (int64, error) {
	where, args := whereClause(f)
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return total, nil
}

// Statistics aggregates sale amount and sold/unsold counts over the filtered
// set. The whole set is considered, never a page.
func (r *SQLiteRepository) Statistics(ctx context.Context, month string) (core.Statistics, error) {
	where, args := whereClause(Filter{Month: month})
	query := `SELECT
			COALESCE(SUM(CASE WHEN sold = 1 THEN price ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sold = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sold = 0 THEN 1 ELSE 0 END), 0)
		FROM transactions WHERE ` + where

	var stats core.Statistics
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalSaleAmount, &stats.TotalSoldItems, &stats.TotalUnsoldItems)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	return stats, nil
}

// Prices returns every matching row's price for histogram bucketing.
func (r *SQLiteRepository) Prices(ctx context.Context, month string) ([]float64, error) {
	where, args := whereClause(Filter{Month: month})
	rows, err := r.db.QueryContext(ctx, "SELECT price FROM transactions WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return prices, nil
}

// CategoryCounts groups matching rows by category. Ordered by count
// descending, then name, so rendering is stable.
func (r *SQLiteRepository) CategoryCounts(ctx context.Context, month string) ([]core.CategoryCount, error) {
	where, args := whereClause(Filter{Month: month})
	query := `SELECT category, COUNT(*) FROM transactions WHERE ` + where + `
		GROUP BY category ORDER BY COUNT(*) DESC, category ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	defer rows.Close()

	var counts []core.CategoryCount
	for rows.Next() {
		var c core.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return counts, nil
}

// UpsertTransactions inserts the given records, replacing any existing row
// with the same id. Re-importing the same feed never duplicates rows.
func (r *SQLiteRepository) UpsertTransactions(ctx context.Context, txs []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
			(id, title, price, description, category, image, sold, date_of_sale)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			price = excluded.price,
			description = excluded.description,
			category = excluded.category,
			image = excluded.image,
			sold = excluded.sold,
			date_of_sale = excluded.date_of_sale`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		sold := 0
		if t.Sold {
			sold = 1
		}
		_, err := stmt.ExecContext(ctx, t.ID, t.Title, t.Price, t.Description, t.Category, t.Image, sold,
			t.DateOfSale.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("upsert transaction %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Transactions upserted", "count", len(txs))
	return nil
}

// Count returns the total number of stored transactions. Used to decide
// whether the first-boot seed still needs to run.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count all transactions: %w", err)
	}
	return n, nil
}
