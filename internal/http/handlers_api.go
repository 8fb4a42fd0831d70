package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Vammshi2/Roxiler-Systems/internal/core"
	applog "github.com/Vammshi2/Roxiler-Systems/internal/log"
	"github.com/Vammshi2/Roxiler-Systems/internal/services"
)

// handleListTransactions serves one page of filtered transactions.
//
// GET /api/transactions?month&search&page&perPage
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := services.ListQuery{
		Month:   monthParam(r),
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		Page:    intParam(r, "page", 1),
		PerPage: intParam(r, "perPage", services.DefaultPerPage),
	}

	page, err := s.dashboard.List(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed",
			applog.FieldError, err, applog.FieldMonth, q.Month, applog.FieldSearch, q.Search, applog.FieldPage, q.Page)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleStatistics serves the sale statistics aggregate.
//
// GET /api/statistics?month
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month := monthParam(r)
	stats, err := s.getStatistics(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statistics failed", applog.FieldError, err, applog.FieldMonth, month)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleBarChart serves the fixed ten-bucket price histogram as a mapping of
// range label to count. All ten labels are present even when zero.
//
// GET /api/bar-chart?month
func (s *Server) handleBarChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month := monthParam(r)
	buckets, err := s.dashboard.BarChart(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Bar chart failed", applog.FieldError, err, applog.FieldMonth, month)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, core.BucketMap(buckets))
}

// handlePieChart serves category counts as a mapping of category to count.
// Only categories present in the filtered set appear.
//
// GET /api/pie-chart?month
func (s *Server) handlePieChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month := monthParam(r)
	counts, err := s.dashboard.PieChart(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Pie chart failed", applog.FieldError, err, applog.FieldMonth, month)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, core.CategoryMap(counts))
}

// handleCombinedData serves all three aggregates in one response. The
// underlying queries run concurrently; any one failing fails the call.
//
// GET /api/combined-data?month
func (s *Server) handleCombinedData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month := monthParam(r)
	combined, err := s.getCombined(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Combined data failed", applog.FieldError, err, applog.FieldMonth, month)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, combined)
}

// handleSeed re-runs the feed import. Safe to repeat thanks to upsert
// semantics; cached aggregates are flushed afterwards.
//
// POST /api/seed
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.seeder == nil {
		writeError(w, http.StatusServiceUnavailable, "seed importer not configured")
		return
	}

	// The feed download dominates, so allow well more than the client timeout
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	imported, err := s.seeder.Run(ctx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Seed import failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.flushCaches()
	slog.InfoContext(r.Context(), "Seed import completed", applog.FieldRowCount, imported)
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}
