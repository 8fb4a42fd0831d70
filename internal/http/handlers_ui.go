package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	applog "github.com/Vammshi2/Roxiler-Systems/internal/log"
	"github.com/Vammshi2/Roxiler-Systems/internal/services"
)

var monthOptions = []struct {
	Value string
	Name  string
}{
	{"", "All months"},
	{"01", "January"}, {"02", "February"}, {"03", "March"}, {"04", "April"},
	{"05", "May"}, {"06", "June"}, {"07", "July"}, {"08", "August"},
	{"09", "September"}, {"10", "October"}, {"11", "November"}, {"12", "December"},
}

// handleDashboardPage renders the dashboard shell; the table and overview load
// as partials from /ui/*.
func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Months []struct {
			Value string
			Name  string
		}
		SelectedMonth string
	}{
		Months:        monthOptions,
		SelectedMonth: "03",
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", applog.FieldError, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type transactionRow struct {
	ID          int64
	Title       string
	Description string
	Price       string
	Category    string
	Sold        bool
	DateOfSale  string
}

// handleTransactionsPartial renders the table partial plus pagination
// controls for the current filters.
func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	q := services.ListQuery{
		Month:   monthParam(r),
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		Page:    intParam(r, "page", 1),
		PerPage: intParam(r, "perPage", services.DefaultPerPage),
	}

	page, err := s.dashboard.List(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transactions partial failed",
			applog.FieldError, err, applog.FieldMonth, q.Month, applog.FieldPage, q.Page)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed loading transactions</div>`))
		return
	}

	data := struct {
		Rows        []transactionRow
		Total       int64
		Page        int
		TotalPages  int64
		HasPrevious bool
		HasNext     bool
	}{
		Total:       page.Total,
		Page:        page.Page,
		TotalPages:  page.TotalPages,
		HasPrevious: page.Page > 1,
		HasNext:     int64(page.Page) < page.TotalPages,
	}
	for _, tx := range page.Data {
		data.Rows = append(data.Rows, transactionRow{
			ID:          tx.ID,
			Title:       tx.Title,
			Description: tx.Description,
			Price:       formatUSD(tx.Price),
			Category:    tx.Category,
			Sold:        tx.Sold,
			DateOfSale:  tx.DateOfSale.Format(time.DateOnly),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "transactions.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Transactions template failed", applog.FieldError, err)
		_, _ = w.Write([]byte(`<div class="error">Failed rendering transactions</div>`))
	}
}

type chartBar struct {
	Label string
	Count int64
	Width int
}

// handleOverviewPartial renders the summary cards, the price histogram and
// the category breakdown for one month filter.
func (s *Server) handleOverviewPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	month := monthParam(r)
	combined, err := s.getCombined(r.Context(), month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview partial failed", applog.FieldError, err, applog.FieldMonth, month)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed loading overview</div>`))
		return
	}

	var maxBucket int64
	for _, label := range bucketOrder() {
		if c := combined.BarChart[label]; c > maxBucket {
			maxBucket = c
		}
	}

	data := struct {
		TotalSaleAmount  string
		TotalSoldItems   int64
		TotalUnsoldItems int64
		Bars             []chartBar
		Categories       []chartBar
	}{
		TotalSaleAmount:  formatUSD(combined.Statistics.TotalSaleAmount),
		TotalSoldItems:   combined.Statistics.TotalSoldItems,
		TotalUnsoldItems: combined.Statistics.TotalUnsoldItems,
	}

	for _, label := range bucketOrder() {
		data.Bars = append(data.Bars, chartBar{
			Label: label,
			Count: combined.BarChart[label],
			Width: barWidth(combined.BarChart[label], maxBucket),
		})
	}

	var maxCategory int64
	for _, c := range combined.PieChart {
		if c > maxCategory {
			maxCategory = c
		}
	}
	for _, name := range sortedCategories(combined.PieChart) {
		data.Categories = append(data.Categories, chartBar{
			Label: name,
			Count: combined.PieChart[name],
			Width: barWidth(combined.PieChart[name], maxCategory),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Overview template failed", applog.FieldError, err)
		_, _ = w.Write([]byte(`<div class="error">Failed rendering overview</div>`))
	}
}

// barWidth scales a count to a rounded percent of the tallest bar, keeping
// tiny values visible.
func barWidth(count, max int64) int {
	if max <= 0 || count <= 0 {
		return 0
	}
	width := int((count*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
