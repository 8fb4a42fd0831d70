package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Vammshi2/Roxiler-Systems/internal/core"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// monthParam reads and normalizes the month query parameter. Malformed values
// are treated as absent (no filtering) per the permissive parameter policy,
// with a warning so bad callers are visible.
func monthParam(r *http.Request) string {
	raw := r.URL.Query().Get("month")
	month, ok := core.ParseMonth(raw)
	if !ok {
		slog.WarnContext(r.Context(), "Ignoring malformed month parameter", "month", raw)
	}
	return month
}

func intParam(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// formatUSD renders an amount as US dollars with thousands grouping,
// e.g. 1234567.5 -> "$1,234,567.50".
func formatUSD(amount float64) string {
	neg := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))
	dollars := cents / 100
	rem := cents % 100

	digits := strconv.FormatInt(dollars, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	s := fmt.Sprintf("$%s.%02d", b.String(), rem)
	if neg {
		return "-" + s
	}
	return s
}

// bucketOrder returns the histogram labels in range-table order, since maps
// lose it.
func bucketOrder() []string {
	labels := make([]string, len(core.PriceRanges))
	for i, r := range core.PriceRanges {
		labels[i] = r.Label
	}
	return labels
}

// sortedCategories orders category names by count descending, ties by name,
// matching the repository's ordering.
func sortedCategories(counts map[string]int64) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
