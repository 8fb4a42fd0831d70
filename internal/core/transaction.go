package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

type (
	// Transaction is one product sale record as imported from the feed.
	Transaction struct {
		ID          int64     `json:"id"`
		Title       string    `json:"title"`
		Price       float64   `json:"price"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Image       string    `json:"image"`
		Sold        bool      `json:"sold"`
		DateOfSale  time.Time `json:"dateOfSale"`
	}

	// Statistics summarizes the filtered set: revenue from sold items plus
	// sold/unsold counts.
	Statistics struct {
		TotalSaleAmount  float64 `json:"totalSaleAmount"`
		TotalSoldItems   int64   `json:"totalSoldItems"`
		TotalUnsoldItems int64   `json:"totalUnsoldItems"`
	}

	// CategoryCount holds the number of transactions in one category.
	CategoryCount struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}

	// CombinedData bundles all three aggregates for a single month filter.
	CombinedData struct {
		Statistics Statistics       `json:"statistics"`
		BarChart   map[string]int64 `json:"barChart"`
		PieChart   map[string]int64 `json:"pieChart"`
	}
)

var (
	ErrInvalidMonth    = errors.New("invalid month")
	ErrNegativePrice   = errors.New("negative price")
	ErrEmptyCategory   = errors.New("empty category")
	ErrMissingSaleDate = errors.New("missing sale date")
)

// ParseMonth normalizes a month query parameter to a two-digit string
// ("01".."12"). An empty input means "all months" and is valid. The second
// return value reports whether the input was usable; callers that treat
// malformed filters permissively can log and fall back to the empty filter.
func ParseMonth(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	m, err := strconv.Atoi(s)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	if m < 10 {
		return "0" + strconv.Itoa(m), true
	}
	return strconv.Itoa(m), true
}

func (t Transaction) Validate() error {
	if t.Price < 0 {
		return ErrNegativePrice
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.DateOfSale.IsZero() {
		return ErrMissingSaleDate
	}
	return nil
}
