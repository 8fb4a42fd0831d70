package core

// PriceRange is one fixed bucket of the price histogram.
type PriceRange struct {
	Label string
	Upper float64 // inclusive upper bound; 0 means unbounded
}

// PriceRanges is the fixed histogram table: ten buckets of width 100 with
// inclusive upper bounds, the last one open-ended.
var PriceRanges = []PriceRange{
	{Label: "0-100", Upper: 100},
	{Label: "101-200", Upper: 200},
	{Label: "201-300", Upper: 300},
	{Label: "301-400", Upper: 400},
	{Label: "401-500", Upper: 500},
	{Label: "501-600", Upper: 600},
	{Label: "601-700", Upper: 700},
	{Label: "701-800", Upper: 800},
	{Label: "801-900", Upper: 900},
	{Label: "901-above", Upper: 0},
}

// BucketCount pairs a range label with the number of prices that fell into it.
type BucketCount struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// BucketIndex returns the index into PriceRanges for a price.
func BucketIndex(price float64) int {
	for i, r := range PriceRanges[:len(PriceRanges)-1] {
		if price <= r.Upper {
			return i
		}
	}
	return len(PriceRanges) - 1
}

// BucketPrices counts prices into the fixed ranges. All ten buckets are
// always present, in table order, even when empty.
func BucketPrices(prices []float64) []BucketCount {
	counts := make([]BucketCount, len(PriceRanges))
	for i, r := range PriceRanges {
		counts[i].Range = r.Label
	}
	for _, p := range prices {
		counts[BucketIndex(p)].Count++
	}
	return counts
}

// BucketMap renders bucket counts as a label-to-count mapping for the
// JSON chart endpoint.
func BucketMap(counts []BucketCount) map[string]int64 {
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Range] = c.Count
	}
	return m
}

// CategoryMap renders category counts as a name-to-count mapping. Only
// categories that occur at least once are present.
func CategoryMap(counts []CategoryCount) map[string]int64 {
	m := make(map[string]int64, len(counts))
	for _, c := range counts {
		m[c.Category] = c.Count
	}
	return m
}
