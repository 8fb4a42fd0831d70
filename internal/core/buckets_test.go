package core

import "testing"

func TestBucketIndex(t *testing.T) {
	cases := []struct {
		price float64
		want  int
	}{
		{0, 0},
		{50, 0},
		{100, 0},   // inclusive upper bound
		{100.01, 1},
		{101, 1},
		{200, 1},
		{900, 8},
		{900.5, 9},
		{999, 9},
		{15000, 9},
	}
	for i, tc := range cases {
		if got := BucketIndex(tc.price); got != tc.want {
			t.Fatalf("case %d: BucketIndex(%v) = %d, want %d", i, tc.price, got, tc.want)
		}
	}
}

func TestBucketPrices(t *testing.T) {
	counts := BucketPrices([]float64{50, 150, 999})

	if len(counts) != 10 {
		t.Fatalf("expected 10 buckets, got %d", len(counts))
	}
	want := map[string]int64{"0-100": 1, "101-200": 1, "901-above": 1}
	var total int64
	for _, c := range counts {
		total += c.Count
		if c.Count != want[c.Range] {
			t.Fatalf("bucket %s = %d, want %d", c.Range, c.Count, want[c.Range])
		}
	}
	if total != 3 {
		t.Fatalf("bucket counts sum to %d, want 3", total)
	}
}

func TestBucketPricesEmpty(t *testing.T) {
	counts := BucketPrices(nil)
	if len(counts) != 10 {
		t.Fatalf("expected 10 buckets even for empty input, got %d", len(counts))
	}
	for _, c := range counts {
		if c.Count != 0 {
			t.Fatalf("bucket %s = %d, want 0", c.Range, c.Count)
		}
	}
}

func TestBucketOrderMatchesRangeTable(t *testing.T) {
	counts := BucketPrices([]float64{1})
	for i, c := range counts {
		if c.Range != PriceRanges[i].Label {
			t.Fatalf("bucket %d label %q, want %q", i, c.Range, PriceRanges[i].Label)
		}
	}
}

func TestCategoryMap(t *testing.T) {
	m := CategoryMap([]CategoryCount{
		{Category: "electronics", Count: 3},
		{Category: "clothing", Count: 1},
	})
	if len(m) != 2 || m["electronics"] != 3 || m["clothing"] != 1 {
		t.Fatalf("unexpected category map: %v", m)
	}
}
