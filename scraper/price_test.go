package scraper

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1 200 000 kr", 1200000},
		{"$12,500", 12500},
		{"€1.350.000", 1350000},
		{"SEK 45 000", 45000},
		{"2 500 000", 2500000},
		{"Current bid: 18 000 kr", 18000},
		{"12 500,50 kr", 12500},
		{"$4,200.00", 4200},
		{"", 0},
		{"free", 0},
		{"Page 12", 0},
		{"Lot 42", 0},
		{"999", 0},
		{"1000", 1000},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.raw)
		if got != tt.want {
			t.Errorf("ParsePrice(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestScalePrice(t *testing.T) {
	tests := []struct {
		raw   int
		scale float64
		want  int
	}{
		{1200000, sekToUSD, 114000},
		{10000, 0, 10000},
		{10000, 1, 10000},
		{20000, 0.5, 10000},
	}

	for _, tt := range tests {
		got := scalePrice(tt.raw, tt.scale)
		if got != tt.want {
			t.Errorf("scalePrice(%d, %v) = %d; want %d", tt.raw, tt.scale, got, tt.want)
		}
	}
}
