package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWorthFilter_Matches(t *testing.T) {
	max := decimal.RequireFromString("30.00")

	tests := []struct {
		name   string
		filter WorthFilter
		worth  string
		want   bool
	}{
		{"below min", WorthFilter{Min: decimal.RequireFromString("10")}, "9.99", false},
		{"at min", WorthFilter{Min: decimal.RequireFromString("10")}, "10.00", true},
		{"no upper bound", WorthFilter{Min: decimal.Zero}, "1000000", true},
		{"at max", WorthFilter{Min: decimal.Zero, Max: &max}, "30.00", true},
		{"above max", WorthFilter{Min: decimal.Zero, Max: &max}, "30.01", false},
		{"inside range", WorthFilter{Min: decimal.RequireFromString("10"), Max: &max}, "20", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Matches(decimal.RequireFromString(tt.worth))
			if got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", tt.worth, got, tt.want)
			}
		})
	}
}
