package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMinorUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount string
		want   int64
	}{
		{amount: "49.99", want: 4999},
		{amount: "10.00", want: 1000},
		{amount: "0.01", want: 1},
		{amount: "19.999", want: 2000},
		{amount: "100", want: 10000},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.amount, func(t *testing.T) {
			t.Parallel()

			if got := MinorUnits(decimal.RequireFromString(tc.amount)); got != tc.want {
				t.Fatalf("MinorUnits(%s) = %d, want %d", tc.amount, got, tc.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{name: "Huile CBD 10%", want: "huile-cbd-10"},
		{name: "  Fleurs  ", want: "fleurs"},
		{name: "Infusions & Tisanes", want: "infusions-tisanes"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Slugify(tc.name); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}
