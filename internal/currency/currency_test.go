package currency

import (
	"testing"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
)

func TestFormat(t *testing.T) {
	after := core.PlacementAfter
	before := core.PlacementBefore

	tests := []struct {
		name     string
		amount   string
		settings core.UserSettings
		want     string
	}{
		{
			name:     "defaults",
			amount:   "1234.5",
			settings: core.UserSettings{},
			want:     "$1234.50",
		},
		{
			name:     "euro before",
			amount:   "22.5",
			settings: core.UserSettings{Currency: "EUR", DecimalDigits: 2, Placement: &before},
			want:     "€22.50",
		},
		{
			name:     "symbol after",
			amount:   "99.9",
			settings: core.UserSettings{Currency: "EUR", DecimalDigits: 2, Placement: &after},
			want:     "99.90 €",
		},
		{
			name:     "unknown code falls back to the code",
			amount:   "10",
			settings: core.UserSettings{Currency: "XYZ", DecimalDigits: 2},
			want:     "XYZ10.00",
		},
		{
			name:     "custom digits",
			amount:   "1.234",
			settings: core.UserSettings{Currency: "USD", DecimalDigits: 3},
			want:     "$1.234",
		},
		{
			name:     "negative amount",
			amount:   "-5",
			settings: core.UserSettings{Currency: "GBP", DecimalDigits: 2},
			want:     "£-5.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(decimal.RequireFromString(tt.amount), tt.settings)
			if got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}
