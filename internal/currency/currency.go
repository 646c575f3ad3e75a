// Package currency renders monetary amounts according to a user's display
// settings: currency symbol, decimal digits and symbol placement.
package currency

import (
	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CHF": "CHF",
	"CAD": "$",
	"AUD": "$",
	"BRL": "R$",
	"INR": "₹",
	"CNY": "¥",
}

const (
	defaultCurrency = "USD"
	defaultDigits   = 2
)

// Symbol returns the display symbol for a currency code, falling back to the
// code itself for currencies not in the table.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	if code == "" {
		return symbols[defaultCurrency]
	}
	return code
}

// Format renders an amount using the given settings. A zero-value settings
// struct yields the defaults: USD, two digits, symbol before the amount.
func Format(amount decimal.Decimal, settings core.UserSettings) string {
	digits := settings.DecimalDigits
	if digits <= 0 {
		digits = defaultDigits
	}
	symbol := Symbol(settings.Currency)
	number := amount.StringFixed(int32(digits))

	if settings.Placement != nil && *settings.Placement == core.PlacementAfter {
		return number + " " + symbol
	}
	return symbol + number
}
