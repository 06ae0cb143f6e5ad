package enums

import (
	"fmt"
	"strings"
)

// Currency is the display currency a user prefers.
type Currency string

const (
	CurrencyRupee  Currency = "rupee"
	CurrencyDollar Currency = "dollar"
)

var validCurrencies = []Currency{
	CurrencyRupee,
	CurrencyDollar,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCurrencies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
