// Package tax resolves the VAT rate to charge for a billing country.
//
// The reverse-charge rule applies to business customers holding a valid VAT
// id: their rate is always zero and the tax liability shifts to the buyer.
// Everyone else pays the standard rate configured for their jurisdiction.
package tax

import (
	"errors"
	"strings"
)

// ErrUnknownJurisdiction is returned when no rate is configured for a country.
var ErrUnknownJurisdiction = errors.New("tax: unknown jurisdiction")

// RateTable maps ISO 3166-1 alpha-2 country codes to VAT percentages.
type RateTable map[string]float64

// EURates returns the standard VAT rates for the EU member states.
// Values are percentages (0..100).
func EURates() RateTable {
	return RateTable{
		"AT": 20, "BE": 21, "BG": 20, "HR": 25, "CY": 19,
		"CZ": 21, "DK": 25, "EE": 22, "FI": 25.5, "FR": 20,
		"DE": 19, "GR": 24, "HU": 27, "IE": 23, "IT": 22,
		"LV": 21, "LT": 21, "LU": 17, "MT": 18, "NL": 21,
		"PL": 23, "PT": 23, "RO": 19, "SK": 23, "SI": 22,
		"ES": 21, "SE": 25,
	}
}

// Resolver maps a billing country and VAT-id validity to a tax percentage.
// It is pure and safe for concurrent use; the rate table is copied at
// construction and never mutated.
type Resolver struct {
	rates RateTable
}

// NewResolver creates a resolver over the given rate table.
func NewResolver(rates RateTable) *Resolver {
	cp := make(RateTable, len(rates))
	for k, v := range rates {
		cp[strings.ToUpper(k)] = v
	}
	return &Resolver{rates: cp}
}

// Resolve returns the tax percentage for the given country.
// A valid VAT id means reverse charge: the rate is zero regardless of country.
func (r *Resolver) Resolve(countryCode string, hasValidVATID bool) (float64, error) {
	if hasValidVATID {
		return 0, nil
	}
	rate, ok := r.rates[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return 0, ErrUnknownJurisdiction
	}
	return rate, nil
}

// Knows reports whether a rate is configured for the country.
func (r *Resolver) Knows(countryCode string) bool {
	_, ok := r.rates[strings.ToUpper(strings.TrimSpace(countryCode))]
	return ok
}
