// Package account holds customer accounts and their billing tax profiles.
package account

import (
	"errors"
	"time"

	"github.com/mbd888/billflow/internal/tax"
)

// Errors
var (
	ErrAccountNotFound = errors.New("account: not found")
	ErrEmailTaken      = errors.New("account: email already registered")
)

// TaxProfile is the tax state derived from an account's billing country and
// VAT id. TaxPercent is zero whenever a valid VAT id is present (reverse
// charge) and the jurisdiction's configured rate otherwise.
type TaxProfile struct {
	CountryCode string  `json:"countryCode"`
	VATID       string  `json:"vatId,omitempty"`
	TaxPercent  float64 `json:"taxPercent"`
}

// Account represents a registered customer.
type Account struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Company      string     `json:"company,omitempty"`
	Street       string     `json:"street,omitempty"`
	City         string     `json:"city,omitempty"`
	PostalCode   string     `json:"postalCode,omitempty"`
	Tax          TaxProfile `json:"tax"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasValidVATID reports whether the account carries a VAT id that matches
// its billing country's format.
func (a *Account) HasValidVATID() bool {
	return a.Tax.VATID != "" && tax.ValidVATID(a.Tax.CountryCode, a.Tax.VATID)
}

// ApplyTaxProfile recomputes the derived tax percent from the account's
// current country and VAT id. Call after every change to either field.
func (a *Account) ApplyTaxProfile(resolver *tax.Resolver) error {
	percent, err := resolver.Resolve(a.Tax.CountryCode, a.HasValidVATID())
	if err != nil {
		return err
	}
	a.Tax.TaxPercent = percent
	return nil
}
