// Package registration validates new-account submissions.
//
// Expected failures (missing fields, malformed values) come back as
// field-level errors, never as Go errors; the only hard failure is an
// unreachable uniqueness directory.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbd888/billflow/internal/retry"
	"github.com/mbd888/billflow/internal/tax"
	"github.com/mbd888/billflow/internal/validation"
)

// ErrDirectoryUnavailable is returned when the account directory cannot be
// reached to check email uniqueness. It is transient; callers may retry.
var ErrDirectoryUnavailable = errors.New("registration: account directory unavailable")

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// AccountDirectory answers email uniqueness checks against existing accounts.
type AccountDirectory interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// Submission carries the raw registration form fields.
type Submission struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
	Terms                bool   `json:"terms"`

	// Billing address, required when the deployment handles VAT.
	Company    string `json:"company"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	VATID      string `json:"vatId"`
}

// Result is the outcome of validating a submission. An empty Errors set
// means the submission is acceptable.
type Result struct {
	Errors validation.Errors `json:"errors,omitempty"`
}

// OK reports whether the submission passed validation.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Validator checks registration submissions.
type Validator struct {
	directory AccountDirectory

	// Directory lookups are reads, safe to retry with backoff.
	lookupAttempts int
	lookupBackoff  time.Duration
}

// NewValidator creates a validator backed by the given account directory.
func NewValidator(directory AccountDirectory) *Validator {
	return &Validator{
		directory:      directory,
		lookupAttempts: 3,
		lookupBackoff:  100 * time.Millisecond,
	}
}

// Validate checks a submission. requiresBillingAddress enables the address
// and VAT-id rules used by VAT-handling deployments.
func (v *Validator) Validate(ctx context.Context, sub Submission, requiresBillingAddress bool) (Result, error) {
	checks := []func() *validation.Error{
		validation.Required("name", sub.Name),
		validation.MaxLength("name", sub.Name, validation.MaxNameLength),
		validation.Required("email", sub.Email),
		validation.Email("email", sub.Email),
		validation.Required("password", sub.Password),
		validation.MinLength("password", sub.Password, MinPasswordLength),
		validation.Matches("password", sub.Password, sub.PasswordConfirmation),
		validation.Accepted("terms", sub.Terms),
	}

	if requiresBillingAddress {
		checks = append(checks,
			validation.Required("street", sub.Street),
			validation.Required("city", sub.City),
			validation.Required("postalCode", sub.PostalCode),
			validation.Required("country", sub.Country),
			v.vatCheck(sub),
		)
	}

	errs := validation.Validate(checks...)

	// Uniqueness only matters once the email is otherwise acceptable.
	if sub.Email != "" && !errs.Has("email") {
		taken, err := v.emailTaken(ctx, sub.Email)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
		if taken {
			errs = append(errs, validation.Error{Field: "email", Message: "is already registered"})
		}
	}

	return Result{Errors: errs}, nil
}

// vatCheck validates a supplied VAT id against the billing country's format.
// An empty VAT id is fine; the field is optional.
func (v *Validator) vatCheck(sub Submission) func() *validation.Error {
	return func() *validation.Error {
		if sub.VATID == "" {
			return nil
		}
		if !tax.ValidVATID(sub.Country, sub.VATID) {
			return &validation.Error{Field: "vatId", Message: "is not a valid VAT number"}
		}
		return nil
	}
}

func (v *Validator) emailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := retry.Do(ctx, v.lookupAttempts, v.lookupBackoff, func() error {
		var err error
		taken, err = v.directory.EmailTaken(ctx, email)
		return err
	})
	return taken, err
}
