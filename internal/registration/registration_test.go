package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	taken map[string]bool
	err   error
	calls int
}

func (f *fakeDirectory) EmailTaken(_ context.Context, email string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.taken[email], nil
}

func validSubmission() Submission {
	return Submission{
		Name:                 "Jane Doe",
		Email:                "jane@example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
		Terms:                true,
	}
}

func TestValidate_OK(t *testing.T) {
	v := NewValidator(&fakeDirectory{})

	res, err := v.Validate(context.Background(), validSubmission(), false)
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestValidate_FieldErrors(t *testing.T) {
	v := NewValidator(&fakeDirectory{})

	tests := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{"missing name", func(s *Submission) { s.Name = "" }, "name"},
		{"missing email", func(s *Submission) { s.Email = "" }, "email"},
		{"malformed email", func(s *Submission) { s.Email = "not-an-email" }, "email"},
		{"missing password", func(s *Submission) { s.Password = "" }, "password"},
		{"short password", func(s *Submission) { s.Password, s.PasswordConfirmation = "abc", "abc" }, "password"},
		{"mismatched confirmation", func(s *Submission) { s.PasswordConfirmation = "different" }, "password"},
		{"terms not accepted", func(s *Submission) { s.Terms = false }, "terms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)

			res, err := v.Validate(context.Background(), sub, false)
			require.NoError(t, err)
			assert.True(t, res.Errors.Has(tt.field))
		})
	}
}

func TestValidate_TermsAlwaysRequired(t *testing.T) {
	v := NewValidator(&fakeDirectory{})

	sub := validSubmission()
	sub.Terms = false
	sub.Street = "Main St 1"
	sub.City = "Berlin"
	sub.PostalCode = "10115"
	sub.Country = "DE"

	for _, withAddress := range []bool{false, true} {
		res, err := v.Validate(context.Background(), sub, withAddress)
		require.NoError(t, err)
		assert.True(t, res.Errors.Has("terms"))
	}
}

func TestValidate_BillingAddress(t *testing.T) {
	v := NewValidator(&fakeDirectory{})

	sub := validSubmission()

	// Address fields are only enforced when requested.
	res, err := v.Validate(context.Background(), sub, false)
	require.NoError(t, err)
	assert.True(t, res.OK())

	res, err = v.Validate(context.Background(), sub, true)
	require.NoError(t, err)
	assert.True(t, res.Errors.Has("street"))
	assert.True(t, res.Errors.Has("city"))
	assert.True(t, res.Errors.Has("postalCode"))
	assert.True(t, res.Errors.Has("country"))

	// A missing street must not taint the other address fields.
	sub.City = "Berlin"
	sub.PostalCode = "10115"
	sub.Country = "DE"
	res, err = v.Validate(context.Background(), sub, true)
	require.NoError(t, err)
	assert.True(t, res.Errors.Has("street"))
	assert.False(t, res.Errors.Has("city"))
	assert.False(t, res.Errors.Has("postalCode"))
	assert.False(t, res.Errors.Has("country"))
}

func TestValidate_VATID(t *testing.T) {
	v := NewValidator(&fakeDirectory{})

	sub := validSubmission()
	sub.Street = "Main St 1"
	sub.City = "Berlin"
	sub.PostalCode = "10115"
	sub.Country = "DE"

	// Optional: empty is fine.
	res, err := v.Validate(context.Background(), sub, true)
	require.NoError(t, err)
	assert.True(t, res.OK())

	sub.VATID = "DE123456789"
	res, err = v.Validate(context.Background(), sub, true)
	require.NoError(t, err)
	assert.True(t, res.OK())

	sub.VATID = "DE12"
	res, err = v.Validate(context.Background(), sub, true)
	require.NoError(t, err)
	assert.True(t, res.Errors.Has("vatId"))
}

func TestValidate_EmailTaken(t *testing.T) {
	dir := &fakeDirectory{taken: map[string]bool{"jane@example.com": true}}
	v := NewValidator(dir)

	res, err := v.Validate(context.Background(), validSubmission(), false)
	require.NoError(t, err)
	assert.True(t, res.Errors.Has("email"))
}

func TestValidate_SkipsLookupOnBadEmail(t *testing.T) {
	dir := &fakeDirectory{}
	v := NewValidator(dir)

	sub := validSubmission()
	sub.Email = "not-an-email"

	_, err := v.Validate(context.Background(), sub, false)
	require.NoError(t, err)
	assert.Zero(t, dir.calls)
}

func TestValidate_DirectoryUnavailable(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("connection refused")}
	v := NewValidator(dir)
	v.lookupAttempts = 2
	v.lookupBackoff = time.Millisecond

	_, err := v.Validate(context.Background(), validSubmission(), false)
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
	assert.Equal(t, 2, dir.calls)
}
