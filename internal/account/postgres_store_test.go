package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/billflow/internal/account"
	"github.com/mbd888/billflow/internal/testutil"
)

func TestPostgresStore_RoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := account.NewPostgresStore(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	a := &account.Account{
		ID:           "acc_pg1",
		Name:         "Jane Doe",
		Email:        "Jane@Example.com",
		PasswordHash: "x",
		Company:      "Acme GmbH",
		Street:       "Main St 1",
		City:         "Berlin",
		PostalCode:   "10115",
		Tax:          account.TaxProfile{CountryCode: "DE", VATID: "DE123456789", TaxPercent: 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.Create(ctx, a))

	got, err := store.Get(ctx, "acc_pg1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "DE", got.Tax.CountryCode)
	assert.Equal(t, "DE123456789", got.Tax.VATID)

	got, err = store.GetByEmail(ctx, "JANE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "acc_pg1", got.ID)

	err = store.Create(ctx, &account.Account{ID: "acc_pg2", Name: "Dup", Email: "jane@example.com", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, account.ErrEmailTaken)

	taken, err := store.EmailTaken(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	got.City = "Munich"
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.Update(ctx, got))

	got, err = store.Get(ctx, "acc_pg1")
	require.NoError(t, err)
	assert.Equal(t, "Munich", got.City)

	_, err = store.Get(ctx, "acc_missing")
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}
