package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SingleActivePerAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &Subscription{ID: "sub_1", AccountID: "acc_1", PlanID: "basic", Status: StatusActive}
	require.NoError(t, store.Create(ctx, first))

	err := store.Create(ctx, &Subscription{ID: "sub_2", AccountID: "acc_1", PlanID: "pro", Status: StatusActive})
	assert.ErrorIs(t, err, ErrSubscriptionExists)

	// A canceled subscription does not block a new one.
	first.Status = StatusCanceled
	require.NoError(t, store.Update(ctx, first))
	require.NoError(t, store.Create(ctx, &Subscription{ID: "sub_3", AccountID: "acc_1", PlanID: "pro", Status: StatusActive}))

	active, err := store.GetActiveByAccount(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_3", active.ID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "sub_x")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	_, err = store.GetActiveByAccount(ctx, "acc_x")
	assert.ErrorIs(t, err, ErrNoActiveSubscription)

	_, err = store.LatestByAccount(ctx, "acc_x")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	err = store.Update(ctx, &Subscription{ID: "sub_x"})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestMemoryStore_LatestByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	old := &Subscription{ID: "sub_1", AccountID: "acc_1", Status: StatusCanceled, GatewayCustomerID: "cus_1"}
	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, &Subscription{ID: "sub_2", AccountID: "acc_1", Status: StatusActive, GatewayCustomerID: "cus_1"}))

	latest, err := store.LatestByAccount(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_2", latest.ID)
}

func TestMemoryStore_CopiesOnRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	require.NoError(t, store.Create(ctx, &Subscription{
		ID: "sub_1", AccountID: "acc_1", Status: StatusActive,
		Metadata:  map[string]string{MetaIP: "203.0.113.9"},
		CreatedAt: now,
	}))

	got, err := store.Get(ctx, "sub_1")
	require.NoError(t, err)
	got.Metadata[MetaIP] = "changed"
	got.Status = StatusCanceled

	again, err := store.Get(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", again.Metadata[MetaIP])
	assert.Equal(t, StatusActive, again.Status)
}
