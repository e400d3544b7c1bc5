package billing

import "context"

// Store persists subscriptions. Create must reject a second active or
// trialing subscription for the same account with ErrSubscriptionExists.
type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetActiveByAccount(ctx context.Context, accountID string) (*Subscription, error)
	// LatestByAccount returns the most recently created subscription for the
	// account regardless of status, so a returning customer keeps their
	// gateway customer record.
	LatestByAccount(ctx context.Context, accountID string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}
