package billing

import (
	"context"
	"time"
)

// CustomerParams creates a gateway customer record.
type CustomerParams struct {
	AccountID string
	Email     string
	Name      string
	CardToken string
}

// SubscribeParams starts a gateway subscription for an existing customer.
type SubscribeParams struct {
	CustomerID string
	PriceID    string
	TrialDays  int64
	Metadata   map[string]string
}

// SwapParams moves a gateway subscription to a different price. A non-zero
// TrialEnd preserves the remaining trial; Prorate requests proration credit
// for the unused portion of the old price.
type SwapParams struct {
	SubscriptionID string
	PriceID        string
	TrialEnd       time.Time
	Prorate        bool
}

// InvoiceParams creates and immediately collects an invoice, used to settle
// proration amounts at swap time.
type InvoiceParams struct {
	CustomerID     string
	SubscriptionID string
	TaxPercent     float64
}

// GatewaySubscription is the gateway's view of a subscription.
type GatewaySubscription struct {
	ID          string
	Status      string
	TrialEndsAt time.Time
}

// Gateway abstracts the payment provider. Implementations must not retry
// internally; every call maps to at most one remote mutation.
type Gateway interface {
	CreateCustomer(ctx context.Context, p CustomerParams) (string, error)
	Subscribe(ctx context.Context, p SubscribeParams) (*GatewaySubscription, error)
	Swap(ctx context.Context, p SwapParams) (*GatewaySubscription, error)
	Cancel(ctx context.Context, subscriptionID string) error
	InvoiceAndPay(ctx context.Context, p InvoiceParams) error
}
