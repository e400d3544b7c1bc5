package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v81"
	stripeclient "github.com/stripe/stripe-go/v81/client"

	"github.com/mbd888/billflow/internal/metrics"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	api     *stripeclient.API
	timeout time.Duration
}

// NewStripeGateway creates a Stripe-backed gateway with a per-call timeout.
func NewStripeGateway(apiKey string, timeout time.Duration) *StripeGateway {
	api := &stripeclient.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api, timeout: timeout}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, p CustomerParams) (string, error) {
	defer metrics.ObserveGateway("customer_create")()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
		Name:  stripe.String(p.Name),
	}
	params.Context = ctx
	params.AddMetadata("account_id", p.AccountID)
	if p.CardToken != "" {
		params.Source = stripe.String(p.CardToken)
	}

	cust, err := g.api.Customers.New(params)
	if err != nil {
		return "", &GatewayError{Op: "customer_create", Err: err}
	}
	return cust.ID, nil
}

func (g *StripeGateway) Subscribe(ctx context.Context, p SubscribeParams) (*GatewaySubscription, error) {
	defer metrics.ObserveGateway("subscribe")()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(p.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.PriceID)},
		},
	}
	params.Context = ctx
	if p.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(p.TrialDays)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, &GatewayError{Op: "subscribe", Err: err}
	}
	return gatewaySubscription(sub), nil
}

func (g *StripeGateway) Swap(ctx context.Context, p SwapParams) (*GatewaySubscription, error) {
	defer metrics.ObserveGateway("swap")()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	current, err := g.api.Subscriptions.Get(p.SubscriptionID, getParams)
	if err != nil {
		return nil, &GatewayError{Op: "swap", Err: err}
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, &GatewayError{Op: "swap", Err: fmt.Errorf("subscription %s has no items", p.SubscriptionID)}
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(p.PriceID),
			},
		},
	}
	params.Context = ctx
	if p.Prorate {
		params.ProrationBehavior = stripe.String("create_prorations")
	} else {
		params.ProrationBehavior = stripe.String("none")
	}
	if !p.TrialEnd.IsZero() {
		params.TrialEnd = stripe.Int64(p.TrialEnd.Unix())
	}

	sub, err := g.api.Subscriptions.Update(p.SubscriptionID, params)
	if err != nil {
		return nil, &GatewayError{Op: "swap", Err: err}
	}
	return gatewaySubscription(sub), nil
}

func (g *StripeGateway) Cancel(ctx context.Context, subscriptionID string) error {
	defer metrics.ObserveGateway("cancel")()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := g.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return &GatewayError{Op: "cancel", Err: err}
	}
	return nil
}

func (g *StripeGateway) InvoiceAndPay(ctx context.Context, p InvoiceParams) error {
	defer metrics.ObserveGateway("invoice")()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.InvoiceParams{
		Customer:     stripe.String(p.CustomerID),
		Subscription: stripe.String(p.SubscriptionID),
	}
	params.Context = ctx
	params.AddMetadata(MetaTaxPercent, strconv.FormatFloat(p.TaxPercent, 'f', -1, 64))

	inv, err := g.api.Invoices.New(params)
	if err != nil {
		// Nothing owed for this cycle means there is nothing to collect.
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeInvoiceNoCustomerLineItems {
			return nil
		}
		return &GatewayError{Op: "invoice", Err: err}
	}

	payParams := &stripe.InvoicePayParams{}
	payParams.Context = ctx
	if _, err := g.api.Invoices.Pay(inv.ID, payParams); err != nil {
		return &GatewayError{Op: "invoice_pay", Err: err}
	}
	return nil
}

func gatewaySubscription(sub *stripe.Subscription) *GatewaySubscription {
	gs := &GatewaySubscription{
		ID:     sub.ID,
		Status: string(sub.Status),
	}
	if sub.TrialEnd > 0 {
		gs.TrialEndsAt = time.Unix(sub.TrialEnd, 0)
	}
	return gs
}

var _ Gateway = (*StripeGateway)(nil)
