// Package billing manages the subscription lifecycle against a payment
// gateway. All mutations for one account are serialized; gateway calls that
// move money are made at most once per operation and never retried.
package billing

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrSubscriptionNotFound = errors.New("billing: subscription not found")
	ErrNoActiveSubscription = errors.New("billing: no active subscription")
	ErrSubscriptionExists   = errors.New("billing: account already has an active subscription")
	ErrFreePlanSwap         = errors.New("billing: free subscriptions cannot be swapped, subscribe to the new plan instead")
)

// GatewayError wraps a failure from the payment gateway. The underlying
// operation may or may not have taken effect remotely; local state is only
// advanced after a confirmed gateway response.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("billing: gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

// Metadata keys attached to gateway subscriptions.
const (
	MetaIP         = "ip"
	MetaCompany    = "company"
	MetaVATID      = "vat_id"
	MetaTaxPercent = "tax_percent"
)

// Subscription is one account's subscription to a plan. TaxPercent is the
// rate snapshotted from the account's tax profile at the last mutation.
type Subscription struct {
	ID                    string            `json:"id"`
	AccountID             string            `json:"accountId"`
	PlanID                string            `json:"planId"`
	GatewayCustomerID     string            `json:"-"`
	GatewaySubscriptionID string            `json:"-"`
	Status                Status            `json:"status"`
	TaxPercent            float64           `json:"taxPercent"`
	TrialEndsAt           *time.Time        `json:"trialEndsAt,omitempty"`
	CanceledAt            *time.Time        `json:"canceledAt,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// Active reports whether the subscription is currently in force.
func (s *Subscription) Active() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// OnTrial reports whether the subscription is in a trial period that has not
// yet elapsed.
func (s *Subscription) OnTrial() bool {
	return s.Status == StatusTrialing && s.TrialEndsAt != nil && s.TrialEndsAt.After(time.Now())
}
