// Package plan defines the subscription plan catalogue.
//
// The catalogue is an immutable value constructed at startup and passed into
// the components that need it. Plans are never mutated at runtime.
package plan

import "errors"

// ErrUnknownPlan is returned when a plan id is not in the catalogue.
var ErrUnknownPlan = errors.New("plan: unknown plan")

// Interval is the billing frequency of a plan.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Plan describes one pricing tier.
type Plan struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	GatewayPriceID string   `json:"gatewayPriceId"` // Stripe price/plan identifier
	PriceCents     int64    `json:"priceCents"`
	Currency       string   `json:"currency"`
	Interval       Interval `json:"interval"`
	TrialDays      int64    `json:"trialDays"`
	Features       []string `json:"features"`
}

// Free reports whether the plan has no charge attached.
func (p Plan) Free() bool {
	return p.PriceCents == 0
}

// Catalog is an ordered, immutable set of plans.
type Catalog struct {
	plans []Plan
	byID  map[string]Plan
}

// NewCatalog builds a catalogue from the given plans, preserving order.
func NewCatalog(plans ...Plan) *Catalog {
	c := &Catalog{
		plans: make([]Plan, len(plans)),
		byID:  make(map[string]Plan, len(plans)),
	}
	copy(c.plans, plans)
	for _, p := range plans {
		c.byID[p.ID] = p
	}
	return c
}

// Get returns the plan with the given id, or ErrUnknownPlan.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.byID[id]
	if !ok {
		return Plan{}, ErrUnknownPlan
	}
	return p, nil
}

// Valid reports whether the plan id is in the catalogue.
func (c *Catalog) Valid(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// List returns the plans in catalogue order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Default returns the catalogue used when no custom plans are configured.
func Default() *Catalog {
	return NewCatalog(
		Plan{
			ID:             "free",
			Name:           "Free",
			GatewayPriceID: "",
			PriceCents:     0,
			Currency:       "eur",
			Interval:       IntervalMonthly,
			Features:       []string{"1 project", "Community support"},
		},
		Plan{
			ID:             "basic",
			Name:           "Basic",
			GatewayPriceID: "price_basic_monthly",
			PriceCents:     1000,
			Currency:       "eur",
			Interval:       IntervalMonthly,
			TrialDays:      7,
			Features:       []string{"10 projects", "Email support", "Invoices"},
		},
		Plan{
			ID:             "pro",
			Name:           "Pro",
			GatewayPriceID: "price_pro_monthly",
			PriceCents:     2500,
			Currency:       "eur",
			Interval:       IntervalMonthly,
			TrialDays:      7,
			Features:       []string{"Unlimited projects", "Priority support", "Invoices", "Team seats"},
		},
	)
}
