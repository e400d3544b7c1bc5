package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/mbd888/billflow/internal/account"
	"github.com/mbd888/billflow/internal/idgen"
	"github.com/mbd888/billflow/internal/logging"
	"github.com/mbd888/billflow/internal/metrics"
	"github.com/mbd888/billflow/internal/plan"
	"github.com/mbd888/billflow/internal/syncutil"
	"github.com/mbd888/billflow/internal/tax"
	"github.com/mbd888/billflow/internal/traces"
)

// Service orchestrates the subscription lifecycle. All mutations for one
// account are serialized through a keyed mutex so concurrent requests cannot
// double-charge or interleave gateway calls.
type Service struct {
	store    Store
	accounts account.Store
	gateway  Gateway
	plans    *plan.Catalog
	taxes    *tax.Resolver
	locks    *syncutil.KeyMutex

	now func() time.Time
}

// NewService creates the subscription lifecycle service.
func NewService(store Store, accounts account.Store, gateway Gateway, plans *plan.Catalog, taxes *tax.Resolver) *Service {
	return &Service{
		store:    store,
		accounts: accounts,
		gateway:  gateway,
		plans:    plans,
		taxes:    taxes,
		locks:    syncutil.NewKeyMutex(),
		now:      time.Now,
	}
}

// CreateRequest starts a subscription for an account.
type CreateRequest struct {
	AccountID string `json:"-"`
	PlanID    string `json:"planId"`
	CardToken string `json:"cardToken"`
	ClientIP  string `json:"-"`
}

// Create subscribes the account to the given plan. Free plans never touch the
// gateway; paid plans create a gateway customer on first subscribe and reuse
// it afterwards.
func (s *Service) Create(ctx context.Context, p CreateRequest) (*Subscription, error) {
	ctx, span := traces.StartSpan(ctx, "billing.Create",
		traces.AccountID(p.AccountID), traces.PlanID(p.PlanID))
	defer span.End()

	unlock, err := s.locks.Lock(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pl, err := s.plans.Get(p.PlanID)
	if err != nil {
		s.count("create", "invalid")
		return nil, err
	}

	acct, err := s.accounts.Get(ctx, p.AccountID)
	if err != nil {
		s.count("create", "invalid")
		return nil, err
	}

	if _, err := s.store.GetActiveByAccount(ctx, p.AccountID); err == nil {
		s.count("create", "conflict")
		return nil, ErrSubscriptionExists
	} else if err != ErrNoActiveSubscription {
		s.count("create", "error")
		return nil, err
	}

	taxPercent, err := s.resolveTax(acct)
	if err != nil {
		s.count("create", "invalid")
		return nil, err
	}

	now := s.now()
	sub := &Subscription{
		ID:         idgen.WithPrefix("sub_"),
		AccountID:  acct.ID,
		PlanID:     pl.ID,
		Status:     StatusActive,
		TaxPercent: taxPercent,
		Metadata: map[string]string{
			MetaIP:         p.ClientIP,
			MetaCompany:    acct.Company,
			MetaVATID:      acct.Tax.VATID,
			MetaTaxPercent: formatPercent(taxPercent),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if !pl.Free() {
		customerID, err := s.customerID(ctx, acct, p.CardToken)
		if err != nil {
			s.count("create", "gateway_error")
			return nil, err
		}

		gwSub, err := s.gateway.Subscribe(ctx, SubscribeParams{
			CustomerID: customerID,
			PriceID:    pl.GatewayPriceID,
			TrialDays:  pl.TrialDays,
			Metadata:   sub.Metadata,
		})
		if err != nil {
			s.count("create", "gateway_error")
			return nil, err
		}

		sub.GatewayCustomerID = customerID
		sub.GatewaySubscriptionID = gwSub.ID
		if !gwSub.TrialEndsAt.IsZero() && gwSub.TrialEndsAt.After(now) {
			sub.Status = StatusTrialing
			trialEnd := gwSub.TrialEndsAt
			sub.TrialEndsAt = &trialEnd
		}
	}

	if err := s.store.Create(ctx, sub); err != nil {
		// Lost a race only possible across processes; the gateway subscription
		// is left for reconciliation.
		logging.L(ctx).Error("subscription persisted state diverged from gateway",
			"account_id", acct.ID, "gateway_subscription_id", sub.GatewaySubscriptionID,
			"error", err)
		s.count("create", "error")
		return nil, err
	}

	logging.L(ctx).Info("subscription created",
		"subscription_id", sub.ID, "account_id", acct.ID,
		"plan_id", pl.ID, "tax_percent", taxPercent, "status", sub.Status)
	s.count("create", "ok")
	return sub, nil
}

// SwapRequest moves an account's active subscription to a different plan.
type SwapRequest struct {
	AccountID string `json:"-"`
	PlanID    string `json:"planId"`
}

// Swap switches the account's active subscription to the given plan,
// preserving any remaining trial and prorating the difference. The local plan
// switch is committed only after the proration invoice settles; an invoice
// failure rolls the gateway back to the old price.
func (s *Service) Swap(ctx context.Context, p SwapRequest) (*Subscription, error) {
	ctx, span := traces.StartSpan(ctx, "billing.Swap",
		traces.AccountID(p.AccountID), traces.PlanID(p.PlanID))
	defer span.End()

	unlock, err := s.locks.Lock(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	newPlan, err := s.plans.Get(p.PlanID)
	if err != nil {
		s.count("swap", "invalid")
		return nil, err
	}

	sub, err := s.store.GetActiveByAccount(ctx, p.AccountID)
	if err != nil {
		s.count("swap", "invalid")
		return nil, err
	}
	if sub.PlanID == newPlan.ID {
		s.count("swap", "ok")
		return sub, nil
	}

	acct, err := s.accounts.Get(ctx, p.AccountID)
	if err != nil {
		s.count("swap", "error")
		return nil, err
	}
	taxPercent, err := s.resolveTax(acct)
	if err != nil {
		s.count("swap", "invalid")
		return nil, err
	}

	oldPlan, err := s.plans.Get(sub.PlanID)
	if err != nil {
		// Plan removed from the catalogue after subscribing; the gateway
		// price on record still identifies it for rollback.
		oldPlan = plan.Plan{ID: sub.PlanID}
	}

	if sub.GatewaySubscriptionID == "" {
		// A local-only free subscription has no gateway state or payment
		// method to swap against.
		s.count("swap", "invalid")
		return nil, ErrFreePlanSwap
	}

	var trialEnd time.Time
	if sub.OnTrial() {
		trialEnd = *sub.TrialEndsAt
	}

	if newPlan.Free() {
		return s.downgradeToFree(ctx, sub, newPlan)
	}

	if _, err := s.gateway.Swap(ctx, SwapParams{
		SubscriptionID: sub.GatewaySubscriptionID,
		PriceID:        newPlan.GatewayPriceID,
		TrialEnd:       trialEnd,
		Prorate:        true,
	}); err != nil {
		s.count("swap", "gateway_error")
		return nil, err
	}

	if err := s.gateway.InvoiceAndPay(ctx, InvoiceParams{
		CustomerID:     sub.GatewayCustomerID,
		SubscriptionID: sub.GatewaySubscriptionID,
		TaxPercent:     taxPercent,
	}); err != nil {
		s.rollbackSwap(ctx, sub, oldPlan, trialEnd)
		s.count("swap", "gateway_error")
		return nil, err
	}

	sub.PlanID = newPlan.ID
	sub.TaxPercent = taxPercent
	if sub.Metadata == nil {
		sub.Metadata = map[string]string{}
	}
	sub.Metadata[MetaTaxPercent] = formatPercent(taxPercent)
	sub.UpdatedAt = s.now()
	if err := s.store.Update(ctx, sub); err != nil {
		s.count("swap", "error")
		return nil, err
	}

	logging.L(ctx).Info("subscription swapped",
		"subscription_id", sub.ID, "account_id", sub.AccountID,
		"from_plan", oldPlan.ID, "to_plan", newPlan.ID, "tax_percent", taxPercent)
	s.count("swap", "ok")
	return sub, nil
}

// downgradeToFree cancels the gateway subscription and keeps a local-only
// subscription on the free plan.
func (s *Service) downgradeToFree(ctx context.Context, sub *Subscription, freePlan plan.Plan) (*Subscription, error) {
	if err := s.gateway.Cancel(ctx, sub.GatewaySubscriptionID); err != nil {
		s.count("swap", "gateway_error")
		return nil, err
	}

	sub.PlanID = freePlan.ID
	sub.GatewaySubscriptionID = ""
	sub.Status = StatusActive
	sub.TrialEndsAt = nil
	sub.UpdatedAt = s.now()
	if err := s.store.Update(ctx, sub); err != nil {
		s.count("swap", "error")
		return nil, err
	}

	logging.L(ctx).Info("subscription downgraded to free plan",
		"subscription_id", sub.ID, "account_id", sub.AccountID)
	s.count("swap", "ok")
	return sub, nil
}

// rollbackSwap returns the gateway subscription to its previous price after a
// failed proration invoice. Best effort: a rollback failure leaves the
// gateway ahead of local state and is logged for reconciliation.
func (s *Service) rollbackSwap(ctx context.Context, sub *Subscription, oldPlan plan.Plan, trialEnd time.Time) {
	if oldPlan.GatewayPriceID == "" {
		logging.L(ctx).Error("cannot roll back swap, old plan price unknown",
			"subscription_id", sub.ID, "old_plan", oldPlan.ID)
		return
	}
	if _, err := s.gateway.Swap(ctx, SwapParams{
		SubscriptionID: sub.GatewaySubscriptionID,
		PriceID:        oldPlan.GatewayPriceID,
		TrialEnd:       trialEnd,
		Prorate:        false,
	}); err != nil {
		logging.L(ctx).Error("swap rollback failed, gateway and local state diverged",
			"subscription_id", sub.ID, "old_plan", oldPlan.ID, "error", err)
	}
}

// Cancel ends the account's active subscription immediately. Local state
// flips to canceled only after the gateway confirms.
func (s *Service) Cancel(ctx context.Context, accountID string) (*Subscription, error) {
	ctx, span := traces.StartSpan(ctx, "billing.Cancel", traces.AccountID(accountID))
	defer span.End()

	unlock, err := s.locks.Lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sub, err := s.store.GetActiveByAccount(ctx, accountID)
	if err != nil {
		s.count("cancel", "invalid")
		return nil, err
	}

	if sub.GatewaySubscriptionID != "" {
		if err := s.gateway.Cancel(ctx, sub.GatewaySubscriptionID); err != nil {
			s.count("cancel", "gateway_error")
			return nil, err
		}
	}

	now := s.now()
	sub.Status = StatusCanceled
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	if err := s.store.Update(ctx, sub); err != nil {
		s.count("cancel", "error")
		return nil, err
	}

	logging.L(ctx).Info("subscription canceled",
		"subscription_id", sub.ID, "account_id", accountID)
	s.count("cancel", "ok")
	return sub, nil
}

// Current returns the account's active subscription.
func (s *Service) Current(ctx context.Context, accountID string) (*Subscription, error) {
	return s.store.GetActiveByAccount(ctx, accountID)
}

// customerID reuses the gateway customer from the account's most recent
// subscription, or creates one.
func (s *Service) customerID(ctx context.Context, acct *account.Account, cardToken string) (string, error) {
	if prev, err := s.store.LatestByAccount(ctx, acct.ID); err == nil && prev.GatewayCustomerID != "" {
		return prev.GatewayCustomerID, nil
	}
	return s.gateway.CreateCustomer(ctx, CustomerParams{
		AccountID: acct.ID,
		Email:     acct.Email,
		Name:      acct.Name,
		CardToken: cardToken,
	})
}

// resolveTax snapshots the rate for the account's billing country. Accounts
// without a billing country are treated as untaxed.
func (s *Service) resolveTax(acct *account.Account) (float64, error) {
	if acct.Tax.CountryCode == "" {
		return 0, nil
	}
	return s.taxes.Resolve(acct.Tax.CountryCode, acct.HasValidVATID())
}

func (s *Service) count(operation, result string) {
	metrics.SubscriptionOpsTotal.WithLabelValues(operation, result).Inc()
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
