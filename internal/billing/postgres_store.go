package billing

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// PostgresStore persists subscriptions in PostgreSQL. The single-active
// invariant is backed by a partial unique index on account_id over rows in
// trialing or active status.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed subscription store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const subscriptionColumns = `id, account_id, plan_id, gateway_customer_id,
	gateway_subscription_id, status, tax_percent, trial_ends_at, canceled_at,
	metadata, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, s *Subscription) error {
	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, account_id, plan_id, gateway_customer_id,
			gateway_subscription_id, status, tax_percent, trial_ends_at,
			canceled_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.AccountID, s.PlanID, s.GatewayCustomerID, s.GatewaySubscriptionID,
		s.Status, s.TaxPercent, s.TrialEndsAt, s.CanceledAt, meta,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSubscriptionExists
		}
		return err
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Subscription, error) {
	return p.scanSubscription(p.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions WHERE id = $1`, id), ErrSubscriptionNotFound)
}

func (p *PostgresStore) GetActiveByAccount(ctx context.Context, accountID string) (*Subscription, error) {
	return p.scanSubscription(p.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE account_id = $1 AND status IN ('trialing', 'active')`,
		accountID), ErrNoActiveSubscription)
}

func (p *PostgresStore) LatestByAccount(ctx context.Context, accountID string) (*Subscription, error) {
	return p.scanSubscription(p.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE account_id = $1
		ORDER BY created_at DESC LIMIT 1`, accountID), ErrSubscriptionNotFound)
}

func (p *PostgresStore) Update(ctx context.Context, s *Subscription) error {
	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `
		UPDATE subscriptions SET plan_id = $1, gateway_customer_id = $2,
			gateway_subscription_id = $3, status = $4, tax_percent = $5,
			trial_ends_at = $6, canceled_at = $7, metadata = $8, updated_at = $9
		WHERE id = $10`,
		s.PlanID, s.GatewayCustomerID, s.GatewaySubscriptionID, s.Status,
		s.TaxPercent, s.TrialEndsAt, s.CanceledAt, meta, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (p *PostgresStore) scanSubscription(row *sql.Row, notFound error) (*Subscription, error) {
	s := &Subscription{}
	var trialEnd, canceled sql.NullTime
	var meta []byte
	err := row.Scan(&s.ID, &s.AccountID, &s.PlanID, &s.GatewayCustomerID,
		&s.GatewaySubscriptionID, &s.Status, &s.TaxPercent, &trialEnd,
		&canceled, &meta, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if trialEnd.Valid {
		t := trialEnd.Time
		s.TrialEndsAt = &t
	}
	if canceled.Valid {
		t := canceled.Time
		s.CanceledAt = &t
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &s.Metadata); err != nil {
			return nil, err
		}
	}
	return s, nil
}

var _ Store = (*PostgresStore)(nil)
