package account

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, a *Account) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, company, street, city,
			postal_code, country, vat_id, tax_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.Name, strings.ToLower(a.Email), a.PasswordHash, a.Company,
		a.Street, a.City, a.PostalCode, a.Tax.CountryCode, a.Tax.VATID,
		a.Tax.TaxPercent, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Account, error) {
	return p.scanAccount(p.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, company, street, city,
			postal_code, country, vat_id, tax_percent, created_at, updated_at
		FROM accounts WHERE id = $1`, id))
}

func (p *PostgresStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return p.scanAccount(p.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, company, street, city,
			postal_code, country, vat_id, tax_percent, created_at, updated_at
		FROM accounts WHERE email = $1`, strings.ToLower(email)))
}

func (p *PostgresStore) Update(ctx context.Context, a *Account) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE accounts SET name = $1, email = $2, password_hash = $3, company = $4,
			street = $5, city = $6, postal_code = $7, country = $8, vat_id = $9,
			tax_percent = $10, updated_at = $11
		WHERE id = $12`,
		a.Name, strings.ToLower(a.Email), a.PasswordHash, a.Company,
		a.Street, a.City, a.PostalCode, a.Tax.CountryCode, a.Tax.VATID,
		a.Tax.TaxPercent, a.UpdatedAt, a.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (p *PostgresStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`,
		strings.ToLower(email)).Scan(&taken)
	return taken, err
}

func (p *PostgresStore) scanAccount(row *sql.Row) (*Account, error) {
	a := &Account{}
	var company, street, city, postalCode, vatID sql.NullString
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &company, &street,
		&city, &postalCode, &a.Tax.CountryCode, &vatID, &a.Tax.TaxPercent,
		&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Company = company.String
	a.Street = street.String
	a.City = city.String
	a.PostalCode = postalCode.String
	a.Tax.VATID = vatID.String
	return a, nil
}

var _ Store = (*PostgresStore)(nil)
