package postgres

import (
	"context"

	"example.com/blog-api/internal/core"
)

type AccountStore struct {
	db DBTX
}

func NewAccountStore(db DBTX) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, first_name, last_name, email, password_hash, role, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*core.Account, error) {
	a := &core.Account{}
	err := s.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a and fills in the generated id and timestamps. The unique
// email constraint surfaces as core.ErrDuplicateEmail.
func (r *AccountStore) Create(ctx context.Context, a *core.Account) error {
	query :=
		`INSERT INTO accounts (first_name, last_name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.FirstName, a.LastName, a.Email, a.PasswordHash, a.Role).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *AccountStore) ByEmail(ctx context.Context, email string) (*core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *AccountStore) ByID(ctx context.Context, id string) (*core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// List returns accounts oldest first. A non-positive limit means no limit.
func (r *AccountStore) List(ctx context.Context, limit int) ([]core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, email LIMIT NULLIF($1, 0)`

	if limit < 0 {
		limit = 0
	}
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *AccountStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
