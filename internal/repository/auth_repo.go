package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"energisense/internal/models"
)

type AccountSQLite struct {
	db *sql.DB
}

func NewAccountSQLite(db *sql.DB) *AccountSQLite {
	return &AccountSQLite{db: db}
}

// Ensure implementation of AccountRepo interface at compile time.
var _ AccountRepo = (*AccountSQLite)(nil)

const (
	insertAccountSQL        = `INSERT INTO accounts (id, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`
	selectAccountByEmailSQL = `SELECT id, email, password_hash, role, created_at FROM accounts WHERE email = ?`
	selectAccountsSQL       = `SELECT id, email, password_hash, role, created_at FROM accounts ORDER BY email ASC`
	countAccountsSQL        = `SELECT COUNT(*) FROM accounts`
)

// isUniqueViolation matches the SQLite unique-constraint error text; the
// driver does not export a typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts a new account.
func (r *AccountSQLite) Create(ctx context.Context, a models.Account) error {
	_, err := r.db.ExecContext(ctx, insertAccountSQL,
		a.ID, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt.UTC().UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert account %q: %w", a.Email, err)
	}
	return nil
}

// GetByEmail fetches an account by email. Returns (nil, nil) if not found.
func (r *AccountSQLite) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, selectAccountByEmailSQL, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select account %q: %w", email, err)
	}
	return &a, nil
}

// List returns every account ordered by email.
func (r *AccountSQLite) List(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, selectAccountsSQL)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

func (r *AccountSQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countAccountsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		a       models.Account
		role    string
		created int64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &created); err != nil {
		return models.Account{}, err
	}
	a.Role = models.Role(role)
	a.CreatedAt = time.Unix(0, created).UTC()
	return a, nil
}
