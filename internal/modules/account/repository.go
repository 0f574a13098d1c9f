// Package account owns the account lifecycle: uniqueness and balance
// invariants, partial updates, and the account-side view of the
// account/trade relation.
package account

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradekeeper/tradekeeper/internal/domain"
)

// accountsColumns is the list of columns for the accounts table.
// Column order must match scanAccount().
const accountsColumns = `id, name, balance, active, created_at, updated_at`

// Repository handles account database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "account").Logger(),
	}
}

// FindByID retrieves an account by id. Returns (nil, nil) when no account
// with that id exists.
func (r *Repository) FindByID(id string) (*domain.Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE id = ?"

	acct, err := scanAccount(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return &acct, nil
}

// ExistsByID checks whether an account with the given id exists.
func (r *Repository) ExistsByID(id string) (bool, error) {
	var exists int
	err := r.db.QueryRow("SELECT 1 FROM accounts WHERE id = ? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return true, nil
}

// FindByName retrieves an account by its exact name. Returns (nil, nil)
// when no account with that name exists.
func (r *Repository) FindByName(name string) (*domain.Account, error) {
	query := "SELECT " + accountsColumns + " FROM accounts WHERE name = ?"

	acct, err := scanAccount(r.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by name: %w", err)
	}

	return &acct, nil
}

// ExistsByName checks whether an account with the given name exists.
// Name comparison is exact, as stored.
func (r *Repository) ExistsByName(name string) (bool, error) {
	var exists int
	err := r.db.QueryRow("SELECT 1 FROM accounts WHERE name = ? LIMIT 1", name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account name existence: %w", err)
	}

	return true, nil
}

// FindAll retrieves every account, in store order.
func (r *Repository) FindAll() ([]domain.Account, error) {
	rows, err := r.db.Query("SELECT " + accountsColumns + " FROM accounts")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Save persists the account. An account without an id gets one assigned
// and is inserted; otherwise the existing row is updated.
func (r *Repository) Save(acct *domain.Account) error {
	now := time.Now().UTC()

	if acct.ID == "" {
		acct.ID = uuid.NewString()
		acct.CreatedAt = now
		acct.UpdatedAt = now

		query := `
			INSERT INTO accounts (id, name, balance, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.Exec(query,
			acct.ID,
			acct.Name,
			acct.Balance.String(),
			acct.Active,
			now.Unix(),
			now.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}

		r.log.Info().
			Str("account_id", acct.ID).
			Str("name", acct.Name).
			Msg("Account created")

		return nil
	}

	acct.UpdatedAt = now

	query := `
		UPDATE accounts
		SET name = ?, balance = ?, active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		acct.Name,
		acct.Balance.String(),
		acct.Active,
		now.Unix(),
		acct.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return nil
}

// DeleteByID removes the account. The account_trades join rows cascade at
// the store level, so linked trades simply lose this account.
func (r *Repository) DeleteByID(id string) error {
	if _, err := r.db.Exec("DELETE FROM accounts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	r.log.Info().Str("account_id", id).Msg("Account deleted")

	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var acct domain.Account
	var createdAt, updatedAt int64

	err := row.Scan(
		&acct.ID,
		&acct.Name,
		&acct.Balance,
		&acct.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return acct, err
	}

	acct.CreatedAt = time.Unix(createdAt, 0).UTC()
	acct.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return acct, nil
}
