// Package trade owns the trade lifecycle and the bidirectional
// association with accounts: linking at creation, merge-on-update
// re-linking, and unlink-before-delete.
package trade

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradekeeper/tradekeeper/internal/database"
	"github.com/tradekeeper/tradekeeper/internal/domain"
)

// dateFormat is the storage format for trade dates (date only, no time).
const dateFormat = "2006-01-02"

// tradesColumns is the list of columns for the trades table.
// Column order must match scanTrade().
const tradesColumns = `id, symbol, type, strategy, session, result, comment, screenshot, state, tp1, tp2, tp3, trade_date, created_at, updated_at`

// Repository handles trade database operations, including the
// account_trades join rows. The join rows are only ever written through
// Save and Delete, which mirror Trade.Accounts into the store inside one
// transaction; neither side of the relation can drift from the other.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new trade repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "trade").Logger(),
	}
}

// FindByID retrieves a trade by id, with its feelings and linked
// accounts loaded. Returns (nil, nil) when no trade with that id exists.
func (r *Repository) FindByID(id string) (*domain.Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ?"

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade by id: %w", err)
	}

	if err := r.loadAssociations(&trade); err != nil {
		return nil, err
	}

	return &trade, nil
}

// ExistsByID checks whether a trade with the given id exists.
func (r *Repository) ExistsByID(id string) (bool, error) {
	var exists int
	err := r.db.QueryRow("SELECT 1 FROM trades WHERE id = ? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", err)
	}

	return true, nil
}

// FindAll retrieves every trade with feelings and linked accounts loaded.
func (r *Repository) FindAll() ([]domain.Trade, error) {
	rows, err := r.db.Query("SELECT " + tradesColumns + " FROM trades")
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	trades, err := collectTrades(rows)
	if err != nil {
		return nil, err
	}

	for i := range trades {
		if err := r.loadAssociations(&trades[i]); err != nil {
			return nil, err
		}
	}

	return trades, nil
}

// ListForAccount retrieves the trades linked to an account. This is the
// account-side (owning) view of the same join rows Trade.Accounts
// mirrors. Linked accounts are not nested into the result.
func (r *Repository) ListForAccount(accountID string) ([]domain.Trade, error) {
	query := `
		SELECT ` + prefixColumns("t", tradesColumns) + `
		FROM trades t
		JOIN account_trades at ON at.trade_id = t.id
		WHERE at.account_id = ?
	`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades for account: %w", err)
	}
	defer rows.Close()

	trades, err := collectTrades(rows)
	if err != nil {
		return nil, err
	}

	for i := range trades {
		if err := r.loadFeelings(&trades[i]); err != nil {
			return nil, err
		}
	}

	return trades, nil
}

// Save persists the trade and mirrors Trade.Accounts into the
// account_trades join rows: links no longer referenced are removed, new
// ones inserted. Everything happens in a single transaction, so a failed
// save leaves the previously committed state untouched.
func (r *Repository) Save(trade *domain.Trade) error {
	now := time.Now().UTC()
	insert := trade.ID == ""

	if insert {
		trade.ID = uuid.NewString()
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if insert {
			query := `
				INSERT INTO trades
				(id, symbol, type, strategy, session, result, comment, screenshot, state,
				 tp1, tp2, tp3, trade_date, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`
			if _, err := tx.Exec(query,
				trade.ID, trade.Symbol, trade.Type, trade.Strategy, trade.Session,
				trade.Result, trade.Comment, trade.Screenshot, trade.State,
				trade.TP1, trade.TP2, trade.TP3,
				trade.Date.Format(dateFormat),
				now.Unix(), now.Unix(),
			); err != nil {
				return fmt.Errorf("failed to insert trade: %w", err)
			}
		} else {
			query := `
				UPDATE trades
				SET symbol = ?, type = ?, strategy = ?, session = ?, result = ?,
				    comment = ?, screenshot = ?, state = ?, tp1 = ?, tp2 = ?, tp3 = ?,
				    trade_date = ?, updated_at = ?
				WHERE id = ?
			`
			if _, err := tx.Exec(query,
				trade.Symbol, trade.Type, trade.Strategy, trade.Session, trade.Result,
				trade.Comment, trade.Screenshot, trade.State,
				trade.TP1, trade.TP2, trade.TP3,
				trade.Date.Format(dateFormat),
				now.Unix(), trade.ID,
			); err != nil {
				return fmt.Errorf("failed to update trade: %w", err)
			}
		}

		if err := replaceFeelings(tx, trade.ID, trade.Feelings); err != nil {
			return err
		}

		return syncAccountLinks(tx, trade.ID, trade.Accounts)
	})
	if err != nil {
		if insert {
			trade.ID = ""
		}
		return err
	}

	return nil
}

// Delete unlinks the trade from every account and removes it, all in one
// transaction: no dangling join rows can survive the removal.
func (r *Repository) Delete(trade *domain.Trade) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM account_trades WHERE trade_id = ?", trade.ID); err != nil {
			return fmt.Errorf("failed to unlink trade from accounts: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM trade_feelings WHERE trade_id = ?", trade.ID); err != nil {
			return fmt.Errorf("failed to delete trade feelings: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM trades WHERE id = ?", trade.ID); err != nil {
			return fmt.Errorf("failed to delete trade: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	trade.Accounts = nil

	r.log.Info().Str("trade_id", trade.ID).Msg("Trade deleted")

	return nil
}

// replaceFeelings rewrites the ordered feelings list for a trade.
func replaceFeelings(tx *sql.Tx, tradeID string, feelings []string) error {
	if _, err := tx.Exec("DELETE FROM trade_feelings WHERE trade_id = ?", tradeID); err != nil {
		return fmt.Errorf("failed to clear trade feelings: %w", err)
	}

	for i, feeling := range feelings {
		if _, err := tx.Exec(
			"INSERT INTO trade_feelings (trade_id, position, feeling) VALUES (?, ?, ?)",
			tradeID, i, feeling,
		); err != nil {
			return fmt.Errorf("failed to insert trade feeling: %w", err)
		}
	}

	return nil
}

// syncAccountLinks makes the join rows for tradeID match exactly the
// given account set: stale links are deleted, missing ones inserted.
// This is the only mutation path for the relation, covering both its
// account-side and trade-side views at once.
func syncAccountLinks(tx *sql.Tx, tradeID string, accounts []domain.Account) error {
	if len(accounts) == 0 {
		if _, err := tx.Exec("DELETE FROM account_trades WHERE trade_id = ?", tradeID); err != nil {
			return fmt.Errorf("failed to unlink trade from accounts: %w", err)
		}
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(accounts)), ", ")
	args := make([]any, 0, len(accounts)+1)
	args = append(args, tradeID)
	for _, acct := range accounts {
		args = append(args, acct.ID)
	}

	query := "DELETE FROM account_trades WHERE trade_id = ? AND account_id NOT IN (" + placeholders + ")"
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to unlink removed accounts: %w", err)
	}

	for _, acct := range accounts {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO account_trades (account_id, trade_id) VALUES (?, ?)",
			acct.ID, tradeID,
		); err != nil {
			return fmt.Errorf("failed to link trade to account: %w", err)
		}
	}

	return nil
}

// loadAssociations fills in the trade's feelings and linked accounts.
func (r *Repository) loadAssociations(trade *domain.Trade) error {
	if err := r.loadFeelings(trade); err != nil {
		return err
	}
	return r.loadAccounts(trade)
}

func (r *Repository) loadFeelings(trade *domain.Trade) error {
	rows, err := r.db.Query(
		"SELECT feeling FROM trade_feelings WHERE trade_id = ? ORDER BY position",
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to load trade feelings: %w", err)
	}
	defer rows.Close()

	trade.Feelings = nil
	for rows.Next() {
		var feeling string
		if err := rows.Scan(&feeling); err != nil {
			return fmt.Errorf("failed to scan trade feeling: %w", err)
		}
		trade.Feelings = append(trade.Feelings, feeling)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating trade feelings: %w", err)
	}

	return nil
}

func (r *Repository) loadAccounts(trade *domain.Trade) error {
	query := `
		SELECT a.id, a.name, a.balance, a.active, a.created_at, a.updated_at
		FROM accounts a
		JOIN account_trades at ON at.account_id = a.id
		WHERE at.trade_id = ?
		ORDER BY a.name
	`

	rows, err := r.db.Query(query, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to load trade accounts: %w", err)
	}
	defer rows.Close()

	trade.Accounts = nil
	for rows.Next() {
		var acct domain.Account
		var createdAt, updatedAt int64
		if err := rows.Scan(&acct.ID, &acct.Name, &acct.Balance, &acct.Active, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("failed to scan trade account: %w", err)
		}
		acct.CreatedAt = time.Unix(createdAt, 0).UTC()
		acct.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		trade.Accounts = append(trade.Accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating trade accounts: %w", err)
	}

	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (domain.Trade, error) {
	var trade domain.Trade
	var tradeDate string
	var createdAt, updatedAt int64

	err := row.Scan(
		&trade.ID,
		&trade.Symbol,
		&trade.Type,
		&trade.Strategy,
		&trade.Session,
		&trade.Result,
		&trade.Comment,
		&trade.Screenshot,
		&trade.State,
		&trade.TP1,
		&trade.TP2,
		&trade.TP3,
		&tradeDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return trade, err
	}

	trade.Date, err = time.ParseInLocation(dateFormat, tradeDate, time.UTC)
	if err != nil {
		return trade, fmt.Errorf("invalid trade date %q: %w", tradeDate, err)
	}

	trade.CreatedAt = time.Unix(createdAt, 0).UTC()
	trade.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return trade, nil
}

func collectTrades(rows *sql.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
