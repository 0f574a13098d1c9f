// Package domain holds the core journal entities, patch inputs and the
// business error taxonomy shared by the account and trade modules.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a trading account. The id is assigned by the store on first
// save and is immutable afterwards. The set of trades an account
// participates in is the owning side of the account/trade relation; it is
// read through the account service rather than carried on the struct.
type Account struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Trade is a journaled trade. Accounts holds the accounts this trade is
// linked to (the inverse view of the relation); it always mirrors the
// persisted join rows for this trade.
type Trade struct {
	ID         string
	Symbol     string
	Type       string
	Strategy   string
	Session    string
	Feelings   []string
	Result     string
	Comment    string
	Screenshot string
	State      string
	TP1        bool
	TP2        bool
	TP3        bool
	Date       time.Time
	Accounts   []Account
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateAccountInput carries the fields for account creation. A nil
// Balance means "unspecified" and defaults to zero; an explicit negative
// balance is rejected, not clamped.
type CreateAccountInput struct {
	Name    string
	Balance *decimal.Decimal
}

// AccountPatch is a partial account update. Nil means "field not supplied";
// a non-nil pointer to a zero value is an explicit assignment.
type AccountPatch struct {
	Name    *string
	Balance *decimal.Decimal
	Active  *bool
}

// CreateTradeInput carries the fields for trade creation. AccountIDs must
// reference at least one existing account.
type CreateTradeInput struct {
	Symbol     string
	Type       string
	Strategy   string
	Session    string
	Feelings   []string
	Result     string
	Comment    string
	Screenshot string
	State      string
	TP1        bool
	TP2        bool
	TP3        bool
	Date       time.Time
	AccountIDs []string
}

// TradePatch is a partial trade update. Nil means "field not supplied".
// A nil AccountIDs leaves the account links untouched entirely; a non-nil
// value replaces the linked set.
type TradePatch struct {
	Symbol     *string
	Type       *string
	Strategy   *string
	Session    *string
	Feelings   *[]string
	Result     *string
	Comment    *string
	Screenshot *string
	State      *string
	TP1        *bool
	TP2        *bool
	TP3        *bool
	Date       *time.Time
	AccountIDs *[]string
}
