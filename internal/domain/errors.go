package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoFieldsChanged is returned when an account patch changes nothing
// observable: either no fields were supplied, or every supplied value
// equals the current one.
var ErrNoFieldsChanged = errors.New("no fields to update")

// NotFoundError is returned when a lookup by id finds nothing, including
// unresolved account ids referenced by a trade.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// DuplicateNameError is returned when creating or renaming an account
// would collide with a different account's name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("account name already exists: %s", e.Name)
}

// InvalidBalanceError is returned when a supplied balance is negative.
type InvalidBalanceError struct {
	Balance decimal.Decimal
}

func (e *InvalidBalanceError) Error() string {
	return fmt.Sprintf("balance cannot be negative: %s", e.Balance)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateName reports whether err is (or wraps) a DuplicateNameError.
func IsDuplicateName(err error) bool {
	var dup *DuplicateNameError
	return errors.As(err, &dup)
}

// IsInvalidBalance reports whether err is (or wraps) an InvalidBalanceError.
func IsInvalidBalance(err error) bool {
	var ib *InvalidBalanceError
	return errors.As(err, &ib)
}
