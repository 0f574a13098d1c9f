package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "account a1 not found",
		(&NotFoundError{Resource: "account", ID: "a1"}).Error())
	assert.Equal(t, "account name already exists: Main",
		(&DuplicateNameError{Name: "Main"}).Error())
	assert.Equal(t, "balance cannot be negative: -5",
		(&InvalidBalanceError{Balance: decimal.NewFromInt(-5)}).Error())
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	nf := fmt.Errorf("loading: %w", &NotFoundError{Resource: "trade", ID: "t1"})
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsDuplicateName(nf))

	dup := fmt.Errorf("creating: %w", &DuplicateNameError{Name: "Main"})
	assert.True(t, IsDuplicateName(dup))

	ib := fmt.Errorf("patching: %w", &InvalidBalanceError{Balance: decimal.NewFromInt(-1)})
	assert.True(t, IsInvalidBalance(ib))
	assert.False(t, IsNotFound(ib))
}
