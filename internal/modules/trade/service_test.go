package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekeeper/tradekeeper/internal/database"
	"github.com/tradekeeper/tradekeeper/internal/domain"
	"github.com/tradekeeper/tradekeeper/internal/modules/account"
)

func newTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db := setupTestDB(t)
	repo := NewRepository(db.Conn(), zerolog.Nop())
	accountRepo := account.NewRepository(db.Conn(), zerolog.Nop())
	return NewService(repo, accountRepo, zerolog.Nop()), db
}

func createInput(accountIDs ...string) domain.CreateTradeInput {
	return domain.CreateTradeInput{
		Symbol:     "EURUSD",
		Type:       "long",
		Strategy:   "breakout",
		Session:    "london",
		Feelings:   []string{"confident"},
		Result:     "win",
		State:      "Open",
		Date:       time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		AccountIDs: accountIDs,
	}
}

func TestServiceCreateLinksAccounts(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	a2 := createTestAccount(t, db, "Beta")

	trade, err := svc.Create(createInput(a1.ID, a2.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, trade.ID)
	require.Len(t, trade.Accounts, 2)
}

func TestServiceCreateUnknownAccountAllOrNothing(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")

	_, err := svc.Create(createInput(a1.ID, "missing-id"))
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	// Nothing may be written, not even the resolvable link.
	trades, err := svc.ListAll()
	require.NoError(t, err)
	assert.Empty(t, trades)

	var joins int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM account_trades").Scan(&joins))
	assert.Zero(t, joins)
}

func TestServiceCreateRequiresAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(createInput())
	assert.True(t, errors.Is(err, ErrNoAccounts))
}

func TestServiceCreateDedupesAccountIDs(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")

	trade, err := svc.Create(createInput(a1.ID, a1.ID))
	require.NoError(t, err)
	assert.Len(t, trade.Accounts, 1)
}

func TestServiceUpdateOverwritesDescriptiveFields(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	trade, err := svc.Create(createInput(a1.ID))
	require.NoError(t, err)

	state := "Closed"
	comment := "took profit early"
	updated, err := svc.Update(trade.ID, domain.TradePatch{
		State:   &state,
		Comment: &comment,
	})
	require.NoError(t, err)
	assert.Equal(t, "Closed", updated.State)
	assert.Equal(t, "took profit early", updated.Comment)
	// Untouched fields survive.
	assert.Equal(t, "EURUSD", updated.Symbol)
	require.Len(t, updated.Accounts, 1)
}

func TestServiceUpdateIdenticalValuesAccepted(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	trade, err := svc.Create(createInput(a1.ID))
	require.NoError(t, err)

	// Unlike accounts, a trade patch that changes nothing still succeeds.
	symbol := trade.Symbol
	_, err = svc.Update(trade.ID, domain.TradePatch{Symbol: &symbol})
	require.NoError(t, err)

	_, err = svc.Update(trade.ID, domain.TradePatch{})
	require.NoError(t, err)
}

func TestServiceUpdateReplacesAccountSet(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	a2 := createTestAccount(t, db, "Beta")

	trade, err := svc.Create(createInput(a1.ID, a2.ID))
	require.NoError(t, err)

	ids := []string{a2.ID}
	updated, err := svc.Update(trade.ID, domain.TradePatch{AccountIDs: &ids})
	require.NoError(t, err)
	require.Len(t, updated.Accounts, 1)
	assert.Equal(t, a2.ID, updated.Accounts[0].ID)

	// a1's view no longer contains the trade; a2's still does.
	repo := NewRepository(db.Conn(), zerolog.Nop())
	forA1, err := repo.ListForAccount(a1.ID)
	require.NoError(t, err)
	assert.Empty(t, forA1)

	forA2, err := repo.ListForAccount(a2.ID)
	require.NoError(t, err)
	assert.Len(t, forA2, 1)
}

func TestServiceUpdateAbsentAccountIDsLeavesLinks(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	a2 := createTestAccount(t, db, "Beta")

	trade, err := svc.Create(createInput(a1.ID, a2.ID))
	require.NoError(t, err)

	state := "Closed"
	updated, err := svc.Update(trade.ID, domain.TradePatch{State: &state})
	require.NoError(t, err)
	assert.Len(t, updated.Accounts, 2)
}

func TestServiceUpdateUnknownAccountLeavesLinks(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	trade, err := svc.Create(createInput(a1.ID))
	require.NoError(t, err)

	ids := []string{"missing-id"}
	_, err = svc.Update(trade.ID, domain.TradePatch{AccountIDs: &ids})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	reloaded, err := svc.GetByID(trade.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Accounts, 1)
	assert.Equal(t, a1.ID, reloaded.Accounts[0].ID)
}

func TestServiceUpdateEmptyAccountSetRejected(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	trade, err := svc.Create(createInput(a1.ID))
	require.NoError(t, err)

	ids := []string{}
	_, err = svc.Update(trade.ID, domain.TradePatch{AccountIDs: &ids})
	assert.True(t, errors.Is(err, ErrNoAccounts))
}

func TestServiceDelete(t *testing.T) {
	svc, db := newTestService(t)

	a1 := createTestAccount(t, db, "Alpha")
	trade, err := svc.Create(createInput(a1.ID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(trade.ID))

	_, err = svc.GetByID(trade.ID)
	assert.True(t, domain.IsNotFound(err))

	err = svc.Delete(trade.ID)
	assert.True(t, domain.IsNotFound(err))
}
