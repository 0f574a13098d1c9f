package account

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekeeper/tradekeeper/internal/domain"
)

// stubTradeLister returns a fixed set of trades for any account
type stubTradeLister struct {
	trades []domain.Trade
}

func (s *stubTradeLister) ListForAccount(string) ([]domain.Trade, error) {
	return s.trades, nil
}

func newTestService(t *testing.T, trades TradeLister) *Service {
	t.Helper()

	db := setupTestDB(t)
	repo := NewRepository(db.Conn(), zerolog.Nop())
	if trades == nil {
		trades = &stubTradeLister{}
	}
	return NewService(repo, trades, zerolog.Nop())
}

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestServiceCreate(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main", Balance: decPtr(100)})
	require.NoError(t, err)
	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, "Main", acct.Name)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, acct.Active)
}

func TestServiceCreateDefaultsBalanceToZero(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main"})
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
}

func TestServiceCreateDuplicateName(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Create(domain.CreateAccountInput{Name: "Main"})
	require.NoError(t, err)

	_, err = svc.Create(domain.CreateAccountInput{Name: "Main"})
	require.Error(t, err)
	assert.True(t, domain.IsDuplicateName(err))

	// The failed create must not leave a second row behind.
	all, err := svc.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestServiceCreateNegativeBalance(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Create(domain.CreateAccountInput{Name: "Main", Balance: decPtr(-1)})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidBalance(err))
}

func TestServiceGetByIDMissing(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.GetByID("nope")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestServiceUpdateTracksChanges(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main", Balance: decPtr(100)})
	require.NoError(t, err)

	updated, err := svc.Update(acct.ID, domain.AccountPatch{
		Name:    strPtr("Renamed"),
		Balance: decPtr(200),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.Balance.Equal(decimal.NewFromInt(200)))

	reloaded, err := svc.GetByID(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Name)
}

func TestServiceUpdateNoOpRejected(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main", Balance: decPtr(100)})
	require.NoError(t, err)

	// Empty patch.
	_, err = svc.Update(acct.ID, domain.AccountPatch{})
	assert.True(t, errors.Is(err, domain.ErrNoFieldsChanged))

	// Every supplied value equals the current one.
	_, err = svc.Update(acct.ID, domain.AccountPatch{
		Name:    strPtr("Main"),
		Balance: decPtr(100),
		Active:  boolPtr(true),
	})
	assert.True(t, errors.Is(err, domain.ErrNoFieldsChanged))
}

func TestServiceUpdateSelfRenameIsNoChange(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main"})
	require.NoError(t, err)

	// Re-sending the current name alongside a real change must not
	// trip the duplicate check.
	updated, err := svc.Update(acct.ID, domain.AccountPatch{
		Name:   strPtr("Main"),
		Active: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Main", updated.Name)
	assert.False(t, updated.Active)
}

func TestServiceUpdateRenameCollision(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Create(domain.CreateAccountInput{Name: "First"})
	require.NoError(t, err)
	second, err := svc.Create(domain.CreateAccountInput{Name: "Second"})
	require.NoError(t, err)

	_, err = svc.Update(second.ID, domain.AccountPatch{Name: strPtr("First")})
	require.Error(t, err)
	assert.True(t, domain.IsDuplicateName(err))

	// The collision must leave the account untouched.
	reloaded, err := svc.GetByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", reloaded.Name)
}

func TestServiceUpdateNegativeBalance(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main", Balance: decPtr(100)})
	require.NoError(t, err)

	_, err = svc.Update(acct.ID, domain.AccountPatch{Balance: decPtr(-50)})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidBalance(err))
}

func TestServiceUpdateMissing(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Update("nope", domain.AccountPatch{Name: strPtr("X")})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestServiceDelete(t *testing.T) {
	svc := newTestService(t, nil)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(acct.ID))

	_, err = svc.GetByID(acct.ID)
	assert.True(t, domain.IsNotFound(err))

	err = svc.Delete(acct.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestServiceListTrades(t *testing.T) {
	lister := &stubTradeLister{trades: []domain.Trade{{ID: "t1", Symbol: "EURUSD"}}}
	svc := newTestService(t, lister)

	acct, err := svc.Create(domain.CreateAccountInput{Name: "Main"})
	require.NoError(t, err)

	trades, err := svc.ListTrades(acct.ID)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "t1", trades[0].ID)

	_, err = svc.ListTrades("nope")
	assert.True(t, domain.IsNotFound(err))
}
