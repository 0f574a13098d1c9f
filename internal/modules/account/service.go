package account

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tradekeeper/tradekeeper/internal/domain"
)

// RepositoryInterface defines the persistence operations the account
// service needs.
type RepositoryInterface interface {
	FindByID(id string) (*domain.Account, error)
	ExistsByID(id string) (bool, error)
	FindByName(name string) (*domain.Account, error)
	ExistsByName(name string) (bool, error)
	FindAll() ([]domain.Account, error)
	Save(acct *domain.Account) error
	DeleteByID(id string) error
}

// Compile-time check that Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)

// TradeLister reads the trades linked to an account. Implemented by the
// trade repository; declared here to avoid a dependency on the trade module.
type TradeLister interface {
	ListForAccount(accountID string) ([]domain.Trade, error)
}

// Service owns account business rules: name uniqueness, non-negative
// balances, and change-tracked partial updates.
type Service struct {
	log    zerolog.Logger
	repo   RepositoryInterface
	trades TradeLister
}

// NewService creates a new account service
func NewService(repo RepositoryInterface, trades TradeLister, log zerolog.Logger) *Service {
	return &Service{
		log:    log.With().Str("service", "account").Logger(),
		repo:   repo,
		trades: trades,
	}
}

// Create persists a new account. The name must not collide with any
// existing account. A nil balance defaults to zero; an explicit negative
// balance is rejected rather than clamped. New accounts start active.
func (s *Service) Create(input domain.CreateAccountInput) (*domain.Account, error) {
	exists, err := s.repo.ExistsByName(input.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DuplicateNameError{Name: input.Name}
	}

	balance := decimal.Zero
	if input.Balance != nil {
		if input.Balance.IsNegative() {
			return nil, &domain.InvalidBalanceError{Balance: *input.Balance}
		}
		balance = *input.Balance
	}

	acct := &domain.Account{
		Name:    input.Name,
		Balance: balance,
		Active:  true,
	}

	if err := s.repo.Save(acct); err != nil {
		return nil, err
	}

	return acct, nil
}

// GetByID returns the account with the given id.
func (s *Service) GetByID(id string) (*domain.Account, error) {
	acct, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, &domain.NotFoundError{Resource: "account", ID: id}
	}

	return acct, nil
}

// ListAll returns every account; an empty result is not an error.
func (s *Service) ListAll() ([]domain.Account, error) {
	return s.repo.FindAll()
}

// Update applies a partial patch to the account, tracking whether any
// field actually changed. A patch that changes nothing observable fails
// with ErrNoFieldsChanged. Renaming checks for collisions against other
// accounts only: a self-rename to the current name counts as "no change",
// never as a duplicate.
func (s *Service) Update(id string, patch domain.AccountPatch) (*domain.Account, error) {
	acct, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, &domain.NotFoundError{Resource: "account", ID: id}
	}

	changed := false

	if patch.Name != nil && *patch.Name != acct.Name {
		other, err := s.repo.FindByName(*patch.Name)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != acct.ID {
			return nil, &domain.DuplicateNameError{Name: *patch.Name}
		}
		acct.Name = *patch.Name
		changed = true
	}

	if patch.Balance != nil && !patch.Balance.Equal(acct.Balance) {
		if patch.Balance.IsNegative() {
			return nil, &domain.InvalidBalanceError{Balance: *patch.Balance}
		}
		acct.Balance = *patch.Balance
		changed = true
	}

	if patch.Active != nil && *patch.Active != acct.Active {
		acct.Active = *patch.Active
		changed = true
	}

	if !changed {
		return nil, domain.ErrNoFieldsChanged
	}

	if err := s.repo.Save(acct); err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", acct.ID).Msg("Account updated")

	return acct, nil
}

// Delete removes the account. Join rows to trades are handled by the
// store's cascade, since the account side owns the relation.
func (s *Service) Delete(id string) error {
	exists, err := s.repo.ExistsByID(id)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Resource: "account", ID: id}
	}

	return s.repo.DeleteByID(id)
}

// ListTrades returns the trades currently linked to the account; the
// result may be empty.
func (s *Service) ListTrades(id string) ([]domain.Trade, error) {
	exists, err := s.repo.ExistsByID(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &domain.NotFoundError{Resource: "account", ID: id}
	}

	return s.trades.ListForAccount(id)
}
