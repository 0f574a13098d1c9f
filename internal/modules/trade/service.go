package trade

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/tradekeeper/tradekeeper/internal/domain"
)

// RepositoryInterface defines the persistence operations the trade
// service needs.
type RepositoryInterface interface {
	FindByID(id string) (*domain.Trade, error)
	ExistsByID(id string) (bool, error)
	FindAll() ([]domain.Trade, error)
	Save(trade *domain.Trade) error
	Delete(trade *domain.Trade) error
}

// Compile-time check that Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)

// AccountFinder resolves account ids to accounts. Implemented by the
// account repository; declared here to avoid a dependency on the account
// module.
type AccountFinder interface {
	FindByID(id string) (*domain.Account, error)
}

// ErrNoAccounts rejects a trade that would be linked to no account at all.
var ErrNoAccounts = errors.New("trade must be linked to at least one account")

// Service owns trade business rules: every trade stays linked to at
// least one account, and account references are resolved before any
// write touches the store.
type Service struct {
	log      zerolog.Logger
	repo     RepositoryInterface
	accounts AccountFinder
}

// NewService creates a new trade service
func NewService(repo RepositoryInterface, accounts AccountFinder, log zerolog.Logger) *Service {
	return &Service{
		log:      log.With().Str("service", "trade").Logger(),
		repo:     repo,
		accounts: accounts,
	}
}

// Create persists a new trade linked to the referenced accounts. Account
// ids are resolved up front: one unknown id fails the whole operation
// and nothing is written.
func (s *Service) Create(input domain.CreateTradeInput) (*domain.Trade, error) {
	accounts, err := s.resolveAccounts(input.AccountIDs)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	trade := &domain.Trade{
		Symbol:     input.Symbol,
		Type:       input.Type,
		Strategy:   input.Strategy,
		Session:    input.Session,
		Feelings:   input.Feelings,
		Result:     input.Result,
		Comment:    input.Comment,
		Screenshot: input.Screenshot,
		State:      input.State,
		TP1:        input.TP1,
		TP2:        input.TP2,
		TP3:        input.TP3,
		Date:       input.Date,
		Accounts:   accounts,
	}

	if err := s.repo.Save(trade); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Int("accounts", len(accounts)).
		Msg("Trade created")

	return trade, nil
}

// GetByID returns the trade with the given id, accounts included.
func (s *Service) GetByID(id string) (*domain.Trade, error) {
	trade, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, &domain.NotFoundError{Resource: "trade", ID: id}
	}

	return trade, nil
}

// ListAll returns every trade; an empty result is not an error.
func (s *Service) ListAll() ([]domain.Trade, error) {
	return s.repo.FindAll()
}

// Update applies a partial patch to the trade. Descriptive fields present
// in the patch overwrite the stored value even when identical, so a patch
// that changes nothing still succeeds. When the patch carries account
// ids, the link set is replaced wholesale: dropped accounts are unlinked,
// new ones linked, and the resolved set must not be empty.
func (s *Service) Update(id string, patch domain.TradePatch) (*domain.Trade, error) {
	trade, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, &domain.NotFoundError{Resource: "trade", ID: id}
	}

	if patch.Symbol != nil {
		trade.Symbol = *patch.Symbol
	}
	if patch.Type != nil {
		trade.Type = *patch.Type
	}
	if patch.Strategy != nil {
		trade.Strategy = *patch.Strategy
	}
	if patch.Session != nil {
		trade.Session = *patch.Session
	}
	if patch.Feelings != nil {
		trade.Feelings = *patch.Feelings
	}
	if patch.Result != nil {
		trade.Result = *patch.Result
	}
	if patch.Comment != nil {
		trade.Comment = *patch.Comment
	}
	if patch.Screenshot != nil {
		trade.Screenshot = *patch.Screenshot
	}
	if patch.State != nil {
		trade.State = *patch.State
	}
	if patch.TP1 != nil {
		trade.TP1 = *patch.TP1
	}
	if patch.TP2 != nil {
		trade.TP2 = *patch.TP2
	}
	if patch.TP3 != nil {
		trade.TP3 = *patch.TP3
	}
	if patch.Date != nil {
		trade.Date = *patch.Date
	}

	if patch.AccountIDs != nil {
		accounts, err := s.resolveAccounts(*patch.AccountIDs)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			return nil, ErrNoAccounts
		}
		trade.Accounts = accounts
	}

	if err := s.repo.Save(trade); err != nil {
		return nil, err
	}

	s.log.Info().Str("trade_id", trade.ID).Msg("Trade updated")

	return trade, nil
}

// Delete unlinks the trade from all its accounts and removes it.
func (s *Service) Delete(id string) error {
	trade, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if trade == nil {
		return &domain.NotFoundError{Resource: "trade", ID: id}
	}

	return s.repo.Delete(trade)
}

// resolveAccounts loads the accounts for the given ids, preserving order
// and dropping duplicate ids. The first unknown id aborts resolution with
// a not-found error.
func (s *Service) resolveAccounts(ids []string) ([]domain.Account, error) {
	seen := make(map[string]bool, len(ids))
	accounts := make([]domain.Account, 0, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		acct, err := s.accounts.FindByID(id)
		if err != nil {
			return nil, err
		}
		if acct == nil {
			return nil, &domain.NotFoundError{Resource: "account", ID: id}
		}

		accounts = append(accounts, *acct)
	}

	return accounts, nil
}
