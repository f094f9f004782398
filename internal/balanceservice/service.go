// Package balanceservice manages business logic layer of balance changes.
package balanceservice

import (
	"context"
	"errors"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by balance service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package balanceservice
type Repo interface {
	Update(ctx context.Context, u domain.BalanceUpdate) (domain.Account, error)
	UpdateMany(ctx context.Context, updates []domain.BalanceUpdate) ([]domain.Account, error)
}

// Service facilitates balance service layer logic.
type Service struct {
	repo            Repo
	conflictRetries int
}

// Option configures Service.
type Option func(*Service)

// WithConflictRetries makes the service repeat an update up to n more times
// when the store reports a concurrent update conflict.
func WithConflictRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.conflictRetries = n
		}
	}
}

// New returns balance service struct to manage balance business logic.
func New(repo Repo, opts ...Option) *Service {
	s := &Service{repo: repo}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func credit(amount decimal.Decimal) domain.BalanceFunc {
	return func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(amount), nil
	}
}

func debit(amount decimal.Decimal) domain.BalanceFunc {
	return func(balance decimal.Decimal) (decimal.Decimal, error) {
		if balance.LessThan(amount) {
			return balance, domain.ErrInsufficientBalance
		}

		return balance.Sub(amount), nil
	}
}

func validate(ctx context.Context, op domain.Operation) error {
	if err := op.Validate(); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("operation", string(op.Kind())).Send()
		return err
	}

	return nil
}

// Deposit adds the amount to the account balance and returns the changed account.
func (s *Service) Deposit(ctx context.Context, arg domain.DepositParams) (domain.Account, error) {
	if err := validate(ctx, arg); err != nil {
		return domain.Account{}, err
	}

	u := domain.BalanceUpdate{
		AccountID: arg.AccountID,
		Kind:      arg.Kind(),
		Apply:     credit(arg.Amount),
	}

	return s.update(ctx, u)
}

// Withdraw takes the amount from the account balance and returns the changed account.
//
// The balance is never allowed to become negative.
func (s *Service) Withdraw(ctx context.Context, arg domain.WithdrawParams) (domain.Account, error) {
	if err := validate(ctx, arg); err != nil {
		return domain.Account{}, err
	}

	u := domain.BalanceUpdate{
		AccountID: arg.AccountID,
		Kind:      arg.Kind(),
		Apply:     debit(arg.Amount),
	}

	return s.update(ctx, u)
}

// Transfer moves the amount between two accounts and returns the source account.
//
// Both balances change together or not at all.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if err := validate(ctx, arg); err != nil {
		return domain.Account{}, err
	}

	transferID := uuid.NullUUID{UUID: uuid.New(), Valid: true}

	updates := []domain.BalanceUpdate{
		{
			AccountID:      arg.FromAccountID,
			Kind:           arg.Kind(),
			TransferID:     transferID,
			CounterpartyID: uuid.NullUUID{UUID: arg.ToAccountID, Valid: true},
			Apply:          debit(arg.Amount),
		},
		{
			AccountID:      arg.ToAccountID,
			Kind:           domain.EntryTransferIn,
			TransferID:     transferID,
			CounterpartyID: uuid.NullUUID{UUID: arg.FromAccountID, Valid: true},
			Apply:          credit(arg.Amount),
		},
	}

	var accounts []domain.Account

	err := s.retry(ctx, func() error {
		var err error
		accounts, err = s.repo.UpdateMany(ctx, updates)

		return err
	})
	if err != nil {
		var nf *domain.AccountNotFoundError
		if errors.As(err, &nf) && nf.AccountID == arg.FromAccountID {
			// The source is the authenticated account, it must exist.
			l.Error().Err(err).Msg("transfer source account is missing")
			return domain.Account{}, errorspkg.ErrInternal
		}

		return domain.Account{}, err
	}

	l.Info().
		Str("transfer_id", transferID.UUID.String()).
		Str("from_account_id", arg.FromAccountID.String()).
		Str("to_account_id", arg.ToAccountID.String()).
		Str("amount", arg.Amount.String()).
		Msg("transfer completed")

	return accounts[0], nil
}

func (s *Service) update(ctx context.Context, u domain.BalanceUpdate) (domain.Account, error) {
	var account domain.Account

	err := s.retry(ctx, func() error {
		var err error
		account, err = s.repo.Update(ctx, u)

		return err
	})
	if err != nil {
		return domain.Account{}, err
	}

	return account, nil
}

// retry runs fn once plus up to conflictRetries more times while it fails with a conflict.
func (s *Service) retry(ctx context.Context, fn func() error) error {
	l := zerolog.Ctx(ctx)

	err := fn()

	for i := 0; i < s.conflictRetries && errors.Is(err, domain.ErrConflict); i++ {
		if ctx.Err() != nil {
			return err
		}

		l.Warn().Err(err).Int("attempt", i+1).Msg("retrying balance update")

		err = fn()
	}

	return err
}
