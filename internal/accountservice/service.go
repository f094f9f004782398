// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/passpkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	List(ctx context.Context, limit, offset int32) ([]domain.Account, error)
}

// EntryRepo provides access to the account ledger.
type EntryRepo interface {
	List(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]domain.Entry, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo      Repo
	entryRepo EntryRepo
}

// New returns account service struct to manage account business logic.
func New(ar Repo, er EntryRepo) *Service {
	return &Service{
		repo:      ar,
		entryRepo: er,
	}
}

// Create registers the account with the given opening balance.
func (s *Service) Create(ctx context.Context, username, email, password string, balance decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if balance.IsNegative() {
		l.Info().Str("balance", balance.String()).Msg("negative opening balance")
		return domain.Account{}, domain.ErrInvalidAmount
	}

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, errorspkg.ErrInternal
	}

	arg := domain.CreateAccountParams{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Balance:        balance,
	}

	return s.repo.Create(ctx, arg)
}

// CheckPassword returns the account with the given email if the password matches.
func (s *Service) CheckPassword(ctx context.Context, email, password string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}

	if err := passpkg.Check(password, account.HashedPassword); err != nil {
		l.Warn().Err(err).Send()
		return domain.Account{}, domain.ErrWrongPassword
	}

	return account, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns the requested page of accounts.
func (s *Service) List(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error) {
	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.repo.List(ctx, limit, offset)
}

// ListEntries returns the requested page of the account ledger.
func (s *Service) ListEntries(ctx context.Context, accountID uuid.UUID, pageSize, pageID int32) ([]domain.Entry, error) {
	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.entryRepo.List(ctx, accountID, limit, offset)
}
