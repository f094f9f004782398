// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

const accountColumns = `id, username, email, hashed_password, balance, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.HashedPassword,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

const createQuery = `
WITH account AS (
	INSERT INTO
		accounts (id, username, email, hashed_password, balance)
	VALUES
		($1, $2, $3, $4, $5)
	RETURNING ` + accountColumns + `
), opening AS (
	INSERT INTO
		entries (account_id, kind, amount, balance)
	SELECT id, '` + string(domain.EntryOpening) + `', balance, balance
	FROM account
	WHERE balance > 0
)
SELECT ` + accountColumns + ` FROM account`

// Create creates the account and then returns it.
//
// A positive initial balance is recorded as the opening entry of the account ledger.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		uuid.New(),
		arg.Username,
		arg.Email,
		arg.HashedPassword,
		arg.Balance,
	)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, username=%v, email=%v)", arg.Username, arg.Email)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_username_key":
				return domain.Account{}, domain.ErrUsernameAlreadyExists
			case "accounts_email_key":
				return domain.Account{}, domain.ErrEmailAlreadyExists
			case "accounts_balance_check":
				return domain.Account{}, domain.ErrInvalidAmount
			}
		}

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	a, err := r.getOne(ctx, getQuery, id)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return a, errorspkg.ErrInternal
	}

	return a, err
}

const getForUpdateQuery = getQuery + `FOR NO KEY UPDATE`

// GetForUpdate returns the account with the given id and locks its row until the end of the transaction.
//
// Driver errors are returned as is so the caller can tell lock failures apart.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return r.getOne(ctx, getForUpdateQuery, id)
}

func (r *RepoPGS) getOne(ctx context.Context, query string, id uuid.UUID) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.NewAccountNotFoundError(id)
		}

		l.Error().Err(err).Msgf("getOne(ctx, %v)", id)

		return domain.Account{}, err
	}

	return a, nil
}

const getByEmailQuery = `
SELECT ` + accountColumns + `
FROM accounts
WHERE email = $1
`

// GetByEmail returns the account with the given email.
func (r *RepoPGS) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getByEmailQuery, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return domain.Account{}, errorspkg.ErrInternal
	}

	return a, nil
}

const setBalanceQuery = `
UPDATE accounts
SET balance = $1
WHERE id = $2
RETURNING ` + accountColumns

// SetBalance stores the new balance of the account and returns the changed account.
func (r *RepoPGS) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, setBalanceQuery, balance, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Account{}, domain.NewAccountNotFoundError(id)
		}

		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "accounts_balance_check" {
			return domain.Account{}, domain.ErrInsufficientBalance
		}

		l.Error().Err(err).Msgf("SetBalance(ctx, %v, %v)", id, balance)

		return domain.Account{}, err
	}

	return a, nil
}

const listQuery = `
SELECT ` + accountColumns + `
FROM accounts
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

// List returns the specified page of accounts.
func (r *RepoPGS) List(ctx context.Context, limit, offset int32) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
