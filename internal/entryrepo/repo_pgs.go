// Package entryrepo manages repository layer of entries.
package entryrepo

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
)

// RepoPGS facilitates entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const entryColumns = `id, account_id, kind, amount, balance, transfer_id, counterparty_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Kind,
		&e.Amount,
		&e.Balance,
		&e.TransferID,
		&e.CounterpartyID,
		&e.CreatedAt,
	)

	return e, err
}

const createQuery = `
INSERT INTO
	entries (account_id, kind, amount, balance, transfer_id, counterparty_id)
VALUES
	($1, $2, $3, $4, $5, $6)
RETURNING ` + entryColumns

// Create creates the entry and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		arg.AccountID,
		arg.Kind,
		arg.Amount,
		arg.Balance,
		arg.TransferID,
		arg.CounterpartyID,
	)

	e, err := scanEntry(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "entries_account_id_fkey":
				return domain.Entry{}, domain.NewAccountNotFoundError(arg.AccountID)
			case "entries_counterparty_id_fkey":
				return domain.Entry{}, domain.NewAccountNotFoundError(arg.CounterpartyID.UUID)
			}
		}

		return domain.Entry{}, errorspkg.ErrInternal
	}

	return e, nil
}

const getQuery = `
SELECT ` + entryColumns + `
FROM entries
WHERE id = $1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	e, err := scanEntry(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Entry{}, domain.ErrEntryNotFound
		}

		l.Error().Err(err).Send()

		return domain.Entry{}, errorspkg.ErrInternal
	}

	return e, nil
}

const listQuery = `
SELECT ` + entryColumns + `
FROM entries
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`

// List returns the specified page of entries of the account, newest first.
func (r *RepoPGS) List(ctx context.Context, accountID uuid.UUID, limit, offset int32) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, e)
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
