// Package idempotencyrepo stores outcomes of requests made with an Idempotency-Key.
package idempotencyrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates idempotency key repository layer logic.
type RepoPGS struct {
	db  dbpkg.SQLInterface
	ttl time.Duration
}

// NewRepoPGS returns idempotency RepoPGS. Keys older than ttl can be used again.
func NewRepoPGS(db dbpkg.SQLInterface, ttl time.Duration) *RepoPGS {
	return &RepoPGS{
		db:  db,
		ttl: ttl,
	}
}

const recordColumns = `account_id, key, request_hash, completed, status_code, body, created_at`

func scanRecord(row *sql.Row) (domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord

	err := row.Scan(
		&rec.AccountID,
		&rec.Key,
		&rec.RequestHash,
		&rec.Completed,
		&rec.StatusCode,
		&rec.Body,
		&rec.CreatedAt,
	)

	return rec, err
}

const deleteExpiredQuery = `
DELETE FROM idempotency_keys
WHERE account_id = $1 AND key = $2 AND created_at < $3
`

const reserveQuery = `
INSERT INTO
	idempotency_keys (account_id, key, request_hash)
VALUES
	($1, $2, $3)
ON CONFLICT (account_id, key) DO NOTHING
RETURNING ` + recordColumns

const getQuery = `
SELECT ` + recordColumns + `
FROM idempotency_keys
WHERE account_id = $1 AND key = $2
`

// Reserve marks the key as in progress for the request.
//
// When the key is already taken it returns the existing record and false.
func (r *RepoPGS) Reserve(ctx context.Context, accountID uuid.UUID, key, requestHash string) (domain.IdempotencyRecord, bool, error) {
	l := zerolog.Ctx(ctx)

	if r.ttl > 0 {
		cutoff := time.Now().Add(-r.ttl)
		if _, err := r.db.ExecContext(ctx, deleteExpiredQuery, accountID, key, cutoff); err != nil {
			l.Error().Err(err).Send()
			return domain.IdempotencyRecord{}, false, errorspkg.ErrInternal
		}
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, reserveQuery, accountID, key, requestHash))
	if err == nil {
		return rec, true, nil
	}

	if err != sql.ErrNoRows {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "idempotency_keys_account_id_fkey" {
			return domain.IdempotencyRecord{}, false, domain.NewAccountNotFoundError(accountID)
		}

		return domain.IdempotencyRecord{}, false, errorspkg.ErrInternal
	}

	rec, err = scanRecord(r.db.QueryRowContext(ctx, getQuery, accountID, key))
	if err != nil {
		l.Error().Err(err).Send()
		return domain.IdempotencyRecord{}, false, errorspkg.ErrInternal
	}

	return rec, false, nil
}

const completeQuery = `
UPDATE idempotency_keys
SET completed = true, status_code = $3, body = $4
WHERE account_id = $1 AND key = $2
`

// Complete stores the response of the request made with the key.
func (r *RepoPGS) Complete(ctx context.Context, accountID uuid.UUID, key string, statusCode int, body []byte) error {
	l := zerolog.Ctx(ctx)

	if _, err := r.db.ExecContext(ctx, completeQuery, accountID, key, statusCode, body); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

const releaseQuery = `
DELETE FROM idempotency_keys
WHERE account_id = $1 AND key = $2 AND NOT completed
`

// Release frees the key so the request can be retried.
func (r *RepoPGS) Release(ctx context.Context, accountID uuid.UUID, key string) error {
	l := zerolog.Ctx(ctx)

	if _, err := r.db.ExecContext(ctx, releaseQuery, accountID, key); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}
