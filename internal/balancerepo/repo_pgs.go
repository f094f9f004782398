// Package balancerepo applies balance changes to accounts atomically.
package balancerepo

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates balance repository layer logic.
type RepoPGS struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewRepoPGS returns balance RepoPGS.
//
// A positive lockTimeout limits how long an update waits for the account rows.
func NewRepoPGS(db *sql.DB, lockTimeout time.Duration) *RepoPGS {
	return &RepoPGS{
		db:          db,
		lockTimeout: lockTimeout,
	}
}

// Get returns the current state of the account.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	return accountrepo.NewRepoPGS(r.db).Get(ctx, id)
}

// Update applies the change to the account balance and records the entry.
func (r *RepoPGS) Update(ctx context.Context, u domain.BalanceUpdate) (domain.Account, error) {
	accounts, err := r.UpdateMany(ctx, []domain.BalanceUpdate{u})
	if err != nil {
		return domain.Account{}, err
	}

	return accounts[0], nil
}

// UpdateMany applies the changes within a single db transaction.
//
// Every affected row is locked before any change is computed, so each Apply sees
// the committed balance and no concurrent update can interleave.
// Either all changes are stored or none of them.
// The returned accounts follow the order of the updates.
func (r *RepoPGS) UpdateMany(ctx context.Context, updates []domain.BalanceUpdate) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Msg("BeginTx")
		return nil, mapError(err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.Error().Err(err).Msg("Rollback")
		}
	}()

	if r.lockTimeout > 0 {
		// SET does not accept placeholders.
		q := fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, q); err != nil {
			l.Error().Err(err).Msg(q)
			return nil, mapError(err)
		}
	}

	accountRepo := accountrepo.NewRepoPGS(tx)
	entryRepo := entryrepo.NewRepoPGS(tx)

	locked := make(map[uuid.UUID]domain.Account, len(updates))

	// To avoid deadlocks lock rows in consistent id order
	for _, id := range lockOrder(updates) {
		a, err := accountRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, mapError(err)
		}

		locked[id] = a
	}

	result := make([]domain.Account, len(updates))

	for i, u := range updates {
		current := locked[u.AccountID]

		balance, err := u.Apply(current.Balance)
		if err != nil {
			return nil, err
		}

		a, err := accountRepo.SetBalance(ctx, u.AccountID, balance)
		if err != nil {
			return nil, mapError(err)
		}

		_, err = entryRepo.Create(ctx, domain.CreateEntryParams{
			AccountID:      u.AccountID,
			Kind:           u.Kind,
			Amount:         balance.Sub(current.Balance),
			Balance:        balance,
			TransferID:     u.TransferID,
			CounterpartyID: u.CounterpartyID,
		})
		if err != nil {
			return nil, mapError(err)
		}

		locked[u.AccountID] = a
		result[i] = a
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Msg("Commit")
		return nil, mapError(err)
	}

	return result, nil
}

func lockOrder(updates []domain.BalanceUpdate) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(updates))
	ids := make([]uuid.UUID, 0, len(updates))

	for _, u := range updates {
		if !seen[u.AccountID] {
			seen[u.AccountID] = true
			ids = append(ids, u.AccountID)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	return ids
}

// mapError converts store failures to domain errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected", "lock_not_available":
			return domain.ErrConflict
		}
	}

	return errorspkg.ErrInternal
}
