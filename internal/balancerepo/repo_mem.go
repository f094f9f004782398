package balancerepo

import (
	"context"
	"sync"
	"time"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/google/uuid"
)

// RepoMem keeps accounts in memory. It has the same guarantees as RepoPGS.
type RepoMem struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]domain.Account
	entries  []domain.Entry
}

// NewRepoMem returns empty RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		accounts: make(map[uuid.UUID]domain.Account),
	}
}

// Add stores the account replacing the existing one with the same id.
func (r *RepoMem) Add(a domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[a.ID] = a
}

// Get returns the current state of the account.
func (r *RepoMem) Get(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.NewAccountNotFoundError(id)
	}

	return a, nil
}

// Entries returns the entries recorded for the account in the order they were made.
func (r *RepoMem) Entries(id uuid.UUID) []domain.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []domain.Entry

	for _, e := range r.entries {
		if e.AccountID == id {
			res = append(res, e)
		}
	}

	return res
}

// Update applies the change to the account balance and records the entry.
func (r *RepoMem) Update(ctx context.Context, u domain.BalanceUpdate) (domain.Account, error) {
	accounts, err := r.UpdateMany(ctx, []domain.BalanceUpdate{u})
	if err != nil {
		return domain.Account{}, err
	}

	return accounts[0], nil
}

// UpdateMany applies all changes or none of them.
func (r *RepoMem) UpdateMany(ctx context.Context, updates []domain.BalanceUpdate) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	changed := make(map[uuid.UUID]domain.Account, len(updates))

	for _, u := range updates {
		a, ok := r.accounts[u.AccountID]
		if !ok {
			return nil, domain.NewAccountNotFoundError(u.AccountID)
		}

		changed[u.AccountID] = a
	}

	result := make([]domain.Account, len(updates))
	entries := make([]domain.Entry, 0, len(updates))
	nextID := int64(len(r.entries)) + 1
	now := time.Now().UTC()

	for i, u := range updates {
		a := changed[u.AccountID]

		balance, err := u.Apply(a.Balance)
		if err != nil {
			return nil, err
		}

		if balance.IsNegative() {
			return nil, domain.ErrInsufficientBalance
		}

		entries = append(entries, domain.Entry{
			ID:             nextID + int64(i),
			AccountID:      u.AccountID,
			Kind:           u.Kind,
			Amount:         balance.Sub(a.Balance),
			Balance:        balance,
			TransferID:     u.TransferID,
			CounterpartyID: u.CounterpartyID,
			CreatedAt:      now,
		})

		a.Balance = balance
		changed[u.AccountID] = a
		result[i] = a
	}

	for id, a := range changed {
		r.accounts[id] = a
	}

	r.entries = append(r.entries, entries...)

	return result, nil
}
