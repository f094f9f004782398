package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrEntryNotFound indicates that the entry is not found.
var ErrEntryNotFound = errors.New("entry not found")

// EntryKind names the operation that changed an account balance.
type EntryKind string

// Entry kinds.
const (
	EntryOpening     EntryKind = "opening"
	EntryDeposit     EntryKind = "deposit"
	EntryWithdraw    EntryKind = "withdraw"
	EntryTransferOut EntryKind = "transfer_out"
	EntryTransferIn  EntryKind = "transfer_in"
)

// Entry holds balance change data for an account.
type Entry struct {
	ID             int64           `json:"id"`
	AccountID      uuid.UUID       `json:"account_id"`
	Kind           EntryKind       `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`  // can be negative or positive
	Balance        decimal.Decimal `json:"balance"` // after the change
	TransferID     uuid.NullUUID   `json:"transfer_id"`
	CounterpartyID uuid.NullUUID   `json:"counterparty_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateEntryParams is the input data to record a balance change.
type CreateEntryParams struct {
	AccountID      uuid.UUID
	Kind           EntryKind
	Amount         decimal.Decimal
	Balance        decimal.Decimal
	TransferID     uuid.NullUUID
	CounterpartyID uuid.NullUUID
}
