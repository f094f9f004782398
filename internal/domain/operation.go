package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates that the amount is not greater than zero.
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSelfTransfer indicates that the source and the target accounts are the same.
	ErrSelfTransfer = errors.New("cannot transfer money to the same account")
	// ErrConflict indicates that the store could not apply the update because of concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

// Operation is a validated balance mutation request.
type Operation interface {
	Kind() EntryKind
	Validate() error
}

// DepositParams is the input data to add money to an account.
type DepositParams struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// Kind implements Operation.
func (DepositParams) Kind() EntryKind { return EntryDeposit }

// Validate implements Operation.
func (p DepositParams) Validate() error {
	return validAmount(p.Amount)
}

// WithdrawParams is the input data to take money from an account.
type WithdrawParams struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// Kind implements Operation.
func (WithdrawParams) Kind() EntryKind { return EntryWithdraw }

// Validate implements Operation.
func (p WithdrawParams) Validate() error {
	return validAmount(p.Amount)
}

// TransferParams is the input data to move money between two accounts.
type TransferParams struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
}

// Kind implements Operation.
func (TransferParams) Kind() EntryKind { return EntryTransferOut }

// Validate implements Operation.
func (p TransferParams) Validate() error {
	if err := validAmount(p.Amount); err != nil {
		return err
	}

	if p.FromAccountID == p.ToAccountID {
		return ErrSelfTransfer
	}

	return nil
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// BalanceFunc computes the new balance from the current one or rejects the change.
type BalanceFunc func(balance decimal.Decimal) (decimal.Decimal, error)

// BalanceUpdate is a single account change applied by the store atomically.
type BalanceUpdate struct {
	AccountID      uuid.UUID
	Kind           EntryKind
	TransferID     uuid.NullUUID
	CounterpartyID uuid.NullUUID
	Apply          BalanceFunc
}
