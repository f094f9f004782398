// Package domain provides definitions of all entities.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameAlreadyExists indicates that the account with the given username already exists.
	ErrUsernameAlreadyExists = errors.New("username already exists")
	// ErrEmailAlreadyExists indicates that the account with the given email already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrWrongPassword indicates the wrong password for the given account.
	ErrWrongPassword = errors.New("wrong password")
)

// Account holds the credentials and the balance of a user.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	HashedPassword string          `json:"-"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateAccountParams is the input data to create an account.
type CreateAccountParams struct {
	Username       string
	Email          string
	HashedPassword string
	Balance        decimal.Decimal
}

// AccountNotFoundError reports which account is missing.
type AccountNotFoundError struct {
	AccountID uuid.UUID
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAccountNotFound, e.AccountID)
}

// Is makes errors.Is(err, ErrAccountNotFound) hold.
func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// NewAccountNotFoundError returns the not found error for the given account.
func NewAccountNotFoundError(id uuid.UUID) error {
	return &AccountNotFoundError{AccountID: id}
}
