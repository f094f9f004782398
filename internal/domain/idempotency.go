package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrIdempotencyKeyReused indicates that the key was already used with a different request.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")
	// ErrIdempotencyInProgress indicates that the request with the same key is still running.
	ErrIdempotencyInProgress = errors.New("request with the same idempotency key is in progress")
)

// IdempotencyRecord holds the stored outcome of a request made with an Idempotency-Key.
type IdempotencyRecord struct {
	AccountID   uuid.UUID
	Key         string
	RequestHash string
	Completed   bool
	StatusCode  int
	Body        []byte
	CreatedAt   time.Time
}
