package domain

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the required role
	// for the target entity (not the seller, not the bidder, not the owner).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when no active Order or Bid exists at the key.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when the entity exists but is past its expiry.
	ErrExpired = errors.New("expired")

	// ErrInvalidPrice is returned when a price violates the stated minimum.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidBid is returned when a bid does not beat the standing bid,
	// or its price does not match on acceptance.
	ErrInvalidBid = errors.New("invalid bid")

	// ErrInvalidExpiry is returned when an expiry is not far enough ahead.
	ErrInvalidExpiry = errors.New("invalid expiry")

	// ErrTransferFailed is returned when an external registry/ledger call
	// did not complete. Fatal to the whole operation, never retried.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrUnknownCurrency is returned when a currency symbol is not on the
	// accepted allow-list.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrUnknownRegistry is returned when an asset registry identifier does
	// not resolve to a live registry handle.
	ErrUnknownRegistry = errors.New("unknown registry")
)

// TransferError wraps a failed registry or ledger call with the operation
// that failed. It matches ErrTransferFailed via errors.Is.
type TransferError struct {
	Op  string // Operation that failed (e.g., "escrow asset", "refund bid")
	Err error  // Underlying registry/ledger error
}

func (e *TransferError) Error() string {
	return "transfer failed [" + e.Op + "]: " + e.Err.Error()
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Is(target error) bool {
	return target == ErrTransferFailed
}

// NewTransferError wraps err as a fatal transfer failure during op.
func NewTransferError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}
