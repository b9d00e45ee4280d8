// Package ledger defines the typed error taxonomy of the stock ledger
// engine. Services return these sentinels (usually wrapped with context via
// fmt.Errorf and %w); handlers map them to HTTP statuses with errors.Is.
package ledger

import "errors"

var (
	// ErrNotFound means a referenced stock record, sale or scope is absent.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock means the operation would drive a quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidScope means a cross-site or cross-stall rule was violated.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrUnlinkedItem means the operation requires a master link that is absent.
	ErrUnlinkedItem = errors.New("item has no linked master")

	// ErrInconsistentPropagation means a linked-master update could not be
	// applied without violating the non-negative quantity invariant.
	ErrInconsistentPropagation = errors.New("linked master update would go negative")

	// ErrValidation means malformed input (non-positive quantity, price
	// mismatch, empty justification, ...).
	ErrValidation = errors.New("validation error")

	// ErrContention means the store aborted the transaction repeatedly due
	// to concurrent conflicting writes and the retry budget ran out.
	ErrContention = errors.New("too much contention, try again")
)
