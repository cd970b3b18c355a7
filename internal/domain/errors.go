// Package domain holds the error vocabulary shared by every module.
//
// Each failure an operation can surface to a caller has a sentinel here, so
// services and storage bindings agree on error identity regardless of which
// engine produced the failure. Handlers translate sentinels to the wire
// status codes with StatusCode.
package domain

import (
	"errors"
	"fmt"
)

var (
	// Identity / authorization
	ErrUnauthorized = errors.New("bookstore: authorization fail")
	ErrInvalidInput = errors.New("bookstore: invalid input")

	// Users
	ErrUserExists   = errors.New("bookstore: user id already exists")
	ErrUserNotFound = errors.New("bookstore: non exist user id")

	// Stores
	ErrStoreExists   = errors.New("bookstore: store id already exists")
	ErrStoreNotFound = errors.New("bookstore: non exist store id")

	// Book listings
	ErrBookExists        = errors.New("bookstore: book id already exists")
	ErrBookNotFound      = errors.New("bookstore: non exist book id")
	ErrInsufficientStock = errors.New("bookstore: stock level low")

	// Orders
	ErrOrderNotFound      = errors.New("bookstore: invalid order id")
	ErrInsufficientFunds  = errors.New("bookstore: not sufficient funds")
	ErrOrderNotPaid       = errors.New("bookstore: order not paid")
	ErrOrderNotShipped    = errors.New("bookstore: order not shipped")
	ErrOrderStatusInvalid = errors.New("bookstore: invalid order status")

	// Storage faults. Safe to retry the whole logical operation: no partial
	// effect is persisted when a repository reports a transient error.
	ErrTransient = errors.New("bookstore: transient storage error")
)

// Transient tags a storage-layer fault as retryable.
func Transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// IsTransient reports whether err is safe to retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// StatusCode maps a domain error onto the API status code scheme
// (401/409 for auth and conflicts, 51x/52x for business failures,
// 528 for retryable storage faults, 530 for anything unclassified).
func StatusCode(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrUserExists):
		return 409
	case errors.Is(err, ErrInvalidInput):
		return 400
	case errors.Is(err, ErrUserNotFound):
		return 511
	case errors.Is(err, ErrStoreNotFound):
		return 513
	case errors.Is(err, ErrStoreExists):
		return 514
	case errors.Is(err, ErrBookNotFound):
		return 515
	case errors.Is(err, ErrBookExists):
		return 516
	case errors.Is(err, ErrInsufficientStock):
		return 517
	case errors.Is(err, ErrOrderNotFound):
		return 518
	case errors.Is(err, ErrInsufficientFunds):
		return 519
	case errors.Is(err, ErrOrderNotPaid):
		return 520
	case errors.Is(err, ErrOrderNotShipped):
		return 522
	case errors.Is(err, ErrOrderStatusInvalid):
		return 524
	case errors.Is(err, ErrTransient):
		return 528
	default:
		return 530
	}
}
