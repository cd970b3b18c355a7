package payment

import (
	"context"
	"fmt"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
	"github.com/bookmart/bookmart-backend/internal/modules/order"
)

// PasswordVerifier checks a plaintext password against the stored hash.
// Satisfied by the auth service.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, userID, password string) error
}

// Service defines the settlement business logic.
type Service interface {
	// Pay settles an unpaid order: it moves the order total from the buyer
	// to the store owner and marks the order PAID, exactly once.
	Pay(ctx context.Context, orderID, payerID, password string) error
}

type service struct {
	repo     Repository
	orders   order.Repository
	stores   inventory.Service
	verifier PasswordVerifier
}

// NewService creates a new payment service.
func NewService(repo Repository, orders order.Repository, stores inventory.Service, verifier PasswordVerifier) Service {
	return &service{repo: repo, orders: orders, stores: stores, verifier: verifier}
}

func (s *service) Pay(ctx context.Context, orderID, payerID, password string) error {
	o, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	// Early reject for replays. The authoritative gate is the conditional
	// status flip inside Settle.
	if o.Status != order.StatusUnpaid {
		return fmt.Errorf("%w: order %s is %s", domain.ErrOrderStatusInvalid, orderID, o.Status)
	}

	if payerID != o.BuyerID {
		return domain.ErrUnauthorized
	}
	if err := s.verifier.VerifyPassword(ctx, payerID, password); err != nil {
		return err
	}

	sellerID, err := s.stores.ResolveOwner(ctx, o.StoreID)
	if err != nil {
		return err
	}

	// The total comes from the persisted line snapshots, never from current
	// listing prices.
	var total int64
	for _, l := range o.Lines {
		total += l.PriceCents * int64(l.Quantity)
	}

	return s.repo.Settle(ctx, o.ID, o.BuyerID, sellerID, total)
}
