package order

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
)

// Service defines order business logic: checkout and the fulfillment
// lifecycle. Payment lives in the payment module.
type Service interface {
	// Create reserves stock for every requested line and persists the order
	// as one unit: either all lines are reserved and the order exists, or
	// nothing changed.
	Create(ctx context.Context, buyerID, storeID string, items []LineInput) (*Order, error)

	// Get retrieves an order with its lines.
	Get(ctx context.Context, id string) (*Order, error)

	// ListBuyerOrders returns a buyer's order history.
	ListBuyerOrders(ctx context.Context, buyerID string) ([]*Order, error)

	// Cancel moves an UNPAID order to CANCELLED and returns its reserved
	// stock. Buyer-initiated.
	Cancel(ctx context.Context, orderID, buyerID string) error

	// Ship moves a PAID order to SHIPPED. Seller-initiated; the seller must
	// own the store the order was placed with.
	Ship(ctx context.Context, orderID, sellerID, storeID string) error

	// Receive moves a SHIPPED order to RECEIVED. Buyer-initiated.
	Receive(ctx context.Context, orderID, buyerID string) error
}

type service struct {
	repo  Repository
	users user.Repository
	stock inventory.Service
}

// NewService creates a new order service.
func NewService(repo Repository, users user.Repository, stock inventory.Service) Service {
	return &service{repo: repo, users: users, stock: stock}
}

func (s *service) Create(ctx context.Context, buyerID, storeID string, items []LineInput) (*Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0 for book %s", domain.ErrInvalidInput, it.BookID)
		}
		if seen[it.BookID] {
			return nil, fmt.Errorf("%w: duplicate book %s", domain.ErrInvalidInput, it.BookID)
		}
		seen[it.BookID] = true
	}

	if _, err := s.users.GetUserByID(ctx, buyerID); err != nil {
		return nil, err
	}
	if _, err := s.stock.GetStore(ctx, storeID); err != nil {
		return nil, err
	}

	// Reserve line by line; on any failure give back everything granted so
	// far, so a failed checkout leaves stock levels untouched.
	orderID := uuid.NewString()
	var (
		lines []*Line
		total int64
	)
	for _, it := range items {
		l, err := s.stock.Reserve(ctx, storeID, it.BookID, it.Quantity)
		if err != nil {
			s.releaseLines(ctx, storeID, lines)
			return nil, err
		}
		lines = append(lines, &Line{
			OrderID:    orderID,
			BookID:     it.BookID,
			Quantity:   it.Quantity,
			PriceCents: l.PriceCents,
		})
		total += l.PriceCents * int64(it.Quantity)
	}

	o := &Order{
		ID:         orderID,
		BuyerID:    buyerID,
		StoreID:    storeID,
		TotalCents: total,
		Status:     StatusUnpaid,
		Lines:      lines,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		s.releaseLines(ctx, storeID, lines)
		return nil, err
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID string) ([]*Order, error) {
	if _, err := s.users.GetUserByID(ctx, buyerID); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByBuyer(ctx, buyerID)
}

func (s *service) Cancel(ctx context.Context, orderID, buyerID string) error {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.BuyerID != buyerID {
		return domain.ErrUnauthorized
	}

	if !CanTransition(o.Status, StatusCancelled) {
		return fmt.Errorf("%w: order %s is not unpaid", domain.ErrOrderStatusInvalid, orderID)
	}
	ok, err := s.repo.UpdateStatusIf(ctx, orderID, o.Status, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race with payment or the reaper since the read above.
		return fmt.Errorf("%w: order %s is not unpaid", domain.ErrOrderStatusInvalid, orderID)
	}

	// The flip succeeded, so this caller owns the single release.
	s.releaseLines(ctx, o.StoreID, o.Lines)
	return nil
}

func (s *service) Ship(ctx context.Context, orderID, sellerID, storeID string) error {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	ownerID, err := s.stock.ResolveOwner(ctx, storeID)
	if err != nil {
		return err
	}
	if ownerID != sellerID || o.StoreID != storeID {
		return domain.ErrUnauthorized
	}

	// Only PAID has a SHIPPED edge, so the state machine covers unpaid and
	// already-shipped alike.
	if !CanTransition(o.Status, StatusShipped) {
		return fmt.Errorf("%w: order %s", domain.ErrOrderNotPaid, orderID)
	}
	ok, err := s.repo.UpdateStatusIf(ctx, orderID, o.Status, StatusShipped)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrOrderNotPaid, orderID)
	}
	return nil
}

func (s *service) Receive(ctx context.Context, orderID, buyerID string) error {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.BuyerID != buyerID {
		return domain.ErrUnauthorized
	}

	if !CanTransition(o.Status, StatusReceived) {
		return fmt.Errorf("%w: order %s", domain.ErrOrderNotShipped, orderID)
	}
	ok, err := s.repo.UpdateStatusIf(ctx, orderID, o.Status, StatusReceived)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order %s", domain.ErrOrderNotShipped, orderID)
	}
	return nil
}

// releaseLines returns reserved stock for the given lines. Release failures
// don't change the outcome of the surrounding operation, but a line that
// stays reserved needs an operator, so they are logged.
func (s *service) releaseLines(ctx context.Context, storeID string, lines []*Line) {
	for _, l := range lines {
		if err := s.stock.Release(ctx, storeID, l.BookID, l.Quantity); err != nil {
			log.Printf("order %s: release %s/%s: %v", l.OrderID, storeID, l.BookID, err)
		}
	}
}
