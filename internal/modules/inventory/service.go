package inventory

import (
	"context"
	"fmt"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
)

// Service defines inventory business logic for stores, listings, and stock.
type Service interface {
	// Store operations
	CreateStore(ctx context.Context, ownerID, storeID string) (*Store, error)
	GetStore(ctx context.Context, storeID string) (*Store, error)
	ResolveOwner(ctx context.Context, storeID string) (string, error)

	// Listing operations
	AddBook(ctx context.Context, req AddBookRequest) (*Listing, error)
	GetListing(ctx context.Context, storeID, bookID string) (*Listing, error)
	AddStock(ctx context.Context, sellerID, storeID, bookID string, qty int) error

	// Reservation primitives used by order creation, cancellation, and the
	// timeout reaper. Reserve returns the listing snapshot whose price was
	// current at reservation time.
	Reserve(ctx context.Context, storeID, bookID string, qty int) (*Listing, error)
	Release(ctx context.Context, storeID, bookID string, qty int) error
}

type service struct {
	stores   StoreRepository
	listings ListingRepository
	users    user.Repository
}

// NewService creates a new inventory service.
func NewService(stores StoreRepository, listings ListingRepository, users user.Repository) Service {
	return &service{
		stores:   stores,
		listings: listings,
		users:    users,
	}
}

func (s *service) CreateStore(ctx context.Context, ownerID, storeID string) (*Store, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: store_id is required", domain.ErrInvalidInput)
	}
	if _, err := s.users.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	st := &Store{ID: storeID, OwnerID: ownerID}
	if err := s.stores.CreateStore(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) GetStore(ctx context.Context, storeID string) (*Store, error) {
	return s.stores.GetStore(ctx, storeID)
}

func (s *service) ResolveOwner(ctx context.Context, storeID string) (string, error) {
	st, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return "", err
	}
	return st.OwnerID, nil
}

func (s *service) AddBook(ctx context.Context, req AddBookRequest) (*Listing, error) {
	if req.BookID == "" {
		return nil, fmt.Errorf("%w: book_id is required", domain.ErrInvalidInput)
	}
	if req.PriceCents < 0 || req.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must not be negative", domain.ErrInvalidInput)
	}
	if err := s.requireOwner(ctx, req.SellerID, req.StoreID); err != nil {
		return nil, err
	}

	l := &Listing{
		StoreID:    req.StoreID,
		BookID:     req.BookID,
		Title:      req.Title,
		PriceCents: req.PriceCents,
		Stock:      req.Stock,
		BookInfo:   req.BookInfo,
	}
	if err := s.listings.AddListing(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) GetListing(ctx context.Context, storeID, bookID string) (*Listing, error) {
	return s.listings.GetListing(ctx, storeID, bookID)
}

func (s *service) AddStock(ctx context.Context, sellerID, storeID, bookID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: stock quantity must be > 0", domain.ErrInvalidInput)
	}
	if err := s.requireOwner(ctx, sellerID, storeID); err != nil {
		return err
	}
	if _, err := s.listings.GetListing(ctx, storeID, bookID); err != nil {
		return err
	}
	return s.listings.AddStock(ctx, storeID, bookID, qty)
}

// Reserve holds qty units of a book for an order line. The decrement is
// conditional at write time, so two concurrent reservations against the last
// units cannot both succeed.
func (s *service) Reserve(ctx context.Context, storeID, bookID string, qty int) (*Listing, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", domain.ErrInvalidInput)
	}

	l, err := s.listings.GetListing(ctx, storeID, bookID)
	if err != nil {
		return nil, err
	}
	if l.Stock < qty {
		return nil, fmt.Errorf("%w: book %s", domain.ErrInsufficientStock, bookID)
	}

	ok, err := s.listings.ReserveStock(ctx, storeID, bookID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race between the read above and the write.
		return nil, fmt.Errorf("%w: book %s", domain.ErrInsufficientStock, bookID)
	}
	return l, nil
}

// Release returns qty units to the listing. Callers release at most once per
// granted reservation.
func (s *service) Release(ctx context.Context, storeID, bookID string, qty int) error {
	return s.listings.AddStock(ctx, storeID, bookID, qty)
}

func (s *service) requireOwner(ctx context.Context, sellerID, storeID string) error {
	st, err := s.stores.GetStore(ctx, storeID)
	if err != nil {
		return err
	}
	if st.OwnerID != sellerID {
		return domain.ErrUnauthorized
	}
	return nil
}
