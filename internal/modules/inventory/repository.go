package inventory

import "context"

// StoreRepository defines data access for storefronts.
type StoreRepository interface {
	// CreateStore persists a new store. Returns domain.ErrStoreExists when
	// the id is already taken.
	CreateStore(ctx context.Context, st *Store) error

	// GetStore retrieves a store, or domain.ErrStoreNotFound.
	GetStore(ctx context.Context, id string) (*Store, error)
}

// ListingRepository defines data access for book listings and their stock.
type ListingRepository interface {
	// AddListing persists a new listing. Returns domain.ErrBookExists when
	// (store_id, book_id) is already listed.
	AddListing(ctx context.Context, l *Listing) error

	// GetListing retrieves a listing, or domain.ErrBookNotFound.
	GetListing(ctx context.Context, storeID, bookID string) (*Listing, error)

	// AddStock increments the stock level unconditionally. Used both for
	// seller restocks and for releasing reserved stock.
	AddStock(ctx context.Context, storeID, bookID string, qty int) error

	// ReserveStock decrements the stock level by qty only if the level is
	// still at least qty at write time. Returns (false, nil) when the stock
	// is short, and domain.ErrBookNotFound when the listing does not exist.
	ReserveStock(ctx context.Context, storeID, bookID string, qty int) (bool, error)
}
