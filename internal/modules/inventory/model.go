package inventory

import (
	"encoding/json"
	"time"
)

// Store is a seller-owned storefront. The owner id gates every seller-side
// operation (adding books, restocking, shipping).
type Store struct {
	ID        string    `json:"store_id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Listing is a book offered by a store: the (store_id, book_id) pair is
// unique per store. Price and book metadata are snapshotted at listing time;
// only the stock level mutates afterwards.
type Listing struct {
	StoreID    string          `json:"store_id"`
	BookID     string          `json:"book_id"`
	Title      string          `json:"title,omitempty"`
	PriceCents int64           `json:"price_cents"`
	Stock      int             `json:"stock"`
	BookInfo   json.RawMessage `json:"book_info,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AddBookRequest holds data for listing a book in a store.
type AddBookRequest struct {
	SellerID   string          `json:"user_id"`
	StoreID    string          `json:"store_id"`
	BookID     string          `json:"book_id"`
	Title      string          `json:"title"`
	PriceCents int64           `json:"price_cents"`
	Stock      int             `json:"stock"`
	BookInfo   json.RawMessage `json:"book_info,omitempty"`
}
