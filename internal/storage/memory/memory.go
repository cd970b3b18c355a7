// Package memory provides an in-process binding of every repository
// interface, backed by maps behind a single RWMutex. The mutex makes each
// repository call atomic, which is exactly the conditional-update guarantee
// the services rely on. Used by the test suites and the "memory" engine.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
	"github.com/bookmart/bookmart-backend/internal/modules/order"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
)

type Store struct {
	mu sync.RWMutex

	users    map[string]*user.User
	stores   map[string]*inventory.Store
	listings map[string]*inventory.Listing // keyed storeID + "/" + bookID
	orders   map[string]*order.Order
}

func New() *Store {
	return &Store{
		users:    make(map[string]*user.User),
		stores:   make(map[string]*inventory.Store),
		listings: make(map[string]*inventory.Listing),
		orders:   make(map[string]*order.Order),
	}
}

func listingKey(storeID, bookID string) string {
	return storeID + "/" + bookID
}

// ── user.Repository ──────────────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; exists {
		return domain.ErrUserExists
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpdateToken(_ context.Context, id, token, terminal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Token = token
	u.Terminal = terminal
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) AddBalance(_ context.Context, id string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Balance += amount
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// ── inventory.StoreRepository ────────────────────────────────────────────────

func (s *Store) CreateStore(_ context.Context, st *inventory.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[st.ID]; exists {
		return domain.ErrStoreExists
	}
	cp := *st
	cp.CreatedAt = time.Now()
	s.stores[st.ID] = &cp
	return nil
}

func (s *Store) GetStore(_ context.Context, id string) (*inventory.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[id]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	cp := *st
	return &cp, nil
}

// ── inventory.ListingRepository ──────────────────────────────────────────────

func (s *Store) AddListing(_ context.Context, l *inventory.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := listingKey(l.StoreID, l.BookID)
	if _, exists := s.listings[key]; exists {
		return domain.ErrBookExists
	}
	cp := *l
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.listings[key] = &cp
	return nil
}

func (s *Store) GetListing(_ context.Context, storeID, bookID string) (*inventory.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[listingKey(storeID, bookID)]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *Store) AddStock(_ context.Context, storeID, bookID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[listingKey(storeID, bookID)]
	if !ok {
		return domain.ErrBookNotFound
	}
	l.Stock += qty
	l.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ReserveStock(_ context.Context, storeID, bookID string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[listingKey(storeID, bookID)]
	if !ok {
		return false, domain.ErrBookNotFound
	}
	if l.Stock < qty {
		return false, nil
	}
	l.Stock -= qty
	l.UpdatedAt = time.Now()
	return true, nil
}

// ── order.Repository ─────────────────────────────────────────────────────────

func (s *Store) CreateOrder(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("%w: duplicate order id %s", domain.ErrInvalidInput, o.ID)
	}
	cp := copyOrder(o)
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.orders[o.ID] = cp
	return nil
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) ListOrdersByBuyer(_ context.Context, buyerID string) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateStatusIf(_ context.Context, id string, from, to order.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *Store) ListUnpaidBefore(_ context.Context, cutoff time.Time) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Order
	for _, o := range s.orders {
		if o.Status == order.StatusUnpaid && o.CreatedAt.Before(cutoff) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ── payment.Repository ───────────────────────────────────────────────────────

// Settle holds the write lock for the whole settlement, so the status flip,
// the debit, and the credit are one atomic unit.
func (s *Store) Settle(_ context.Context, orderID, buyerID, sellerID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != order.StatusUnpaid {
		return fmt.Errorf("%w: order %s is not unpaid", domain.ErrOrderStatusInvalid, orderID)
	}

	buyer, ok := s.users[buyerID]
	if !ok {
		return domain.ErrUserNotFound
	}
	seller, ok := s.users[sellerID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if buyer.Balance < amount {
		return fmt.Errorf("%w: order %s", domain.ErrInsufficientFunds, orderID)
	}

	now := time.Now()
	buyer.Balance -= amount
	buyer.UpdatedAt = now
	seller.Balance += amount
	seller.UpdatedAt = now
	o.Status = order.StatusPaid
	o.UpdatedAt = now
	return nil
}

func copyOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Lines = make([]*order.Line, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		cp.Lines[i] = &lc
	}
	return &cp
}
