// Package boltdb binds every repository interface to a single-file embedded
// BoltDB database. Records are JSON documents in per-entity buckets, and
// bolt's serialized Update transactions supply both the conditional-update
// and the multi-entity atomicity the services need: a closure either commits
// all of its writes or none.
package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
	"github.com/bookmart/bookmart-backend/internal/modules/order"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
)

var (
	bucketUsers    = []byte("users")
	bucketStores   = []byte("stores")
	bucketListings = []byte("listings")
	bucketOrders   = []byte("orders")
)

type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketStores, bucketListings, bucketOrders} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// userRecord is the stored form of user.User. The domain struct hides its
// credential fields from JSON, so storage keeps its own encoding.
type userRecord struct {
	ID           string    `json:"id"`
	PasswordHash string    `json:"password_hash"`
	Balance      int64     `json:"balance"`
	Token        string    `json:"token"`
	Terminal     string    `json:"terminal"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserRecord(u *user.User) userRecord {
	return userRecord{
		ID:           u.ID,
		PasswordHash: u.PasswordHash,
		Balance:      u.Balance,
		Token:        u.Token,
		Terminal:     u.Terminal,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (rec userRecord) toUser() *user.User {
	return &user.User{
		ID:           rec.ID,
		PasswordHash: rec.PasswordHash,
		Balance:      rec.Balance,
		Token:        rec.Token,
		Terminal:     rec.Terminal,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func listingKey(storeID, bookID string) []byte {
	return []byte(storeID + "/" + bookID)
}

func put(b *bolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// ── user.Repository ──────────────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(u.ID)) != nil {
			return domain.ErrUserExists
		}
		rec := toUserRecord(u)
		rec.CreatedAt = time.Now()
		rec.UpdatedAt = rec.CreatedAt
		return put(b, []byte(u.ID), rec)
	})
	return wrap(err)
}

func (s *Store) GetUserByID(_ context.Context, id string) (*user.User, error) {
	var rec userRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get([]byte(id))
		if data == nil {
			return domain.ErrUserNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return rec.toUser(), nil
}

func (s *Store) UpdateToken(_ context.Context, id, token, terminal string) error {
	return s.updateUser(id, func(rec *userRecord) {
		rec.Token = token
		rec.Terminal = terminal
	})
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.updateUser(id, func(rec *userRecord) {
		rec.PasswordHash = passwordHash
	})
}

func (s *Store) AddBalance(_ context.Context, id string, amount int64) error {
	return s.updateUser(id, func(rec *userRecord) {
		rec.Balance += amount
	})
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if b.Get([]byte(id)) == nil {
			return domain.ErrUserNotFound
		}
		return b.Delete([]byte(id))
	})
	return wrap(err)
}

func (s *Store) updateUser(id string, mutate func(*userRecord)) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		data := b.Get([]byte(id))
		if data == nil {
			return domain.ErrUserNotFound
		}
		var rec userRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		mutate(&rec)
		rec.UpdatedAt = time.Now()
		return put(b, []byte(id), rec)
	})
	return wrap(err)
}

// ── inventory.StoreRepository ────────────────────────────────────────────────

func (s *Store) CreateStore(_ context.Context, st *inventory.Store) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		if b.Get([]byte(st.ID)) != nil {
			return domain.ErrStoreExists
		}
		cp := *st
		cp.CreatedAt = time.Now()
		return put(b, []byte(st.ID), cp)
	})
	return wrap(err)
}

func (s *Store) GetStore(_ context.Context, id string) (*inventory.Store, error) {
	st := &inventory.Store{}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketStores).Get([]byte(id))
		if data == nil {
			return domain.ErrStoreNotFound
		}
		return json.Unmarshal(data, st)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return st, nil
}

// ── inventory.ListingRepository ──────────────────────────────────────────────

func (s *Store) AddListing(_ context.Context, l *inventory.Listing) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketListings)
		key := listingKey(l.StoreID, l.BookID)
		if b.Get(key) != nil {
			return domain.ErrBookExists
		}
		cp := *l
		cp.CreatedAt = time.Now()
		cp.UpdatedAt = cp.CreatedAt
		return put(b, key, cp)
	})
	return wrap(err)
}

func (s *Store) GetListing(_ context.Context, storeID, bookID string) (*inventory.Listing, error) {
	l := &inventory.Listing{}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketListings).Get(listingKey(storeID, bookID))
		if data == nil {
			return domain.ErrBookNotFound
		}
		return json.Unmarshal(data, l)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return l, nil
}

func (s *Store) AddStock(_ context.Context, storeID, bookID string, qty int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return adjustStock(tx, storeID, bookID, qty, false)
	})
	return wrap(err)
}

func (s *Store) ReserveStock(_ context.Context, storeID, bookID string, qty int) (bool, error) {
	var ok bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		err := adjustStock(tx, storeID, bookID, -qty, true)
		if err == errStockShort {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, wrap(err)
}

var errStockShort = fmt.Errorf("stock short")

// adjustStock changes a listing's stock inside an open write transaction.
// With checked set, the change is rejected when it would drive stock
// negative; the serialized bolt writer makes the check-and-write atomic.
func adjustStock(tx *bolt.Tx, storeID, bookID string, delta int, checked bool) error {
	b := tx.Bucket(bucketListings)
	key := listingKey(storeID, bookID)
	data := b.Get(key)
	if data == nil {
		return domain.ErrBookNotFound
	}
	var l inventory.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	if checked && l.Stock+delta < 0 {
		return errStockShort
	}
	l.Stock += delta
	l.UpdatedAt = time.Now()
	return put(b, key, l)
}

// ── order.Repository ─────────────────────────────────────────────────────────

func (s *Store) CreateOrder(_ context.Context, o *order.Order) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		if b.Get([]byte(o.ID)) != nil {
			return fmt.Errorf("%w: duplicate order id %s", domain.ErrInvalidInput, o.ID)
		}
		cp := *o
		cp.CreatedAt = time.Now()
		cp.UpdatedAt = cp.CreatedAt
		return put(b, []byte(o.ID), cp)
	})
	return wrap(err)
}

func (s *Store) GetOrderByID(_ context.Context, id string) (*order.Order, error) {
	o := &order.Order{}
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketOrders).Get([]byte(id))
		if data == nil {
			return domain.ErrOrderNotFound
		}
		return json.Unmarshal(data, o)
	})
	if err != nil {
		return nil, wrap(err)
	}
	return o, nil
}

func (s *Store) ListOrdersByBuyer(_ context.Context, buyerID string) ([]*order.Order, error) {
	orders, err := s.filterOrders(func(o *order.Order) bool {
		return o.BuyerID == buyerID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Store) UpdateStatusIf(_ context.Context, id string, from, to order.Status) (bool, error) {
	var ok bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		data := b.Get([]byte(id))
		if data == nil {
			return domain.ErrOrderNotFound
		}
		var o order.Order
		if err := json.Unmarshal(data, &o); err != nil {
			return err
		}
		if o.Status != from {
			return nil
		}
		o.Status = to
		o.UpdatedAt = time.Now()
		if err := put(b, []byte(id), o); err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, wrap(err)
}

func (s *Store) ListUnpaidBefore(_ context.Context, cutoff time.Time) ([]*order.Order, error) {
	orders, err := s.filterOrders(func(o *order.Order) bool {
		return o.Status == order.StatusUnpaid && o.CreatedAt.Before(cutoff)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (s *Store) filterOrders(keep func(*order.Order) bool) ([]*order.Order, error) {
	var out []*order.Order
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOrders).ForEach(func(_, v []byte) error {
			o := &order.Order{}
			if err := json.Unmarshal(v, o); err != nil {
				return err
			}
			if keep(o) {
				out = append(out, o)
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrap(err)
	}
	return out, nil
}

// ── payment.Repository ───────────────────────────────────────────────────────

// Settle applies the status flip, the debit, and the credit inside one bolt
// write transaction; any failure rolls the whole closure back.
func (s *Store) Settle(_ context.Context, orderID, buyerID, sellerID string, amount int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		orders := tx.Bucket(bucketOrders)
		data := orders.Get([]byte(orderID))
		if data == nil {
			return domain.ErrOrderNotFound
		}
		var o order.Order
		if err := json.Unmarshal(data, &o); err != nil {
			return err
		}
		if o.Status != order.StatusUnpaid {
			return fmt.Errorf("%w: order %s is not unpaid", domain.ErrOrderStatusInvalid, orderID)
		}

		users := tx.Bucket(bucketUsers)
		var buyer, seller userRecord
		if data := users.Get([]byte(buyerID)); data == nil {
			return domain.ErrUserNotFound
		} else if err := json.Unmarshal(data, &buyer); err != nil {
			return err
		}
		if data := users.Get([]byte(sellerID)); data == nil {
			return domain.ErrUserNotFound
		} else if err := json.Unmarshal(data, &seller); err != nil {
			return err
		}
		if buyer.Balance < amount {
			return fmt.Errorf("%w: order %s", domain.ErrInsufficientFunds, orderID)
		}

		now := time.Now()
		buyer.Balance -= amount
		buyer.UpdatedAt = now
		o.Status = order.StatusPaid
		o.UpdatedAt = now

		if buyerID == sellerID {
			buyer.Balance += amount
		} else {
			seller.Balance += amount
			seller.UpdatedAt = now
			if err := put(users, []byte(sellerID), seller); err != nil {
				return err
			}
		}
		if err := put(users, []byte(buyerID), buyer); err != nil {
			return err
		}
		return put(orders, []byte(orderID), o)
	})
	return wrap(err)
}

// wrap tags unrecognized storage faults as transient so callers can retry.
func wrap(err error) error {
	if err == nil || domain.StatusCode(err) != 530 {
		return err
	}
	return domain.Transient(err)
}
