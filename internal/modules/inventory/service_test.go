package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bookmart/bookmart-backend/internal/domain"
	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
	"github.com/bookmart/bookmart-backend/internal/storage/memory"
)

type env struct {
	users     user.Service
	inventory inventory.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := memory.New()
	return &env{
		users:     user.NewService(mem),
		inventory: inventory.NewService(mem, mem, mem),
	}
}

// seedStore registers a seller, opens a store, and lists one book.
func (e *env) seedStore(t *testing.T, storeID, bookID string, price int64, stock int) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.users.Register(ctx, "seller", "passwd"); err != nil && !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("register seller: %v", err)
	}
	if _, err := e.inventory.CreateStore(ctx, "seller", storeID); err != nil && !errors.Is(err, domain.ErrStoreExists) {
		t.Fatalf("create store: %v", err)
	}
	_, err := e.inventory.AddBook(ctx, inventory.AddBookRequest{
		SellerID:   "seller",
		StoreID:    storeID,
		BookID:     bookID,
		Title:      "test book",
		PriceCents: price,
		Stock:      stock,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
}

func TestCreateStore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.inventory.CreateStore(ctx, "nobody", "S1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown owner, got %v", err)
	}

	if _, err := e.users.Register(ctx, "seller", "passwd"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := e.inventory.CreateStore(ctx, "seller", "S1"); err != nil {
		t.Fatalf("create store: %v", err)
	}
	if _, err := e.inventory.CreateStore(ctx, "seller", "S1"); !errors.Is(err, domain.ErrStoreExists) {
		t.Fatalf("expected ErrStoreExists on duplicate, got %v", err)
	}

	owner, err := e.inventory.ResolveOwner(ctx, "S1")
	if err != nil || owner != "seller" {
		t.Fatalf("resolve owner: got (%q, %v), want (seller, nil)", owner, err)
	}
}

func TestAddBook(t *testing.T) {
	e := newEnv(t)
	e.seedStore(t, "S1", "B1", 6000, 5)
	ctx := context.Background()

	if _, err := e.inventory.AddBook(ctx, inventory.AddBookRequest{
		SellerID: "seller", StoreID: "S1", BookID: "B1", PriceCents: 1, Stock: 1,
	}); !errors.Is(err, domain.ErrBookExists) {
		t.Fatalf("expected ErrBookExists on duplicate listing, got %v", err)
	}

	if _, err := e.inventory.AddBook(ctx, inventory.AddBookRequest{
		SellerID: "stranger", StoreID: "S1", BookID: "B2", PriceCents: 1, Stock: 1,
	}); !errors.Is(err, domain.ErrUserNotFound) && !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected rejection for non-owner, got %v", err)
	}
}

func TestAddStock(t *testing.T) {
	e := newEnv(t)
	e.seedStore(t, "S1", "B1", 6000, 5)
	ctx := context.Background()

	if err := e.inventory.AddStock(ctx, "seller", "S1", "B1", 7); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	l, err := e.inventory.GetListing(ctx, "S1", "B1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if l.Stock != 12 {
		t.Fatalf("stock = %d, want 12", l.Stock)
	}

	if err := e.inventory.AddStock(ctx, "seller", "S1", "nope", 1); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
	if err := e.inventory.AddStock(ctx, "seller", "S1", "B1", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for qty 0, got %v", err)
	}
}

func TestReserve(t *testing.T) {
	e := newEnv(t)
	e.seedStore(t, "S1", "B1", 6000, 5)
	ctx := context.Background()

	tests := []struct {
		name    string
		bookID  string
		qty     int
		wantErr error
	}{
		{"unknown book", "missing", 1, domain.ErrBookNotFound},
		{"more than stock", "B1", 6, domain.ErrInsufficientStock},
		{"zero quantity", "B1", 0, domain.ErrInvalidInput},
		{"whole stock", "B1", 5, nil},
		{"after depletion", "B1", 1, domain.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := e.inventory.Reserve(ctx, "S1", tt.bookID, tt.qty)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Reserve(%s, %d) error = %v, want %v", tt.bookID, tt.qty, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reserve(%s, %d): %v", tt.bookID, tt.qty, err)
			}
			if l.PriceCents != 6000 {
				t.Fatalf("price snapshot = %d, want 6000", l.PriceCents)
			}
		})
	}
}

func TestReserveRelease(t *testing.T) {
	e := newEnv(t)
	e.seedStore(t, "S1", "B1", 6000, 5)
	ctx := context.Background()

	if _, err := e.inventory.Reserve(ctx, "S1", "B1", 4); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := e.inventory.Release(ctx, "S1", "B1", 4); err != nil {
		t.Fatalf("release: %v", err)
	}

	l, err := e.inventory.GetListing(ctx, "S1", "B1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if l.Stock != 5 {
		t.Fatalf("stock after release = %d, want 5", l.Stock)
	}
}

// Two concurrent reservations of 3 against stock 5: exactly one may win.
func TestReserveConcurrentLastUnits(t *testing.T) {
	e := newEnv(t)
	e.seedStore(t, "S1", "B1", 6000, 5)
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.inventory.Reserve(ctx, "S1", "B1", 3)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("got %d successes and %d shortages, want exactly 1 and 1", ok, short)
	}

	l, err := e.inventory.GetListing(ctx, "S1", "B1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if l.Stock != 2 {
		t.Fatalf("final stock = %d, want 2", l.Stock)
	}
}

// Successful reservations never exceed the initial stock under contention.
func TestReserveNeverOversells(t *testing.T) {
	const stock = 50
	const attempts = 200

	e := newEnv(t)
	e.seedStore(t, "S1", "B1", 100, stock)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.inventory.Reserve(ctx, "S1", "B1", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != stock {
		t.Fatalf("%d reservations succeeded, want %d", wins, stock)
	}

	l, err := e.inventory.GetListing(ctx, "S1", "B1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if l.Stock != 0 {
		t.Fatalf("final stock = %d, want 0", l.Stock)
	}
}
