package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/bookmart/bookmart-backend/internal/config"
	"github.com/bookmart/bookmart-backend/internal/modules/auth"
	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
	"github.com/bookmart/bookmart-backend/internal/modules/order"
	"github.com/bookmart/bookmart-backend/internal/modules/payment"
	"github.com/bookmart/bookmart-backend/internal/modules/user"
	"github.com/bookmart/bookmart-backend/internal/storage/boltdb"
	"github.com/bookmart/bookmart-backend/internal/storage/memory"
	storagepg "github.com/bookmart/bookmart-backend/internal/storage/postgres"
)

type repos struct {
	users    user.Repository
	stores   inventory.StoreRepository
	listings inventory.ListingRepository
	orders   order.Repository
	payments payment.Repository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	cfg := config.Load()

	rs, cleanup, err := openStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()
	fmt.Printf("storage engine: %s\n", cfg.StorageEngine)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userService := user.NewService(rs.users)
	authService := auth.NewService(rs.users)
	user.NewHandler(userService, authService).RegisterRoutes(router)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Stores & stock ──────────────────────────────────────
	inventoryService := inventory.NewService(rs.stores, rs.listings, rs.users)
	inventory.NewHandler(inventoryService, authService).RegisterRoutes(router)

	// ── Orders & settlement ─────────────────────────────────
	orderService := order.NewService(rs.orders, rs.users, inventoryService)
	order.NewHandler(orderService, authService).RegisterRoutes(router)

	paymentService := payment.NewService(rs.payments, rs.orders, inventoryService, authService)
	payment.NewHandler(paymentService).RegisterRoutes(router)

	// ── Timeout reaper ──────────────────────────────────────
	reaper := order.NewReaper(rs.orders, inventoryService, cfg.OrderTimeout, cfg.SweepInterval)
	go reaper.Run(context.Background())

	log.Printf("listening on %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, router))
}

func openStorage(cfg config.Config) (repos, func(), error) {
	switch cfg.StorageEngine {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return repos{}, nil, err
		}
		if err := db.Ping(); err != nil {
			return repos{}, nil, err
		}
		if err := storagepg.Migrate(db); err != nil {
			return repos{}, nil, err
		}
		return repos{
			users:    user.NewPostgresRepository(db),
			stores:   inventory.NewStorePostgresRepository(db),
			listings: inventory.NewListingPostgresRepository(db),
			orders:   order.NewPostgresRepository(db),
			payments: payment.NewPostgresRepository(db),
		}, func() { db.Close() }, nil

	case "bolt":
		st, err := boltdb.Open(cfg.BoltPath)
		if err != nil {
			return repos{}, nil, err
		}
		return repos{
			users:    st,
			stores:   st,
			listings: st,
			orders:   st,
			payments: st,
		}, func() { st.Close() }, nil

	case "memory":
		st := memory.New()
		return repos{
			users:    st,
			stores:   st,
			listings: st,
			orders:   st,
			payments: st,
		}, func() {}, nil

	default:
		return repos{}, nil, fmt.Errorf("unknown storage engine %q", cfg.StorageEngine)
	}
}
