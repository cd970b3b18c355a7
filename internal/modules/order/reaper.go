package order

import (
	"context"
	"log"
	"time"

	"github.com/bookmart/bookmart-backend/internal/modules/inventory"
)

// Reaper periodically cancels unpaid orders that sat past the timeout window
// and returns their reserved stock. It races concurrent payment attempts:
// the conditional UNPAID→TIMED_OUT flip decides the winner, and stock is
// released only when the flip went through.
type Reaper struct {
	orders   Repository
	stock    inventory.Service
	timeout  time.Duration
	interval time.Duration
}

// NewReaper creates a reaper that cancels unpaid orders older than timeout,
// sweeping every interval.
func NewReaper(orders Repository, stock inventory.Service, timeout, interval time.Duration) *Reaper {
	return &Reaper{orders: orders, stock: stock, timeout: timeout, interval: interval}
}

// Run sweeps until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				log.Printf("reaper: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("reaper: timed out %d unpaid orders", n)
			}
		}
	}
}

// Sweep runs one pass and returns the number of orders it timed out.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.timeout)
	stale, err := r.orders.ListUnpaidBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, o := range stale {
		ok, err := r.orders.UpdateStatusIf(ctx, o.ID, StatusUnpaid, StatusTimedOut)
		if err != nil {
			return count, err
		}
		if !ok {
			// A concurrent payment won; the stock is sold, not reserved.
			continue
		}
		for _, l := range o.Lines {
			if err := r.stock.Release(ctx, o.StoreID, l.BookID, l.Quantity); err != nil {
				log.Printf("reaper: release %s/%s for order %s: %v", o.StoreID, l.BookID, o.ID, err)
			}
		}
		count++
	}
	return count, nil
}
