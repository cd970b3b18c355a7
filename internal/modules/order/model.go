package order

import "time"

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusUnpaid    Status = "UNPAID"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
	StatusTimedOut  Status = "TIMED_OUT"
)

// validTransitions defines the allowed status state machine. RECEIVED,
// CANCELLED, and TIMED_OUT are terminal.
var validTransitions = map[Status][]Status{
	StatusUnpaid:    {StatusPaid, StatusCancelled, StatusTimedOut},
	StatusPaid:      {StatusShipped},
	StatusShipped:   {StatusReceived},
	StatusReceived:  {},
	StatusCancelled: {},
	StatusTimedOut:  {},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a buyer's purchase from a single store. Lines and the total are
// fixed at creation; only the status field mutates afterwards.
type Order struct {
	ID         string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	StoreID    string    `json:"store_id"`
	TotalCents int64     `json:"total_cents"`
	Status     Status    `json:"status"`
	Lines      []*Line   `json:"lines,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Line is a single book position within an order. The price is the listing
// price snapshotted at reservation time, decoupled from later changes.
type Line struct {
	OrderID    string `json:"order_id"`
	BookID     string `json:"book_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// LineInput describes one requested (book, quantity) pair at checkout.
type LineInput struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}
