package payment

import "context"

// Repository applies the settlement write set against the ledger.
type Repository interface {
	// Settle atomically flips the order UNPAID→PAID, debits the buyer by
	// amount, and credits the seller by amount. The three effects land
	// together or not at all.
	//
	// Returns domain.ErrOrderStatusInvalid when the order is no longer
	// unpaid (double settlement, cancellation, or timeout won the race) and
	// domain.ErrInsufficientFunds when the buyer balance is below amount.
	Settle(ctx context.Context, orderID, buyerID, sellerID string, amount int64) error
}
