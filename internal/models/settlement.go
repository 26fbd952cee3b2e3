package models

import "time"

// SettlementStatus is the stored lifecycle state of a settlement.
type SettlementStatus string

const (
	StatusPending   SettlementStatus = "pending"
	StatusCompleted SettlementStatus = "completed"
)

// Valid reports whether s is a known status.
func (s SettlementStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Settlement is the computed financial record for one paid order.
// There is exactly one settlement per order.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// OrderID references the originating order. Unique across all settlements.
	OrderID string

	// WholesalerID is the owning tenant.
	WholesalerID string

	// OrderAmount is copied from the order at creation time, in integer currency units.
	OrderAmount int64

	// PlatformFeeRate is the fee fraction (e.g. 0.05) in effect when the row was created.
	// Stored per row so later rate changes never touch historical settlements.
	PlatformFeeRate float64

	// PlatformFee is floor(OrderAmount * PlatformFeeRate).
	PlatformFee int64

	// WholesalerAmount is OrderAmount - PlatformFee.
	WholesalerAmount int64

	// Status is the stored status. Callers usually want the projected status,
	// see calculator.Project.
	Status SettlementStatus

	// PaidAt is the payment timestamp of the order.
	PaidAt time.Time

	// ScheduledPayoutAt is PaidAt plus the payout delay.
	ScheduledPayoutAt time.Time

	// CompletedAt is set by an explicit transition to completed and cleared
	// on a transition back to pending.
	CompletedAt *time.Time

	// CreatedAt is the immutable creation timestamp.
	CreatedAt time.Time

	// UpdatedAt is bumped on every status transition.
	UpdatedAt time.Time
}
