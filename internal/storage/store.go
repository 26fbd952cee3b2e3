// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/settlements/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist or lies outside the
	// caller's scope. The two cases are indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a settlement already exists for an order.
	ErrConflict = errors.New("settlement already exists for order")

	// ErrStorage wraps failures of the underlying database.
	ErrStorage = errors.New("storage failure")
)

// SortKey is a column settlements can be ordered by.
type SortKey string

const (
	SortByCreatedAt         SortKey = "created_at"
	SortByScheduledPayoutAt SortKey = "scheduled_payout_at"
	SortByOrderAmount       SortKey = "order_amount"
)

// Valid reports whether k is a supported sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByCreatedAt, SortByScheduledPayoutAt, SortByOrderAmount:
		return true
	}
	return false
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Valid reports whether o is asc or desc.
func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// SettlementFilter narrows a settlement listing. Zero-valued fields do not filter.
type SettlementFilter struct {
	// Status filters on the effective (projected) status. Rows that are stored
	// pending but due before DueBefore count as completed.
	Status models.SettlementStatus

	// DueBefore is the projection cutoff (start of today in the business timezone).
	// Required when Status is set.
	DueBefore time.Time

	// PayoutFrom and PayoutTo bound ScheduledPayoutAt as [PayoutFrom, PayoutTo).
	PayoutFrom *time.Time
	PayoutTo   *time.Time

	// OrderID matches a single order.
	OrderID string

	// WholesalerID narrows a global scope to one tenant. It can never widen a tenant scope.
	WholesalerID string
}

// SettlementQuery is a paged, sorted listing request.
type SettlementQuery struct {
	Filter SettlementFilter
	SortBy SortKey
	Order  SortOrder
	Limit  int
	Offset int
}

// SettlementReader is the scoped read side of the settlement repository.
type SettlementReader interface {
	// ListSettlements returns one page of settlements in scope and the total
	// number of rows matching the filter. Ties on the sort key keep insertion order.
	ListSettlements(ctx context.Context, scope models.Scope, q SettlementQuery) ([]*models.Settlement, int, error)

	// ListAllSettlements returns every settlement in scope, oldest first.
	ListAllSettlements(ctx context.Context, scope models.Scope) ([]*models.Settlement, error)

	// GetSettlement returns ErrNotFound when the ID is unknown or out of scope.
	GetSettlement(ctx context.Context, scope models.Scope, id string) (*models.Settlement, error)
}

// SettlementWriter holds the scoped manual transitions.
type SettlementWriter interface {
	// UpdateSettlementStatus writes status and completedAt for a settlement in scope.
	// A write that matches no row in scope returns ErrNotFound.
	UpdateSettlementStatus(ctx context.Context, scope models.Scope, id string, status models.SettlementStatus, completedAt *time.Time) (*models.Settlement, error)
}

// SettlementCreator is the cross-tenant system capability used only by the
// creation pipeline.
type SettlementCreator interface {
	// CreateSettlement inserts a new settlement. The ID and CreatedAt fields are
	// populated when empty. Returns ErrConflict if the order already has one.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlementByOrderID returns ErrNotFound when the order has no settlement.
	GetSettlementByOrderID(ctx context.Context, orderID string) (*models.Settlement, error)
}

// WholesalerStore resolves tenants.
type WholesalerStore interface {
	CreateWholesaler(ctx context.Context, wholesaler *models.Wholesaler) error
	GetWholesaler(ctx context.Context, id string) (*models.Wholesaler, error)

	// GetWholesalerByOwner returns ErrNotFound when the user has no linked wholesaler.
	GetWholesalerByOwner(ctx context.Context, userID string) (*models.Wholesaler, error)
}

// Store is everything a storage backend provides.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the engine.
type Store interface {
	SettlementReader
	SettlementWriter
	SettlementCreator
	WholesalerStore

	// Close releases any resources held by the store.
	Close() error
}
