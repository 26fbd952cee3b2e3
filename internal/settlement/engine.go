// Package settlement is the settlement and payout lifecycle engine: the
// tenant-scoped read paths, manual status transitions and the creation
// pipeline for paid orders.
package settlement

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/calculator"
	"github.com/mmynk/settlements/internal/metrics"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	dateLayout = "2006-01-02"
)

// Store is the storage the engine needs. It excludes
// storage.SettlementCreator: creation belongs to the Pipeline only.
type Store interface {
	storage.SettlementReader
	storage.SettlementWriter
	GetWholesaler(ctx context.Context, id string) (*models.Wholesaler, error)
}

// Engine serves the settlement views and transitions for authenticated principals.
type Engine struct {
	guard *auth.Guard
	store Store
	loc   *time.Location
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the business timezone used for "today" and payout dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine that authorizes through guard and reads from store.
func NewEngine(guard *auth.Guard, store Store, opts ...Option) *Engine {
	e := &Engine{guard: guard, store: store, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListParams are the caller-supplied listing options. Zero values pick defaults.
type ListParams struct {
	Status       string // "", "pending" or "completed" (effective status)
	PayoutFrom   string // inclusive date, YYYY-MM-DD
	PayoutTo     string // inclusive date, YYYY-MM-DD
	OrderID      string
	WholesalerID string // admins only; a tenant scope always wins
	Page         int    // 1-indexed, default 1
	PageSize     int    // default DefaultPageSize, max MaxPageSize
	SortBy       string // created_at (default), scheduled_payout_at, order_amount
	SortOrder    string // desc (default) or asc
}

// Page is one page of projected settlements.
type Page struct {
	Items      []*models.Settlement
	Total      int
	TotalPages int
	Page       int
	PageSize   int
}

// Detail is a single projected settlement with its tenant's display name.
type Detail struct {
	Settlement     *models.Settlement
	WholesalerName string
}

// ListSettlements returns a page of settlements visible to p, each projected at now.
func (e *Engine) ListSettlements(ctx context.Context, p *models.Principal, params ListParams) (*Page, error) {
	scope, err := e.guard.Resolve(ctx, p)
	if err != nil {
		return nil, classify(err)
	}

	now := e.now()
	query, page, pageSize, err := e.buildQuery(params, now)
	if err != nil {
		return nil, err
	}

	items, total, err := e.store.ListSettlements(ctx, scope, query)
	if err != nil {
		slog.Error("ListSettlements failed", "scope", scope.String(), "error", err)
		return nil, classify(err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	slog.Debug("ListSettlements successful", "scope", scope.String(), "count", len(items), "total", total)

	return &Page{
		Items:      calculator.ProjectAll(items, now, e.loc),
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (e *Engine) buildQuery(params ListParams, now time.Time) (storage.SettlementQuery, int, int, error) {
	var q storage.SettlementQuery

	page := params.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return q, 0, 0, validationErr("page must be >= 1, got %d", params.Page)
	}

	pageSize := params.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return q, 0, 0, validationErr("page_size must be within [1, %d], got %d", MaxPageSize, params.PageSize)
	}
	if page-1 > math.MaxInt/pageSize {
		return q, 0, 0, validationErr("page %d is out of range", params.Page)
	}

	sortBy := storage.SortKey(params.SortBy)
	if sortBy == "" {
		sortBy = storage.SortByCreatedAt
	}
	if !sortBy.Valid() {
		return q, 0, 0, validationErr("unknown sort key %q", params.SortBy)
	}

	order := storage.SortOrder(params.SortOrder)
	if order == "" {
		order = storage.SortDesc
	}
	if !order.Valid() {
		return q, 0, 0, validationErr("unknown sort order %q", params.SortOrder)
	}

	filter := storage.SettlementFilter{
		OrderID:      params.OrderID,
		WholesalerID: params.WholesalerID,
	}

	if params.Status != "" {
		status := models.SettlementStatus(params.Status)
		if !status.Valid() {
			return q, 0, 0, validationErr("unknown status %q", params.Status)
		}
		filter.Status = status
		filter.DueBefore = calculator.StartOfDay(now, e.loc)
	}

	if params.PayoutFrom != "" {
		from, err := time.ParseInLocation(dateLayout, params.PayoutFrom, e.loc)
		if err != nil {
			return q, 0, 0, validationErr("payout_from must be YYYY-MM-DD, got %q", params.PayoutFrom)
		}
		filter.PayoutFrom = &from
	}
	if params.PayoutTo != "" {
		to, err := time.ParseInLocation(dateLayout, params.PayoutTo, e.loc)
		if err != nil {
			return q, 0, 0, validationErr("payout_to must be YYYY-MM-DD, got %q", params.PayoutTo)
		}
		// inclusive date → exclusive bound at the next midnight
		end := to.AddDate(0, 0, 1)
		filter.PayoutTo = &end
	}
	if filter.PayoutFrom != nil && filter.PayoutTo != nil && !filter.PayoutFrom.Before(*filter.PayoutTo) {
		return q, 0, 0, validationErr("payout_from %s is after payout_to %s", params.PayoutFrom, params.PayoutTo)
	}

	q = storage.SettlementQuery{
		Filter: filter,
		SortBy: sortBy,
		Order:  order,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	return q, page, pageSize, nil
}

// GetSettlementStats summarises every settlement visible to p, projected at now.
func (e *Engine) GetSettlementStats(ctx context.Context, p *models.Principal) (*calculator.Stats, error) {
	scope, err := e.guard.Resolve(ctx, p)
	if err != nil {
		return nil, classify(err)
	}

	items, err := e.store.ListAllSettlements(ctx, scope)
	if err != nil {
		slog.Error("GetSettlementStats failed", "scope", scope.String(), "error", err)
		return nil, classify(err)
	}

	stats := calculator.Aggregate(items, e.now(), e.loc)
	return &stats, nil
}

// GetSettlementDetail returns one projected settlement. Unknown and
// out-of-scope IDs both yield storage.ErrNotFound.
func (e *Engine) GetSettlementDetail(ctx context.Context, p *models.Principal, id string) (*Detail, error) {
	scope, err := e.guard.Resolve(ctx, p)
	if err != nil {
		return nil, classify(err)
	}
	if id == "" {
		return nil, validationErr("settlement id required")
	}

	stored, err := e.store.GetSettlement(ctx, scope, id)
	if err != nil {
		return nil, classify(err)
	}

	projected := calculator.Project(*stored, e.now(), e.loc)
	detail := &Detail{Settlement: &projected}

	wholesaler, err := e.store.GetWholesaler(ctx, stored.WholesalerID)
	switch {
	case err == nil:
		detail.WholesalerName = wholesaler.Name
	case errors.Is(err, storage.ErrNotFound):
		slog.Warn("Settlement references unknown wholesaler", "settlement_id", id, "wholesaler_id", stored.WholesalerID)
	default:
		return nil, classify(err)
	}

	return detail, nil
}

// SetSettlementStatus writes a manual transition. completed stamps
// completed_at with now; pending clears it. The returned settlement is the
// stored state, not a projection.
func (e *Engine) SetSettlementStatus(ctx context.Context, p *models.Principal, id string, status models.SettlementStatus) (*models.Settlement, error) {
	scope, err := e.guard.Resolve(ctx, p)
	if err != nil {
		return nil, classify(err)
	}
	if id == "" {
		return nil, validationErr("settlement id required")
	}
	if !status.Valid() {
		return nil, validationErr("unknown status %q", status)
	}

	var completedAt *time.Time
	if status == models.StatusCompleted {
		now := e.now().UTC()
		completedAt = &now
	}

	updated, err := e.store.UpdateSettlementStatus(ctx, scope, id, status, completedAt)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("SetSettlementStatus failed", "settlement_id", id, "error", err)
		}
		return nil, classify(err)
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(status)).Inc()
	slog.Info("Settlement status changed",
		"settlement_id", id,
		"status", status,
		"user_id", p.UserID,
		"scope", scope.String(),
	)

	return updated, nil
}
