package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
)

const settlementColumns = `id, order_id, wholesaler_id, order_amount, platform_fee_rate, platform_fee,
	wholesaler_amount, status, paid_at, scheduled_payout_at, completed_at, created_at, updated_at`

func scanSettlement(row pgx.Row) (*models.Settlement, error) {
	s := &models.Settlement{}
	var status string
	var completedAt *time.Time

	if err := row.Scan(&s.ID, &s.OrderID, &s.WholesalerID, &s.OrderAmount, &s.PlatformFeeRate,
		&s.PlatformFee, &s.WholesalerAmount, &status, &s.PaidAt, &s.ScheduledPayoutAt,
		&completedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}

	s.Status = models.SettlementStatus(status)
	s.PaidAt = s.PaidAt.UTC()
	s.ScheduledPayoutAt = s.ScheduledPayoutAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	if completedAt != nil {
		t := completedAt.UTC()
		s.CompletedAt = &t
	}
	return s, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// CreateSettlement inserts a settlement under the system scope.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt.IsZero() {
		settlement.CreatedAt = time.Now().UTC()
	}
	if settlement.UpdatedAt.IsZero() {
		settlement.UpdatedAt = settlement.CreatedAt
	}
	if settlement.Status == "" {
		settlement.Status = models.StatusPending
	}

	err := s.inTx(ctx, systemScope, "", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO settlements (`+settlementColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			settlement.ID, settlement.OrderID, settlement.WholesalerID,
			settlement.OrderAmount, settlement.PlatformFeeRate, settlement.PlatformFee,
			settlement.WholesalerAmount, string(settlement.Status),
			settlement.PaidAt.UTC(), settlement.ScheduledPayoutAt.UTC(), utcPtr(settlement.CompletedAt),
			settlement.CreatedAt.UTC(), settlement.UpdatedAt.UTC(),
		)
		if isUniqueViolation(err, "settlements_order_id_key") {
			return fmt.Errorf("order %s: %w", settlement.OrderID, storage.ErrConflict)
		}
		if err != nil {
			return wrapErr("insert settlement", err)
		}
		return nil
	})
	return err
}

// GetSettlementByOrderID retrieves the settlement of an order under the system scope.
func (s *Store) GetSettlementByOrderID(ctx context.Context, orderID string) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.inTx(ctx, systemScope, "", func(tx pgx.Tx) error {
		var err error
		settlement, err = scanSettlement(tx.QueryRow(ctx,
			`SELECT `+settlementColumns+` FROM settlements WHERE order_id = $1`, orderID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("settlement for order %s: %w", orderID, storage.ErrNotFound)
		}
		if err != nil {
			return wrapErr("get settlement by order", err)
		}
		return nil
	})
	return settlement, err
}

// GetSettlement retrieves a settlement by ID within scope.
func (s *Store) GetSettlement(ctx context.Context, scope models.Scope, id string) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.inScope(ctx, scope, func(tx pgx.Tx) error {
		args := newArgs()
		query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = ` + args.Add(id) +
			` AND ` + storage.ScopeCondition(scope, args)

		var err error
		settlement, err = scanSettlement(tx.QueryRow(ctx, query, args.Values()...))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return wrapErr("get settlement", err)
		}
		return nil
	})
	return settlement, err
}

// ListSettlements retrieves one page of settlements within scope.
func (s *Store) ListSettlements(ctx context.Context, scope models.Scope, q storage.SettlementQuery) ([]*models.Settlement, int, error) {
	var settlements []*models.Settlement
	var total int

	err := s.inScope(ctx, scope, func(tx pgx.Tx) error {
		args := newArgs()
		where := storage.SettlementWhere(scope, q.Filter, args)

		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM settlements WHERE `+where, args.Values()...).Scan(&total); err != nil {
			return wrapErr("count settlements", err)
		}

		query := `SELECT ` + settlementColumns + ` FROM settlements WHERE ` + where +
			` ORDER BY ` + storage.OrderBy(q.SortBy, q.Order) +
			` LIMIT ` + args.Add(q.Limit) + ` OFFSET ` + args.Add(q.Offset)

		var err error
		settlements, err = querySettlements(ctx, tx, query, args.Values()...)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// ListAllSettlements retrieves every settlement within scope.
func (s *Store) ListAllSettlements(ctx context.Context, scope models.Scope) ([]*models.Settlement, error) {
	var settlements []*models.Settlement
	err := s.inScope(ctx, scope, func(tx pgx.Tx) error {
		args := newArgs()
		query := `SELECT ` + settlementColumns + ` FROM settlements WHERE ` +
			storage.ScopeCondition(scope, args) + ` ORDER BY seq ASC`

		var err error
		settlements, err = querySettlements(ctx, tx, query, args.Values()...)
		return err
	})
	return settlements, err
}

func querySettlements(ctx context.Context, tx pgx.Tx, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list settlements", err)
	}
	defer rows.Close()

	settlements := []*models.Settlement{}
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, wrapErr("scan settlement", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate settlements", err)
	}
	return settlements, nil
}

// UpdateSettlementStatus writes a manual status transition within scope.
func (s *Store) UpdateSettlementStatus(ctx context.Context, scope models.Scope, id string, status models.SettlementStatus, completedAt *time.Time) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.inScope(ctx, scope, func(tx pgx.Tx) error {
		args := newArgs()
		query := `UPDATE settlements SET status = ` + args.Add(string(status)) +
			`, completed_at = ` + args.Add(utcPtr(completedAt)) +
			`, updated_at = ` + args.Add(time.Now()) +
			` WHERE id = ` + args.Add(id) + ` AND ` + storage.ScopeCondition(scope, args) +
			` RETURNING ` + settlementColumns

		var err error
		settlement, err = scanSettlement(tx.QueryRow(ctx, query, args.Values()...))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return wrapErr("update settlement status", err)
		}
		return nil
	})
	return settlement, err
}
