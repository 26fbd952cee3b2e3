package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
)

const settlementColumns = `id, order_id, wholesaler_id, order_amount, platform_fee_rate, platform_fee,
	wholesaler_amount, status, paid_at, scheduled_payout_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var status string
	var paidAt, scheduledAt, createdAt, updatedAt int64
	var completedAt sql.NullInt64

	if err := row.Scan(&settlement.ID, &settlement.OrderID, &settlement.WholesalerID,
		&settlement.OrderAmount, &settlement.PlatformFeeRate, &settlement.PlatformFee,
		&settlement.WholesalerAmount, &status, &paidAt, &scheduledAt, &completedAt,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	settlement.Status = models.SettlementStatus(status)
	settlement.PaidAt = fromMillis(paidAt)
	settlement.ScheduledPayoutAt = fromMillis(scheduledAt)
	settlement.CreatedAt = fromMillis(createdAt)
	settlement.UpdatedAt = fromMillis(updatedAt)
	if completedAt.Valid {
		t := fromMillis(completedAt.Int64)
		settlement.CompletedAt = &t
	}

	return settlement, nil
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.OrderID, settlement.WholesalerID,
		settlement.OrderAmount, settlement.PlatformFeeRate, settlement.PlatformFee,
		settlement.WholesalerAmount, string(settlement.Status),
		toMillis(settlement.PaidAt), toMillis(settlement.ScheduledPayoutAt), nullMillis(settlement.CompletedAt),
		toMillis(settlement.CreatedAt), toMillis(settlement.UpdatedAt),
	)
	if isUniqueViolation(err, "settlements.order_id") {
		return fmt.Errorf("order %s: %w", settlement.OrderID, storage.ErrConflict)
	}
	if err != nil {
		return wrapErr("insert settlement", err)
	}

	return nil
}

// GetSettlementByOrderID retrieves the settlement of an order regardless of tenant.
func (s *SQLiteStore) GetSettlementByOrderID(ctx context.Context, orderID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE order_id = ?`,
		orderID,
	)
	settlement, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement for order %s: %w", orderID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get settlement by order", err)
	}
	return settlement, nil
}

// GetSettlement retrieves a settlement by ID within scope.
func (s *SQLiteStore) GetSettlement(ctx context.Context, scope models.Scope, id string) (*models.Settlement, error) {
	args := newArgs()
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = ` + args.Add(id) +
		` AND ` + storage.ScopeCondition(scope, args)

	settlement, err := scanSettlement(s.db.QueryRowContext(ctx, query, args.Values()...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get settlement", err)
	}
	return settlement, nil
}

// ListSettlements retrieves one page of settlements within scope.
func (s *SQLiteStore) ListSettlements(ctx context.Context, scope models.Scope, q storage.SettlementQuery) ([]*models.Settlement, int, error) {
	args := newArgs()
	where := storage.SettlementWhere(scope, q.Filter, args)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlements WHERE `+where,
		args.Values()...,
	).Scan(&total); err != nil {
		return nil, 0, wrapErr("count settlements", err)
	}

	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE ` + where +
		` ORDER BY ` + storage.OrderBy(q.SortBy, q.Order) +
		` LIMIT ` + args.Add(q.Limit) + ` OFFSET ` + args.Add(q.Offset)

	settlements, err := s.querySettlements(ctx, query, args.Values()...)
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// ListAllSettlements retrieves every settlement within scope.
func (s *SQLiteStore) ListAllSettlements(ctx context.Context, scope models.Scope) ([]*models.Settlement, error) {
	args := newArgs()
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE ` +
		storage.ScopeCondition(scope, args) + ` ORDER BY seq ASC`
	return s.querySettlements(ctx, query, args.Values()...)
}

func (s *SQLiteStore) querySettlements(ctx context.Context, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLiteStore) UpdateSettlementStatus(ctx context.Context, scope models.Scope, id string, status models.SettlementStatus, completedAt *time.Time) (*models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	args := newArgs()
	query := `UPDATE settlements SET status = ` + args.Add(string(status)) +
		`, completed_at = ` + args.Add(nullMillis(completedAt)) +
		`, updated_at = ` + args.Add(time.Now()) +
		` WHERE id = ` + args.Add(id) + ` AND ` + storage.ScopeCondition(scope, args)

	res, err := tx.ExecContext(ctx, query, args.Values()...)
	if err != nil {
		return nil, wrapErr("update settlement status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, wrapErr("update settlement status", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("settlement %s: %w", id, storage.ErrNotFound)
	}

	settlement, err := scanSettlement(tx.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`, id))
	if err != nil {
		return nil, wrapErr("reload settlement", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit transaction", err)
	}

	return settlement, nil
}
