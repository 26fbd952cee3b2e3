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

// CreateWholesaler inserts a new wholesaler into the database.
func (s *SQLiteStore) CreateWholesaler(ctx context.Context, wholesaler *models.Wholesaler) error {
	if wholesaler.ID == "" {
		wholesaler.ID = uuid.New().String()
	}
	if wholesaler.CreatedAt.IsZero() {
		wholesaler.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO wholesalers (id, owner_user_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		wholesaler.ID,
		wholesaler.OwnerUserID,
		wholesaler.Name,
		toMillis(wholesaler.CreatedAt),
	)

	if err != nil {
		return wrapErr("create wholesaler", err)
	}

	return nil
}

// GetWholesaler retrieves a wholesaler by ID.
func (s *SQLiteStore) GetWholesaler(ctx context.Context, id string) (*models.Wholesaler, error) {
	return s.getWholesaler(ctx, "id", id)
}

// GetWholesalerByOwner retrieves the wholesaler linked to an identity principal.
func (s *SQLiteStore) GetWholesalerByOwner(ctx context.Context, userID string) (*models.Wholesaler, error) {
	return s.getWholesaler(ctx, "owner_user_id", userID)
}

func (s *SQLiteStore) getWholesaler(ctx context.Context, column, value string) (*models.Wholesaler, error) {
	query := `
		SELECT id, owner_user_id, name, created_at
		FROM wholesalers
		WHERE ` + column + ` = ?
	`

	wholesaler := &models.Wholesaler{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&wholesaler.ID,
		&wholesaler.OwnerUserID,
		&wholesaler.Name,
		&createdAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wholesaler %s=%s: %w", column, value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get wholesaler", err)
	}

	wholesaler.CreatedAt = fromMillis(createdAt)
	return wholesaler, nil
}
