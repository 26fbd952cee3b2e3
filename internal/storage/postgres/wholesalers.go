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

// CreateWholesaler inserts a new wholesaler.
func (s *Store) CreateWholesaler(ctx context.Context, wholesaler *models.Wholesaler) error {
	if wholesaler.ID == "" {
		wholesaler.ID = uuid.New().String()
	}
	if wholesaler.CreatedAt.IsZero() {
		wholesaler.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO wholesalers (id, owner_user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		wholesaler.ID, wholesaler.OwnerUserID, wholesaler.Name, wholesaler.CreatedAt.UTC(),
	)
	if err != nil {
		return wrapErr("create wholesaler", err)
	}
	return nil
}

// GetWholesaler retrieves a wholesaler by ID.
func (s *Store) GetWholesaler(ctx context.Context, id string) (*models.Wholesaler, error) {
	return s.getWholesaler(ctx, "id", id)
}

// GetWholesalerByOwner retrieves the wholesaler linked to an identity principal.
func (s *Store) GetWholesalerByOwner(ctx context.Context, userID string) (*models.Wholesaler, error) {
	return s.getWholesaler(ctx, "owner_user_id", userID)
}

func (s *Store) getWholesaler(ctx context.Context, column, value string) (*models.Wholesaler, error) {
	w := &models.Wholesaler{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, name, created_at FROM wholesalers WHERE `+column+` = $1`, value,
	).Scan(&w.ID, &w.OwnerUserID, &w.Name, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("wholesaler %s=%s: %w", column, value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get wholesaler", err)
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}
