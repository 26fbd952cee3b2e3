package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/storage"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotOnboarded    = errors.New("wholesaler onboarding not completed")
)

// TenantLinker looks up the wholesaler a principal owns.
type TenantLinker interface {
	GetWholesalerByOwner(ctx context.Context, userID string) (*models.Wholesaler, error)
}

// Guard resolves which scope a principal may act within. It runs before
// every settlement read or write on the request path.
type Guard struct {
	tenants TenantLinker
}

// NewGuard creates a guard that falls back to tenants when a session carries
// no tenant link.
func NewGuard(tenants TenantLinker) *Guard {
	return &Guard{tenants: tenants}
}

// Resolve returns the principal's scope:
//   - admin: global
//   - wholesaler: its own tenant, or ErrNotOnboarded when none is linked
//   - anything else: ErrForbidden
func (g *Guard) Resolve(ctx context.Context, p *models.Principal) (models.Scope, error) {
	if p == nil || p.UserID == "" {
		return models.Scope{}, ErrUnauthenticated
	}

	switch p.Role {
	case models.RoleAdmin:
		return models.GlobalScope(), nil

	case models.RoleWholesaler:
		if p.LinkedWholesalerID != "" {
			return models.TenantScope(p.LinkedWholesalerID), nil
		}
		if g.tenants == nil {
			return models.Scope{}, ErrNotOnboarded
		}
		w, err := g.tenants.GetWholesalerByOwner(ctx, p.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			return models.Scope{}, ErrNotOnboarded
		}
		if err != nil {
			return models.Scope{}, fmt.Errorf("resolve tenant link: %w", err)
		}
		return models.TenantScope(w.ID), nil

	default:
		return models.Scope{}, fmt.Errorf("role %q: %w", p.Role, ErrForbidden)
	}
}
