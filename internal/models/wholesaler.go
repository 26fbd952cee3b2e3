package models

import "time"

// Wholesaler is a selling tenant on the marketplace.
type Wholesaler struct {
	// ID is the unique identifier for the wholesaler (UUID format).
	ID string

	// OwnerUserID is the identity-provider principal linked to this tenant.
	OwnerUserID string

	// Name is the display name shown in settlement details.
	Name string

	// CreatedAt is when the wholesaler finished onboarding.
	CreatedAt time.Time
}
