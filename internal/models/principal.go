package models

// Role is the coarse role granted by the identity provider.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleWholesaler Role = "wholesaler"
	RoleRetailer   Role = "retailer"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	// UserID is the identity-provider subject.
	UserID string

	// Role decides which scope the caller may act within.
	Role Role

	// LinkedWholesalerID is the tenant link carried by the session, if any.
	// When empty the tenant link is looked up by UserID.
	LinkedWholesalerID string
}
