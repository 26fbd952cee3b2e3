package models

// Scope is the tenant-visibility boundary a caller may read and write within.
// It is either global (admins) or restricted to a single wholesaler.
// The zero value is not a valid scope and matches nothing.
type Scope struct {
	global       bool
	wholesalerID string
}

// GlobalScope returns the unrestricted scope.
func GlobalScope() Scope {
	return Scope{global: true}
}

// TenantScope returns a scope restricted to the given wholesaler.
func TenantScope(wholesalerID string) Scope {
	return Scope{wholesalerID: wholesalerID}
}

// IsGlobal reports whether the scope is unrestricted.
func (s Scope) IsGlobal() bool {
	return s.global
}

// WholesalerID returns the tenant the scope is restricted to.
// It is empty for the global scope.
func (s Scope) WholesalerID() string {
	return s.wholesalerID
}

// Valid reports whether the scope can be used for queries.
func (s Scope) Valid() bool {
	return s.global || s.wholesalerID != ""
}

// Allows reports whether a record owned by wholesalerID is visible in the scope.
func (s Scope) Allows(wholesalerID string) bool {
	if s.global {
		return true
	}
	return s.wholesalerID != "" && s.wholesalerID == wholesalerID
}

func (s Scope) String() string {
	if s.global {
		return "global"
	}
	if s.wholesalerID == "" {
		return "invalid"
	}
	return "wholesaler:" + s.wholesalerID
}
