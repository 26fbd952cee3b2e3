package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidSystemKey = errors.New("invalid system key")

// SystemKey authenticates server-side callers (the order-payment pipeline)
// that hold the cross-tenant settlement creation capability. Only the bcrypt
// hash of the key is configured on the server.
type SystemKey struct {
	hash []byte
}

// NewSystemKey wraps a bcrypt hash produced by HashSystemKey.
func NewSystemKey(hash string) (*SystemKey, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("system key hash is not a bcrypt hash: %w", err)
	}
	return &SystemKey{hash: []byte(hash)}, nil
}

// HashSystemKey hashes a raw key for configuration.
func HashSystemKey(key string) (string, error) {
	if len(key) < 16 {
		return "", errors.New("system key must be at least 16 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash system key: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a presented key against the configured hash.
func (k *SystemKey) Verify(presented string) error {
	if k == nil || presented == "" {
		return ErrInvalidSystemKey
	}
	if err := bcrypt.CompareHashAndPassword(k.hash, []byte(presented)); err != nil {
		return ErrInvalidSystemKey
	}
	return nil
}
