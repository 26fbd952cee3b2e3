package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settlements/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret-0123456789abcdef", time.Hour)
	principal := &models.Principal{UserID: "user-1", Role: models.RoleWholesaler, LinkedWholesalerID: "w-1"}

	token, err := m.Generate(principal)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, principal, claims.Principal())
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret-0123456789abcdef", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("another-secret-0123456789", time.Hour)
		token, err := other.Generate(&models.Principal{UserID: "u", Role: models.RoleAdmin})
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret-0123456789abcdef", -time.Minute)
		token, err := expired.Generate(&models.Principal{UserID: "u", Role: models.RoleAdmin})
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSystemKey(t *testing.T) {
	hash, err := HashSystemKey("payment-pipeline-key-1")
	require.NoError(t, err)

	key, err := NewSystemKey(hash)
	require.NoError(t, err)

	assert.NoError(t, key.Verify("payment-pipeline-key-1"))
	assert.ErrorIs(t, key.Verify("payment-pipeline-key-2"), ErrInvalidSystemKey)
	assert.ErrorIs(t, key.Verify(""), ErrInvalidSystemKey)

	_, err = HashSystemKey("short")
	assert.Error(t, err)

	_, err = NewSystemKey("plain-text")
	assert.Error(t, err)
}
