package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ikoiii/booking-futsal/internal/models"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("a-very-secret-signing-key", time.Hour)
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	raw, issued, err := m.Issue(&models.User{ID: 42, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)
	assert.Equal(t, fixed.Add(time.Hour), issued.ExpiresAt)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.Equal(t, time.Hour, claims.TTL(fixed))
}

func TestTokenManager_UniqueTokenIDs(t *testing.T) {
	m := NewTokenManager("a-very-secret-signing-key", time.Hour)
	user := &models.User{ID: 1, Role: models.RoleUser}

	_, a, err := m.Issue(user)
	require.NoError(t, err)
	_, b, err := m.Issue(user)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestTokenManager_ParseRejects(t *testing.T) {
	m := NewTokenManager("a-very-secret-signing-key", time.Hour)
	raw, _, err := m.Issue(&models.User{ID: 7, Role: models.RoleUser})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("another-secret-signing-key", time.Hour)
		_, err := other.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("a-very-secret-signing-key", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "7", "jti": "x", "exp": time.Now().Add(time.Hour).Unix(),
		})
		unsigned, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing jti", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "7", "exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := tok.SignedString([]byte("a-very-secret-signing-key"))
		require.NoError(t, err)
		_, err = m.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.True(t, VerifyPassword(hash, "Secret123"))
	assert.False(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword("not-a-hash", "Secret123"))
}
