package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ikoiii/booking-futsal/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by an access token.
type Claims struct {
	UserID    int64
	Role      models.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns how long the token stays valid after now.
func (c *Claims) TTL(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user with sub, role, jti, exp and iat claims.
func (m *TokenManager) Issue(user *models.User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"jti":  claims.TokenID,
		"exp":  claims.ExpiresAt.Unix(),
		"iat":  now.Unix(),
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies the signature and expiry of raw and returns its claims.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := mc.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidToken
	}

	role, _ := mc["role"].(string)
	jti, _ := mc["jti"].(string)
	if jti == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: userID, Role: models.Role(role), TokenID: jti}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	return claims, nil
}
