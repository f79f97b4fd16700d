package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// Claims is the payload carried by every token the API issues.
// Registered claims (iss, aud, iat, exp, nbf) come from jwt.RegisteredClaims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Options holds the issuance parameters shared by the issuer and the validator.
type Options struct {
	Issuer   string
	Audience string
	TTL      time.Duration
}

// NewClaims builds the claims for user, valid from now until now+ttl.
func NewClaims(user *domain.User, opts Options, now time.Time) *Claims {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    opts.Issuer,
			Audience:  jwt.ClaimStrings{opts.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

// Identity returns the caller identity asserted by the claims.
func (c *Claims) Identity() *domain.Identity {
	return &domain.Identity{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}
