package token

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// DefaultTTL is the token lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// Codec signs and verifies HS256 tokens with a shared secret.
// Decode only proves integrity; claim checks belong to Validator.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	parser *jwt.Parser
}

// NewCodec returns a Codec for secret. An empty secret is refused.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, domain.ErrMissingSecret
	}
	return &Codec{
		secret: secret,
		method: jwt.SigningMethodHS256,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Encode serialises and signs claims.
func (c *Codec) Encode(claims *Claims) (string, error) {
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature of tokenString and returns its claims.
// The payload is not parsed until the signature has matched.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, domain.ErrMalformedToken
	}

	expected, err := c.method.Sign(parts[0]+"."+parts[1], c.secret)
	if err != nil {
		return nil, fmt.Errorf("recompute signature: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(encodeSegment(expected)), []byte(parts[2])) != 1 {
		return nil, domain.ErrInvalidSignature
	}

	raw, err := c.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptPayload, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil, domain.ErrCorruptPayload
	}

	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(tokenString, claims, c.key); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptPayload, err)
	}
	return claims, nil
}

func (c *Codec) key(_ *jwt.Token) (any, error) {
	return c.secret, nil
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
