package token

import (
	"slices"
	"time"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// Validator checks decoded claims against the configured issuer and audience
// and the validity window. Checks run in a fixed order and the first failure
// is reported.
type Validator struct {
	issuer   string
	audience string
}

func NewValidator(issuer, audience string) *Validator {
	return &Validator{issuer: issuer, audience: audience}
}

// Validate returns nil when claims are acceptable at now, otherwise an
// *domain.InvalidClaimsError carrying the reason.
func (v *Validator) Validate(claims *Claims, now time.Time) error {
	if claims == nil {
		return invalid(domain.ReasonBadIssuer)
	}
	if claims.Issuer != v.issuer {
		return invalid(domain.ReasonBadIssuer)
	}
	if !slices.Contains(claims.Audience, v.audience) {
		return invalid(domain.ReasonBadAudience)
	}
	// valid while now is in [nbf, exp)
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return invalid(domain.ReasonExpired)
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return invalid(domain.ReasonPremature)
	}

	switch {
	case claims.UserID == 0:
		return invalid(domain.MissingClaimReason("user_id"))
	case claims.Username == "":
		return invalid(domain.MissingClaimReason("username"))
	case claims.Email == "":
		return invalid(domain.MissingClaimReason("email"))
	case claims.Role == "":
		return invalid(domain.MissingClaimReason("role"))
	}
	return nil
}

func invalid(reason string) error {
	return &domain.InvalidClaimsError{Reason: reason}
}
