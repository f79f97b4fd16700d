package domain

import (
	"errors"
	"fmt"
)

// Token errors. These never reach clients: the auth middleware collapses
// them into a generic 401 and only logs the specific cause.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrCorruptPayload   = errors.New("corrupt token payload")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingSecret    = errors.New("jwt secret is not configured")
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already in use")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrInvalidUserRole    = errors.New("invalid role, must be admin or user")
)

// Project and assignment errors.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project name is already taken")
	ErrInvalidRole     = errors.New("invalid role, must be manager or developer")
	ErrAlreadyAssigned = errors.New("user is already assigned to this project")
	ErrNotFound        = errors.New("assignment not found or already inactive")
	ErrLastManager     = errors.New("project must keep at least one active manager")
)

// Claim validation reasons.
const (
	ReasonBadIssuer   = "bad_issuer"
	ReasonBadAudience = "bad_audience"
	ReasonExpired     = "expired"
	ReasonPremature   = "premature"
)

// MissingClaimReason formats the reason reported for an absent required claim.
func MissingClaimReason(name string) string {
	return "missing_claim(" + name + ")"
}

// InvalidClaimsError reports the first claim check a token failed.
// It matches ErrInvalidClaims with errors.Is.
type InvalidClaimsError struct {
	Reason string
}

func (e *InvalidClaimsError) Error() string {
	return ErrInvalidClaims.Error() + ": " + e.Reason
}

func (e *InvalidClaimsError) Is(target error) bool {
	return target == ErrInvalidClaims
}

// ClaimsReason extracts the validation reason from err, if any.
func ClaimsReason(err error) (string, bool) {
	var ice *InvalidClaimsError
	if errors.As(err, &ice) {
		return ice.Reason, true
	}
	return "", false
}
