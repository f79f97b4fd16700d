package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/memory-app/memory-api/internal/api/metrics"
	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/token"
)

// IdentityKey is the echo context key holding the resolved *domain.Identity.
const IdentityKey = "identity"

const (
	CodeUnauthorized = "UNAUTHORIZED"
	msgUnauthorized  = "authentication required"
)

type identityCtxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return id, ok && id != nil
}

// Identity returns the identity attached to this request, or nil.
// It does not run the token pipeline; see Authenticator.CurrentUser.
func Identity(c echo.Context) *domain.Identity {
	if id, ok := c.Get(IdentityKey).(*domain.Identity); ok && id != nil {
		return id
	}
	if id, ok := IdentityFromContext(c.Request().Context()); ok {
		return id
	}
	return nil
}

type unauthorizedResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Authenticator gates routes on a valid bearer token. The specific reason a
// token was refused is logged and counted, never sent to the client.
type Authenticator struct {
	verifier *token.Verifier
	log      zerolog.Logger
}

func NewAuthenticator(verifier *token.Verifier, log zerolog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, log: log}
}

// RequireAuth rejects requests without a valid token with 401. The next
// handler is not invoked in that case.
func (a *Authenticator) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := a.verifier.Resolve(c.Request())
			if !res.Authenticated() {
				a.reject(c, res)
				return c.JSON(http.StatusUnauthorized, unauthorizedResponse{
					Success: false,
					Error:   msgUnauthorized,
					Code:    CodeUnauthorized,
				})
			}
			attach(c, res.Claims.Identity())
			return next(c)
		}
	}
}

// OptionalAuth attaches an identity when the token validates and otherwise
// continues anonymously.
func (a *Authenticator) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := a.verifier.Resolve(c.Request())
			if res.Authenticated() {
				attach(c, res.Claims.Identity())
			} else if res.State != token.StateNoToken {
				a.log.Debug().Err(res.Err).Str("state", res.State.String()).Msg("optional auth ignored token")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the identity resolved earlier in this request, or runs
// the pipeline again when none was attached. For the same token and clock
// both paths yield the same identity.
func (a *Authenticator) CurrentUser(c echo.Context) *domain.Identity {
	if id := Identity(c); id != nil {
		return id
	}
	res := a.verifier.Resolve(c.Request())
	if !res.Authenticated() {
		return nil
	}
	id := res.Claims.Identity()
	attach(c, id)
	return id
}

// CurrentUserID returns the caller's user id and whether one was resolved.
func (a *Authenticator) CurrentUserID(c echo.Context) (int64, bool) {
	id := a.CurrentUser(c)
	if id == nil {
		return 0, false
	}
	return id.UserID, true
}

func attach(c echo.Context, id *domain.Identity) {
	c.Set(IdentityKey, id)
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
}

func (a *Authenticator) reject(c echo.Context, res token.Result) {
	reason := rejectionReason(res)
	metrics.AuthTokenRejectionsTotal.WithLabelValues(reason).Inc()

	ev := a.log.Info()
	if res.State == token.StateNoToken {
		ev = a.log.Debug()
	}
	ev.Err(res.Err).
		Str("state", res.State.String()).
		Str("reason", reason).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request not authenticated")
}

func rejectionReason(res token.Result) string {
	if r, ok := domain.ClaimsReason(res.Err); ok {
		return r
	}
	switch {
	case errors.Is(res.Err, domain.ErrMalformedToken):
		return "malformed"
	case errors.Is(res.Err, domain.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(res.Err, domain.ErrCorruptPayload):
		return "corrupt_payload"
	}
	return res.State.String()
}
