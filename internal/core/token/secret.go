package token

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/memory-app/memory-api/internal/core/domain"
)

// developmentSecret is only ever returned for explicitly local environments.
const developmentSecret = "memory_jwt_development_secret_do_not_use_in_production"

// minSecretLength is the HS256 key size (256 bits).
const minSecretLength = 32

var developmentEnvs = map[string]struct{}{
	"development": {},
	"dev":         {},
	"local":       {},
}

// IsDevelopment reports whether env names a local development context.
func IsDevelopment(env string) bool {
	_, ok := developmentEnvs[strings.ToLower(strings.TrimSpace(env))]
	return ok
}

// ResolveSecret picks the signing secret. A configured secret always wins.
// Without one, development environments fall back to a fixed secret and log
// a warning; any other environment gets domain.ErrMissingSecret.
func ResolveSecret(configured, env string, log zerolog.Logger) ([]byte, error) {
	if configured != "" {
		if len(configured) < minSecretLength {
			log.Warn().Int("length", len(configured)).Msg("JWT_SECRET is shorter than 32 bytes")
		}
		return []byte(configured), nil
	}
	if IsDevelopment(env) {
		log.Warn().Str("env", env).Msg("JWT_SECRET not set, using the development secret")
		return []byte(developmentSecret), nil
	}
	return nil, domain.ErrMissingSecret
}
