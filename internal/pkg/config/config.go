package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"APP_ENV,    default=production"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	JWT       JWTConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Security  SecurityConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig
}

type JWTConfig struct {
	// Secret may be empty; token.ResolveSecret decides whether that is fatal.
	Secret   string        `env:"JWT_SECRET"`
	Issuer   string        `env:"JWT_ISSUER,   default=memory_app"`
	Audience string        `env:"JWT_AUDIENCE, default=memory_users"`
	TTL      time.Duration `env:"JWT_TTL,      default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=memory_app"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED,   default=true"`
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	PoolSize int           `env:"REDIS_POOL_SIZE, default=20"`
	CacheTTL time.Duration `env:"CACHE_TTL,       default=5m"`
}

type SecurityConfig struct {
	BcryptCost         int     `env:"BCRYPT_COST,           default=10"`
	LoginRatePerMinute float64 `env:"LOGIN_RATE_PER_MINUTE, default=10"`
	LoginBurst         int     `env:"LOGIN_BURST,           default=5"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// BootstrapConfig seeds the first admin account when the user store is empty.
// Leaving any field blank disables seeding.
type BootstrapConfig struct {
	Username string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Enabled reports whether all bootstrap fields are set.
func (b BootstrapConfig) Enabled() bool {
	return b.Username != "" && b.Email != "" && b.Password != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Security.BcryptCost)
	}
	if c.Security.LoginRatePerMinute <= 0 || c.Security.LoginBurst <= 0 {
		return fmt.Errorf("login rate limit must be positive")
	}
	if c.Audit.Workers <= 0 {
		return fmt.Errorf("AUDIT_WORKERS must be positive, got %d", c.Audit.Workers)
	}
	return nil
}
