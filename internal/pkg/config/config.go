package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string `env:"PORT,         default=5000"`
	MetricsPort string `env:"METRICS_PORT, default=9090"`
	Env         string `env:"ENV,          default=development"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
	CORSOrigin  string `env:"CORS_ORIGIN,  default=http://localhost:3000"`

	// TrustedProxies lists CIDRs whose X-Forwarded-For header is honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,    default=4"`

	JWT       JWTConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type JWTConfig struct {
	Secret           string        `env:"JWT_SECRET,             required"`
	RefreshSecret    string        `env:"JWT_REFRESH_SECRET,     required"`
	ExpiresIn        time.Duration `env:"JWT_EXPIRES_IN,         default=15m"`
	RefreshExpiresIn time.Duration `env:"JWT_REFRESH_EXPIRES_IN, default=168h"`
	Issuer           string        `env:"JWT_ISSUER,             default=auth-service"`
}

type SecurityConfig struct {
	BcryptCost       int           `env:"BCRYPT_COST,        default=12"`
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS, default=5"`
	LockDuration     time.Duration `env:"LOCK_DURATION,      default=2h"`
	CookieSecure     bool          `env:"COOKIE_SECURE,      default=false"`
}

type RateLimitConfig struct {
	Limit  int           `env:"AUTH_RATE_LIMIT,  default=20"`
	Window time.Duration `env:"AUTH_RATE_WINDOW, default=15m"`
}

type MongoConfig struct {
	URI         string        `env:"MONGODB_URI,       default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,          default=user_auth"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,     default=10s"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL,    default=100"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Security.BcryptCost))
	}
	if c.Security.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("MAX_LOGIN_ATTEMPTS must be positive"))
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive"))
	}
	if _, err := c.TrustedProxyNets(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// TrustedProxyNets parses TRUSTED_PROXIES.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
