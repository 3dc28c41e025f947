package config

import (
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/middleware"
	"crowdpulse-api/internal/model"
)

type Config struct {
	AppEnv             string        `envconfig:"APP_ENV" default:"development"`
	ServerPort         string        `envconfig:"PORT" default:"8080"`
	ServerReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	ServerWriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"90s"`
	ServerIdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	JWTSecret           string `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessExpiresIn  string `envconfig:"JWT_ACCESS_EXPIRES_IN" default:"15m"`
	JWTRefreshExpiresIn string `envconfig:"JWT_REFRESH_EXPIRES_IN" default:"7d"`
	BcryptCost          int    `envconfig:"BCRYPT_COST" default:"10"`

	CookieSameSite string `envconfig:"COOKIE_SAME_SITE"`
	CookieSecure   string `envconfig:"COOKIE_SECURE"`
	CookieDomain   string `envconfig:"COOKIE_DOMAIN"`

	CORSOrigins         []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimitRPM        int      `envconfig:"RATE_LIMIT_RPM" default:"100"`
	AuthRateLimitRPM    int      `envconfig:"AUTH_RATE_LIMIT_RPM" default:"10"`
	AnalyzeRateLimitRPM int      `envconfig:"ANALYZE_RATE_LIMIT_RPM" default:"5"`
	TrustedProxies      []string `envconfig:"TRUSTED_PROXIES"`

	DefaultAdminEmail     string `envconfig:"DEFAULT_ADMIN_EMAIL"`
	DefaultAdminPassword  string `envconfig:"DEFAULT_ADMIN_PASSWORD"`
	DefaultAdminFirstName string `envconfig:"DEFAULT_ADMIN_FIRST_NAME" default:"Admin"`
	DefaultAdminLastName  string `envconfig:"DEFAULT_ADMIN_LAST_NAME" default:"User"`

	AgentURL            string        `envconfig:"AGENT_URL"`
	AgentPrivateKeyPath string        `envconfig:"AGENT_AUTHENTICATION_PRIVATE_KEY_PATH"`
	AgentTokenIssuer    string        `envconfig:"AGENT_TOKEN_ISSUER" default:"crowdpulse-api"`
	AgentTokenAudience  string        `envconfig:"AGENT_TOKEN_AUDIENCE" default:"analysis-agent"`
	AgentTimeout        time.Duration `envconfig:"AGENT_TIMEOUT" default:"60s"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	TopicSchedulerInterval time.Duration `envconfig:"TOPIC_SCHEDULER_INTERVAL" default:"60s"`
	TokenCleanupInterval   time.Duration `envconfig:"TOKEN_CLEANUP_INTERVAL" default:"1h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Derived in Load.
	JWTAccessTTL      time.Duration     `ignored:"true"`
	JWTRefreshTTL     time.Duration     `ignored:"true"`
	CookiePolicy      auth.CookiePolicy `ignored:"true"`
	TrustedProxyCIDRs []netip.Prefix    `ignored:"true"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.derive(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c != nil && strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func (c *Config) AgentEnabled() bool {
	return strings.TrimSpace(c.AgentURL) != "" && strings.TrimSpace(c.AgentPrivateKeyPath) != ""
}

func (c *Config) DefaultAdmin() model.DefaultAdmin {
	return model.DefaultAdmin{
		Email:     c.DefaultAdminEmail,
		Password:  c.DefaultAdminPassword,
		FirstName: c.DefaultAdminFirstName,
		LastName:  c.DefaultAdminLastName,
	}
}

func (c *Config) derive() error {
	accessTTL, err := auth.ParseTTL(c.JWTAccessExpiresIn)
	if err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRES_IN: %w", err)
	}
	c.JWTAccessTTL = accessTTL

	refreshTTL, err := auth.ParseTTL(c.JWTRefreshExpiresIn)
	if err != nil {
		return fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	c.JWTRefreshTTL = refreshTTL

	policy := auth.CookiePolicy{
		Secure:   c.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(c.CookieDomain),
	}
	if c.IsProduction() {
		policy.SameSite = http.SameSiteNoneMode
	}

	if raw := strings.TrimSpace(c.CookieSameSite); raw != "" {
		sameSite, err := auth.ParseSameSite(raw)
		if err != nil {
			return fmt.Errorf("COOKIE_SAME_SITE: %w", err)
		}
		policy.SameSite = sameSite
	}

	if raw := strings.TrimSpace(c.CookieSecure); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE must be true or false, got %q", raw)
		}
		policy.Secure = secure
	}

	c.CookiePolicy = policy

	proxies, err := middleware.ParseTrustedProxies(c.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	c.TrustedProxyCIDRs = proxies

	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	if c.RateLimitRPM <= 0 || c.AuthRateLimitRPM <= 0 || c.AnalyzeRateLimitRPM <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if c.TopicSchedulerInterval <= 0 {
		return fmt.Errorf("TOPIC_SCHEDULER_INTERVAL must be positive")
	}

	if c.TokenCleanupInterval <= 0 {
		return fmt.Errorf("TOKEN_CLEANUP_INTERVAL must be positive")
	}

	// Browsers drop SameSite=None cookies that are not Secure.
	if c.CookiePolicy.SameSite == http.SameSiteNoneMode && !c.CookiePolicy.Secure {
		return fmt.Errorf("COOKIE_SAME_SITE=None requires COOKIE_SECURE=true")
	}

	switch strings.ToLower(c.LogFormat) {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}
