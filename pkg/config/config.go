package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Stripe       StripeConfig
	PostalAPI    PostalAPIConfig
	Shipping     ShippingConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HONMAEC_APP_ENV" required:"true"`
	Port         string `envconfig:"HONMAEC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HONMAEC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HONMAEC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HONMAEC_DB_DSN"`
	Driver string `envconfig:"HONMAEC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HONMAEC_DB_HOST"`
	LegacyPort     int    `envconfig:"HONMAEC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HONMAEC_DB_USER"`
	LegacyPassword string `envconfig:"HONMAEC_DB_PASSWORD"`
	LegacyName     string `envconfig:"HONMAEC_DB_NAME"`
	LegacySSLMode  string `envconfig:"HONMAEC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HONMAEC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HONMAEC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HONMAEC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HONMAEC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HONMAEC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HONMAEC_REDIS_ADDR"`
	Password     string        `envconfig:"HONMAEC_REDIS_PASSWORD"`
	DB           int           `envconfig:"HONMAEC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HONMAEC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HONMAEC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HONMAEC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HONMAEC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HONMAEC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig verifies access tokens minted by the hosted auth service. The API
// never issues tokens itself.
type AuthConfig struct {
	JWTSecret    string        `envconfig:"HONMAEC_AUTH_JWT_SECRET" required:"true"`
	Issuer       string        `envconfig:"HONMAEC_AUTH_ISSUER"`
	CheckTimeout time.Duration `envconfig:"HONMAEC_AUTH_CHECK_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"HONMAEC_STRIPE_API_KEY"`
	Secret   string `envconfig:"HONMAEC_STRIPE_WEBHOOK_SECRET"`
	Env      string `envconfig:"HONMAEC_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"HONMAEC_STRIPE_CURRENCY" default:"jpy"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PostalAPIConfig struct {
	BaseURL string        `envconfig:"HONMAEC_POSTAL_API_BASE_URL" default:"https://zipcloud.ibsnet.co.jp/api/search"`
	Timeout time.Duration `envconfig:"HONMAEC_POSTAL_API_TIMEOUT" default:"5s"`
}

// ShippingConfig carries the flat fallback fees applied when no shipping
// method can be resolved for a cart.
type ShippingConfig struct {
	FallbackStandardFee int `envconfig:"HONMAEC_SHIPPING_FALLBACK_STANDARD_FEE" default:"500"`
	FallbackExpressFee  int `envconfig:"HONMAEC_SHIPPING_FALLBACK_EXPRESS_FEE" default:"1000"`
}

type CartConfig struct {
	TTL       time.Duration `envconfig:"HONMAEC_CART_TTL" default:"720h"`
	IntentTTL time.Duration `envconfig:"HONMAEC_CART_INTENT_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HONMAEC_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
