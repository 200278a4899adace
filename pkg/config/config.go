package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHOPWALK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Merchant MerchantConfig
	Checkout CheckoutConfig
	Shipping ShippingConfig
	Square   SquareConfig
	Webhooks WebhooksConfig
	Signing  SigningConfig
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
	Env          string `envconfig:"SHOPWALK_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPWALK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPWALK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPWALK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPWALK_DB_DSN"`
	Driver string `envconfig:"SHOPWALK_DB_DRIVER" default:"postgres"`

	AutoMigrate bool `envconfig:"SHOPWALK_DB_AUTO_MIGRATE" default:"false"`

	Host     string `envconfig:"SHOPWALK_DB_HOST"`
	Port     int    `envconfig:"SHOPWALK_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPWALK_DB_USER"`
	Password string `envconfig:"SHOPWALK_DB_PASSWORD"`
	Name     string `envconfig:"SHOPWALK_DB_NAME"`
	SSLMode  string `envconfig:"SHOPWALK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPWALK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPWALK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPWALK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPWALK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; when URL is empty the replay-protection middleware
// is not mounted.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPWALK_REDIS_URL"`
	PoolSize     int           `envconfig:"SHOPWALK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPWALK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPWALK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPWALK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPWALK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type MerchantConfig struct {
	Name     string `envconfig:"SHOPWALK_MERCHANT_NAME" default:"Shopwalk Store"`
	Domain   string `envconfig:"SHOPWALK_MERCHANT_DOMAIN" default:"shopwalk.example"`
	BaseURL  string `envconfig:"SHOPWALK_MERCHANT_BASE_URL" default:"https://shopwalk.example"`
	Currency string `envconfig:"SHOPWALK_MERCHANT_CURRENCY" default:"USD"`
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"SHOPWALK_CHECKOUT_SESSION_TTL" default:"24h"`
}

type ShippingConfig struct {
	FlatRateCents          int    `envconfig:"SHOPWALK_SHIPPING_FLAT_RATE_CENTS" default:"500"`
	ExpeditedRateCents     int    `envconfig:"SHOPWALK_SHIPPING_EXPEDITED_RATE_CENTS" default:"1500"`
	FreeOverSubtotalCents  int    `envconfig:"SHOPWALK_SHIPPING_FREE_OVER_SUBTOTAL_CENTS" default:"0"`
	DomesticCountry        string `envconfig:"SHOPWALK_SHIPPING_DOMESTIC_COUNTRY" default:"US"`
	InternationalSurcharge int    `envconfig:"SHOPWALK_SHIPPING_INTL_SURCHARGE_CENTS" default:"1000"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"SHOPWALK_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"SHOPWALK_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"SHOPWALK_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// Configured reports whether charge credentials are present. When false the
// payment adapter reports a configuration-missing outcome instead of charging.
func (s SquareConfig) Configured() bool {
	return strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.LocationID) != ""
}

type WebhooksConfig struct {
	PlatformEndpoint string        `envconfig:"SHOPWALK_WEBHOOKS_PLATFORM_ENDPOINT"`
	DeliveryTimeout  time.Duration `envconfig:"SHOPWALK_WEBHOOKS_DELIVERY_TIMEOUT" default:"10s"`
}

type SigningConfig struct {
	// Ed25519Seed is the base64 (std) encoded 32-byte private key seed used to
	// sign current-dialect webhook payloads. Generated once per merchant.
	Ed25519Seed string `envconfig:"SHOPWALK_SIGNING_ED25519_SEED"`
	KeyID       string `envconfig:"SHOPWALK_SIGNING_KEY_ID" default:"shopwalk-webhook-1"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, pair := range []struct {
		env   string
		value string
	}{
		{"SHOPWALK_DB_HOST", db.Host},
		{"SHOPWALK_DB_USER", db.User},
		{"SHOPWALK_DB_NAME", db.Name},
	} {
		if pair.value == "" {
			missing = append(missing, pair.env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either SHOPWALK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
