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
	MercadoPago  MercadoPagoConfig
	URLs         URLConfig
	Billing      BillingConfig
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
	Env          string `envconfig:"CLUBFEES_APP_ENV" required:"true"`
	Port         string `envconfig:"CLUBFEES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLUBFEES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLUBFEES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLUBFEES_DB_DSN"`
	Driver string `envconfig:"CLUBFEES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLUBFEES_DB_HOST"`
	LegacyPort     int    `envconfig:"CLUBFEES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLUBFEES_DB_USER"`
	LegacyPassword string `envconfig:"CLUBFEES_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLUBFEES_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLUBFEES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLUBFEES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLUBFEES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLUBFEES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLUBFEES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLUBFEES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLUBFEES_REDIS_ADDR"`
	Password     string        `envconfig:"CLUBFEES_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLUBFEES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLUBFEES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLUBFEES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLUBFEES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLUBFEES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLUBFEES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type MercadoPagoConfig struct {
	AccessToken     string        `envconfig:"CLUBFEES_MP_ACCESS_TOKEN" required:"true"`
	Env             string        `envconfig:"CLUBFEES_MP_ENV" default:"sandbox"`
	WebhookEventTTL time.Duration `envconfig:"CLUBFEES_MP_WEBHOOK_EVENT_TTL" default:"72h"`
	RequestTimeout  time.Duration `envconfig:"CLUBFEES_MP_REQUEST_TIMEOUT" default:"10s"`
}

// Environment returns the normalized MercadoPago environment (sandbox/production).
func (m MercadoPagoConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type URLConfig struct {
	FrontendBase string `envconfig:"CLUBFEES_FRONTEND_URL" required:"true"`
	BackendBase  string `envconfig:"CLUBFEES_BACKEND_URL" required:"true"`
}

type BillingConfig struct {
	Currency string `envconfig:"CLUBFEES_CURRENCY" default:"CLP"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CLUBFEES_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CLUBFEES_AUTO_MIGRATE" default:"false"`
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
