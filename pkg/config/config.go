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
	Gateway      GatewayConfig
	Sync         SyncConfig
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
	Env          string `envconfig:"SNACKDASH_APP_ENV" required:"true"`
	Port         string `envconfig:"SNACKDASH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SNACKDASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SNACKDASH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SNACKDASH_DB_DSN"`
	Driver string `envconfig:"SNACKDASH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SNACKDASH_DB_HOST"`
	LegacyPort     int    `envconfig:"SNACKDASH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SNACKDASH_DB_USER"`
	LegacyPassword string `envconfig:"SNACKDASH_DB_PASSWORD"`
	LegacyName     string `envconfig:"SNACKDASH_DB_NAME"`
	LegacySSLMode  string `envconfig:"SNACKDASH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SNACKDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SNACKDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SNACKDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SNACKDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SNACKDASH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SNACKDASH_REDIS_ADDR"`
	Password     string        `envconfig:"SNACKDASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"SNACKDASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SNACKDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SNACKDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SNACKDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SNACKDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SNACKDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GatewayConfig points the client core at the authoritative cart store.
type GatewayConfig struct {
	BaseURL        string        `envconfig:"SNACKDASH_GATEWAY_BASE_URL" default:"http://localhost:8080"`
	RequestTimeout time.Duration `envconfig:"SNACKDASH_GATEWAY_REQUEST_TIMEOUT" default:"10s"`
}

// SyncConfig tunes the reconciliation engine.
type SyncConfig struct {
	ReconcileTimeout time.Duration `envconfig:"SNACKDASH_SYNC_RECONCILE_TIMEOUT" default:"15s"`
	SignalBuffer     int           `envconfig:"SNACKDASH_SYNC_SIGNAL_BUFFER" default:"16"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SNACKDASH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SNACKDASH_AUTO_MIGRATE" default:"false"`
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
