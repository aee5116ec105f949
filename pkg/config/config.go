package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TABSPLIT"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "TABSPLIT_APP_ENV"
	EnvPort   = "TABSPLIT_APP_PORT"
	EnvDBDSN  = "TABSPLIT_DB_DSN"
	EnvDBHost = "TABSPLIT_DB_HOST"
	EnvDBUser = "TABSPLIT_DB_USER"
	EnvDBName = "TABSPLIT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Split        SplitConfig
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
	Env          string `envconfig:"TABSPLIT_APP_ENV" required:"true"`
	Port         string `envconfig:"TABSPLIT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TABSPLIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TABSPLIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TABSPLIT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TABSPLIT_DB_DSN"`
	Driver string `envconfig:"TABSPLIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABSPLIT_DB_HOST"`
	LegacyPort     int    `envconfig:"TABSPLIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABSPLIT_DB_USER"`
	LegacyPassword string `envconfig:"TABSPLIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABSPLIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABSPLIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABSPLIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABSPLIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABSPLIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABSPLIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TABSPLIT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TABSPLIT_REDIS_ADDR"`
	Password     string        `envconfig:"TABSPLIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABSPLIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABSPLIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABSPLIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABSPLIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABSPLIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABSPLIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SplitConfig tunes the split engine and its caches.
type SplitConfig struct {
	BackendBaseURL  string        `envconfig:"TABSPLIT_SPLIT_BACKEND_BASE_URL"`
	CacheTTL        time.Duration `envconfig:"TABSPLIT_SPLIT_CACHE_TTL" default:"15m"`
	WarmConcurrency int           `envconfig:"TABSPLIT_SPLIT_WARM_CONCURRENCY" default:"5"`
	WarmLookback    time.Duration `envconfig:"TABSPLIT_SPLIT_WARM_LOOKBACK" default:"720h"`
	WarmInterval    time.Duration `envconfig:"TABSPLIT_SPLIT_WARM_INTERVAL" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TABSPLIT_AUTO_MIGRATE" default:"false"`
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
