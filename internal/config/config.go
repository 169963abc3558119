package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every value the console reads from its environment.
// Only this struct must be used to hold configuration values; no direct
// access to env or any other config source should be made.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=campaign_console"`
	AppDebug            bool   `env:"APP_DEBUG,default=true"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=15s"`
	HttpAllowedOrigin  string        `env:"HTTP_ALLOWED_ORIGIN,default=*"`

	// remote campaign API
	GatewayBaseURL         string        `env:"GATEWAY_BASE_URL,default=http://localhost:8081"`
	GatewayToken           string        `env:"GATEWAY_TOKEN"`
	GatewayAPIKey          string        `env:"GATEWAY_API_KEY"`
	GatewayTimeout         time.Duration `env:"GATEWAY_TIMEOUT,default=10s"`
	GatewayMaxConns        int           `env:"GATEWAY_MAX_CONNS,default=64"`
	GatewayReadBufferSize  int           `env:"GATEWAY_READ_BUFFER_SIZE,default=16384"`
	GatewayWriteBufferSize int           `env:"GATEWAY_WRITE_BUFFER_SIZE,default=8192"`

	JournalDriver     string `env:"JOURNAL_DRIVER,default=sqlite"`
	JournalSqlitePath string `env:"JOURNAL_SQLITE_PATH,default=console_journal.db"`
	JournalWorkers    int    `env:"JOURNAL_WORKERS,default=2"`
	JournalBuffer     int    `env:"JOURNAL_BUFFER,default=256"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	// empty RedisAddr keeps sessions in memory and disables the action lock
	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=console:"`

	SessionID     string        `env:"SESSION_ID,default=default"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=720h"`
	ActionLockTTL time.Duration `env:"ACTION_LOCK_TTL,default=30s"`

	PromNamespace string `env:"PROM_NAMESPACE,default=console"`

	LogLevel string `env:"LOG_LEVEL"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if err = c.validate(); err != nil {
		return err
	}

	if c.LogLevel != "" {
		logger.SetLevel(c.LogLevel)
	}

	config = c
	return nil
}

func (c *Config) validate() error {
	if c.GatewayBaseURL == "" {
		return errors.New("GATEWAY_BASE_URL is required")
	}
	switch c.JournalDriver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("JOURNAL_DRIVER must be sqlite or postgres, got %q", c.JournalDriver)
	}
	if c.GatewayTimeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

// Set installs an already built config, used by tests and embedded callers.
func Set(c *Config) {
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
