package config

import (
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rosadoagency/appointment-api/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

const (
	NotifierDriverLog  = "log"
	NotifierDriverHTTP = "http"
)

var config *Config

// Config holds every configuration value of the api and the cli. Only this
// struct is used to read configuration, no direct access to env or any other
// config source should be made elsewhere.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"appointment_api"`
	AppTimezone         string `env:"APP_TIMEZONE" default:"America/Chicago"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI" default:"/metrics"`

	HttpListenAddr      string        `env:"HTTP_LISTEN_ADDR" default:":5000"`
	HttpBaseRequestUrl  string        `env:"HTTP_BASE_REQUEST_URI" default:"/api"`
	HttpRequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" default:"10s"`
	HttpCorsAllowOrigin string        `env:"HTTP_CORS_ALLOW_ORIGIN" default:"*"`
	HttpShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT" default:"5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST" default:"localhost"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT" default:"5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER" default:"postgres"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME" default:"appointments"`
	PostgresSSLMode       string `env:"POSTGRES_SSLMODE" default:"disable"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX" default:"appointments:"`

	PromNamespace string `env:"PROM_NAMESPACE" default:"rosado"`

	ReminderEnabled  bool          `env:"REMINDER_ENABLED" default:"true"`
	ReminderCron     string        `env:"REMINDER_CRON" default:"0 9 * * *"`
	SweepConcurrency int           `env:"SWEEP_CONCURRENCY" default:"1"`
	SweepTimeout     time.Duration `env:"SWEEP_TIMEOUT" default:"5m"`
	DispatchLockTTL  time.Duration `env:"DISPATCH_LOCK_TTL" default:"30s"`

	NotifierDriver      string        `env:"NOTIFIER_DRIVER" default:"log"`
	NotifierTimeout     time.Duration `env:"NOTIFIER_TIMEOUT" default:"5s"`
	NotifierProviderUrl string        `env:"NOTIFIER_PROVIDER_URL"`
	NotifierFallbackUrl string        `env:"NOTIFIER_FALLBACK_URL"`
	NotifierEmailFrom   string        `env:"NOTIFIER_EMAIL_FROM" default:"appointments@rosadoagency.com"`

	AgencyName  string `env:"AGENCY_NAME" default:"Rosado Agency"`
	AgencyPhone string `env:"AGENCY_PHONE" default:"(254) 548-4815"`
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

	if err = c.Validate(); err != nil {
		return err
	}

	config = c
	return nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return errors.Wrapf(err, "invalid APP_TIMEZONE %q", c.AppTimezone)
	}
	switch strings.ToLower(c.NotifierDriver) {
	case NotifierDriverLog:
	case NotifierDriverHTTP:
		if c.NotifierProviderUrl == "" {
			return errors.New("NOTIFIER_PROVIDER_URL is required when NOTIFIER_DRIVER=http")
		}
	default:
		return errors.Errorf("unknown NOTIFIER_DRIVER %q", c.NotifierDriver)
	}
	if c.SweepConcurrency < 1 {
		return errors.Errorf("SWEEP_CONCURRENCY must be at least 1, got %d", c.SweepConcurrency)
	}
	if c.NotifierTimeout <= 0 {
		return errors.New("NOTIFIER_TIMEOUT must be positive")
	}
	// a dispatch sends both channels in turn while holding the lock
	if c.DispatchLockTTL <= 2*c.NotifierTimeout {
		return errors.Errorf("DISPATCH_LOCK_TTL (%s) must be longer than twice NOTIFIER_TIMEOUT (%s)", c.DispatchLockTTL, c.NotifierTimeout)
	}
	return nil
}

// Location returns the agency time zone used for "today" and for
// formatting reminder times. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded configuration, used by tests and tools.
func Set(c *Config) {
	config = c
}
