package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; .env files are loaded into the process
// environment by the command before Load runs.
type Config struct {
	Env      string `mapstructure:"APP_ENV"`   // application environment (dev, test, prod)
	Port     string `mapstructure:"APP_PORT"`  // HTTP port to listen on
	LogLevel string `mapstructure:"LOG_LEVEL"` // zerolog level name

	DBDriver    string `mapstructure:"DB_DRIVER"`    // mysql or postgres
	DBUser      string `mapstructure:"DB_USER"`      // database username
	DBPass      string `mapstructure:"DB_PASS"`      // database password (optional)
	DBHost      string `mapstructure:"DB_HOST"`      // database host address
	DBPort      string `mapstructure:"DB_PORT"`      // database port number
	DBName      string `mapstructure:"DB_NAME"`      // database name
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`   // postgres sslmode
	DatabaseURL string `mapstructure:"DATABASE_URL"` // full DSN; wins over the parts when set

	JWTSecret    string `mapstructure:"JWT_SECRET"`           // secret used to sign JWTs
	AccessTTLMin int    `mapstructure:"ACCESS_TOKEN_TTL_MIN"` // access token time-to-live in minutes
	BcryptCost   int    `mapstructure:"BCRYPT_COST"`          // bcrypt cost for password hashing

	UploadDir   string `mapstructure:"UPLOAD_DIR"`    // root directory for lab result files
	MaxUploadMB int    `mapstructure:"MAX_UPLOAD_MB"` // request body limit for uploads
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`  // comma separated allow-list

	RabbitURL       string `mapstructure:"RABBITMQ_URL"`     // empty disables event publishing
	EventsQueue     string `mapstructure:"EVENTS_QUEUE"`     // queue receiving clinic events
	ReminderCron    string `mapstructure:"REMINDER_CRON"`    // cron spec for reminder job
	ReminderEnabled bool   `mapstructure:"REMINDER_ENABLED"` // run reminder job inside serve

	SentryDSN string `mapstructure:"SENTRY_DSN"` // empty disables error reporting

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`    // seed-admin account email
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"` // seed-admin account password

	Redis     RedisConfig     `mapstructure:"-"`
	Cache     CacheConfig     `mapstructure:"-"`
	RateLimit RateLimitConfig `mapstructure:"-"`
}

var keys = []string{
	"APP_ENV", "APP_PORT", "LOG_LEVEL",
	"DB_DRIVER", "DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE", "DATABASE_URL",
	"JWT_SECRET", "ACCESS_TOKEN_TTL_MIN", "BCRYPT_COST",
	"UPLOAD_DIR", "MAX_UPLOAD_MB", "CORS_ORIGINS",
	"RABBITMQ_URL", "EVENTS_QUEUE", "REMINDER_CRON", "REMINDER_ENABLED",
	"SENTRY_DSN", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

// Load reads configuration values from the environment and returns a
// Config with defaults applied.  Load does not enforce required values;
// call Validate for the serve path.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_PORT", "3001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_NAME", "clinic")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("EVENTS_QUEUE", "clinic.events")
	v.SetDefault("REMINDER_CRON", "@hourly")
	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("ADMIN_EMAIL", "admin@clinic.com")

	// Bind explicitly so Unmarshal sees variables without defaults.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.Redis = loadRedisConfig(v)
	cfg.Cache = loadCacheConfig(v)
	cfg.RateLimit = loadRateLimitConfig(v)
	return cfg, nil
}

// Validate checks the values the HTTP server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", c.DBDriver))
	}
	if c.DatabaseURL == "" && c.DBName == "" {
		errs = append(errs, errors.New("DB_NAME or DATABASE_URL is required"))
	}
	return errors.Join(errs...)
}

// AccessTTL returns the access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	if c.AccessTTLMin <= 0 {
		return time.Hour
	}
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	e := strings.ToLower(c.Env)
	return e == "prod" || e == "production"
}

// AllowedOrigins splits CORS_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
