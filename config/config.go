package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Balance sources selectable with fetch.source.
const (
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceFake     = "fake"
)

// scheduleParser accepts the same six-field schedules as the refresh scheduler.
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// FetchConfig selects and tunes the balance source.
type FetchConfig struct {
	Source         string        `mapstructure:"source"`     // postgres, sqlite, fake
	AccountID      string        `mapstructure:"account_id"` // wallet UUID read by the database sources
	Timeout        time.Duration `mapstructure:"timeout"`
	RefreshOnStart bool          `mapstructure:"refresh_on_start"`
	Schedule       string        `mapstructure:"schedule"` // cron spec with seconds; empty disables
	FakeDelay      time.Duration `mapstructure:"fake_delay"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
}

// PublishConfig controls the Redis snapshot publisher.
type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
	Buffer  int    `mapstructure:"buffer"`
}

// TracingConfig enables OTLP/HTTP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"` // e.g. http://localhost:4318
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BAL_.
// Nested keys use underscore: BAL_DATABASE_HOST, BAL_FETCH_SOURCE, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "balances")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("fetch.source", SourceFake)
	v.SetDefault("fetch.account_id", "")
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.refresh_on_start", true)
	v.SetDefault("fetch.schedule", "")
	v.SetDefault("fetch.fake_delay", "1s")
	v.SetDefault("fetch.sqlite_path", "balances.db")
	v.SetDefault("publish.enabled", false)
	v.SetDefault("publish.channel", "balance:state")
	v.SetDefault("publish.buffer", 64)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "balance-monitor")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: BAL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("BAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Fetch.Source {
	case SourceFake:
	case SourcePostgres, SourceSQLite:
		if _, err := uuid.Parse(c.Fetch.AccountID); err != nil {
			return fmt.Errorf("fetch.account_id must be a UUID when fetch.source is %q: %w", c.Fetch.Source, err)
		}
		if c.Fetch.Source == SourceSQLite && strings.TrimSpace(c.Fetch.SQLitePath) == "" {
			return fmt.Errorf("fetch.sqlite_path is required when fetch.source is %q", SourceSQLite)
		}
	default:
		return fmt.Errorf("unknown fetch.source %q (want %q, %q or %q)", c.Fetch.Source, SourcePostgres, SourceSQLite, SourceFake)
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.Schedule != "" {
		if _, err := scheduleParser.Parse(c.Fetch.Schedule); err != nil {
			return fmt.Errorf("fetch.schedule %q: %w", c.Fetch.Schedule, err)
		}
	}
	if c.Fetch.FakeDelay < 0 {
		return fmt.Errorf("fetch.fake_delay must not be negative, got %s", c.Fetch.FakeDelay)
	}
	if c.Publish.Enabled {
		if c.Publish.Channel == "" {
			return fmt.Errorf("publish.channel is required when publishing is enabled")
		}
		if c.Publish.Buffer <= 0 {
			return fmt.Errorf("publish.buffer must be positive, got %d", c.Publish.Buffer)
		}
	}
	return nil
}
