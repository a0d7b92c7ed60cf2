// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Osmose    OsmoseConfig    `mapstructure:"osmose"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Badges    []BadgeConfig   `mapstructure:"badges"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Environment     string `mapstructure:"environment"`
	BaseURL         string `mapstructure:"base_url"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// DSN builds the libpq style connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL builds the postgres:// form used by psql and imposm in the generated pipeline.
func (c *PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// OsmoseConfig contains settings of the Osmose quality-assurance API client.
type OsmoseConfig struct {
	URL       string `mapstructure:"url"`
	StatsPath string `mapstructure:"stats_path"`
	Timeout   int    `mapstructure:"timeout"` // seconds, per HTTP call
	// Circuit breaker: opens after this many consecutive failures, half-opens after BreakerTimeout seconds.
	BreakerFailures int `mapstructure:"breaker_failures"`
	BreakerTimeout  int `mapstructure:"breaker_timeout"`
}

// StatsConfig contains statistics aggregation settings.
type StatsConfig struct {
	FetchTimeout int `mapstructure:"fetch_timeout"` // seconds, per fetch
}

// FetchTimeoutDuration returns the per-fetch timeout.
func (c *StatsConfig) FetchTimeoutDuration() time.Duration {
	if c.FetchTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.FetchTimeout) * time.Second
}

// RegistryConfig points at the directory holding project definition files.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// AssetsConfig contains locations of files served by the static and document routes.
type AssetsConfig struct {
	StaticDir  string `mapstructure:"static_dir"`
	ModulesDir string `mapstructure:"modules_dir"`
	DocsDir    string `mapstructure:"docs_dir"`
}

// GeneratorConfig contains settings of the offline schema/import generator.
type GeneratorConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	WorkDir        string `mapstructure:"work_dir"`
	ExtractURL     string `mapstructure:"extract_url"`
	ReplicationURL string `mapstructure:"replication_url"`
	BoundaryFile   string `mapstructure:"boundary_file"`
}

// SchedulerConfig contains the periodic import job settings.
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Schedule      string `mapstructure:"schedule"` // cron expression, takes precedence over Time
	Time          string `mapstructure:"time"`     // HH:MM daily
	Timezone      string `mapstructure:"timezone"`
	ScriptPath    string `mapstructure:"script_path"`
	ScriptTimeout int    `mapstructure:"script_timeout"` // seconds
}

// GetLocation returns the timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// BadgeConfig describes a meta badge, computed by the database across all projects.
type BadgeConfig struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Icon        string `mapstructure:"icon"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "production")
	v.SetDefault("server.shutdown_timeout", 15)
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 10)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("osmose.url", "https://osmose.openstreetmap.fr")
	v.SetDefault("osmose.stats_path", "/api/0.3/issues/stats")
	v.SetDefault("osmose.timeout", 10)
	v.SetDefault("osmose.breaker_failures", 5)
	v.SetDefault("osmose.breaker_timeout", 60)
	v.SetDefault("stats.fetch_timeout", 10)
	v.SetDefault("registry.path", "./projects")
	v.SetDefault("assets.static_dir", "./web/static")
	v.SetDefault("assets.modules_dir", "./node_modules")
	v.SetDefault("assets.docs_dir", ".")
	v.SetDefault("generator.output_dir", "./db/generated")
	v.SetDefault("generator.work_dir", "/var/lib/campaign-dashboard")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.script_timeout", 3600)
	v.SetDefault("metrics.prometheus.port", 9090)
	v.SetDefault("metrics.prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/campaign-dashboard/")
	}

	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")
	_ = v.BindEnv("server.base_url", "SERVER_BASE_URL")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Osmose and statistics
	_ = v.BindEnv("osmose.url", "OSMOSE_URL")
	_ = v.BindEnv("osmose.timeout", "OSMOSE_TIMEOUT")
	_ = v.BindEnv("stats.fetch_timeout", "STATS_FETCH_TIMEOUT")

	// Registry and assets
	_ = v.BindEnv("registry.path", "REGISTRY_PATH")
	_ = v.BindEnv("assets.static_dir", "ASSETS_STATIC_DIR")
	_ = v.BindEnv("assets.modules_dir", "ASSETS_MODULES_DIR")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.schedule", "SCHEDULER_SCHEDULE")
	_ = v.BindEnv("scheduler.time", "SCHEDULER_TIME")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")
	_ = v.BindEnv("scheduler.script_path", "SCHEDULER_SCRIPT_PATH")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Registry.Path == "" {
		return fmt.Errorf("registry.path is required")
	}
	if c.Osmose.URL == "" {
		return fmt.Errorf("osmose.url is required")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.ScriptPath == "" {
			return fmt.Errorf("scheduler.script_path is required when the scheduler is enabled")
		}
		if c.Scheduler.Schedule == "" && c.Scheduler.Time == "" {
			return fmt.Errorf("scheduler.schedule or scheduler.time is required when the scheduler is enabled")
		}
	}

	seen := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		if b.ID == "" {
			return fmt.Errorf("badges: id is required")
		}
		if seen[b.ID] {
			return fmt.Errorf("badges: duplicate id %q", b.ID)
		}
		seen[b.ID] = true
	}

	return nil
}
