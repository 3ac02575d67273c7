package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Google    GoogleConfig    `mapstructure:"google"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// GoogleConfig configures the Maps Platform clients used as travel-time
// oracle and venue search. With an empty APIKey the services fall back to
// the haversine estimator and skip venue lookups.
type GoogleConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	DistanceMatrixURL string  `mapstructure:"distance_matrix_url"`
	PlacesURL         string  `mapstructure:"places_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RatePerSecond     float64 `mapstructure:"rate_per_second"`
	Burst             int     `mapstructure:"burst"`
	BreakerFailures   int     `mapstructure:"breaker_failures"`
	BreakerTimeout    int     `mapstructure:"breaker_timeout_seconds"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds"`
}

type OptimizerConfig struct {
	MaxIterations     int     `mapstructure:"max_iterations"`
	ConvergenceMeters float64 `mapstructure:"convergence_meters"`
	InitialStep       float64 `mapstructure:"initial_step"`
	StepDecay         float64 `mapstructure:"step_decay"`
	MinWeightMinutes  float64 `mapstructure:"min_weight_minutes"`
	Concurrency       int     `mapstructure:"concurrency"`
}

type VenuesConfig struct {
	RadiusMeters    float64 `mapstructure:"radius_meters"`
	Limit           int     `mapstructure:"limit"`
	DefaultCategory string  `mapstructure:"default_category"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl_seconds"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SQUADUP_DATABASE_HOST → database.host
	v.SetEnvPrefix("SQUADUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:8081")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "squadup")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "squadup")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "meeting-points")
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.distance_matrix_url", "https://maps.googleapis.com/maps/api/distancematrix/json")
	v.SetDefault("google.places_url", "https://maps.googleapis.com/maps/api/place/nearbysearch/json")
	v.SetDefault("google.timeout_seconds", 5)
	v.SetDefault("google.max_retries", 2)
	v.SetDefault("google.rate_per_second", 10)
	v.SetDefault("google.burst", 20)
	v.SetDefault("google.breaker_failures", 5)
	v.SetDefault("google.breaker_timeout_seconds", 30)
	v.SetDefault("google.cache_ttl_seconds", 600)
	v.SetDefault("optimizer.max_iterations", 10)
	v.SetDefault("optimizer.convergence_meters", 10.0)
	v.SetDefault("optimizer.initial_step", 0.5)
	v.SetDefault("optimizer.step_decay", 0.6)
	v.SetDefault("optimizer.min_weight_minutes", 1.0)
	v.SetDefault("optimizer.concurrency", 8)
	v.SetDefault("venues.radius_meters", 1500.0)
	v.SetDefault("venues.limit", 10)
	v.SetDefault("venues.default_category", "cafe")
	v.SetDefault("venues.cache_ttl_seconds", 900)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if c.Google.TimeoutSeconds <= 0 {
		errs = append(errs, "google.timeout_seconds must be positive")
	}
	if c.Google.RatePerSecond <= 0 {
		errs = append(errs, "google.rate_per_second must be positive")
	}
	if c.Optimizer.MaxIterations <= 0 {
		errs = append(errs, fmt.Sprintf("optimizer.max_iterations must be positive, got %d", c.Optimizer.MaxIterations))
	}
	if c.Optimizer.ConvergenceMeters <= 0 {
		errs = append(errs, "optimizer.convergence_meters must be positive")
	}
	if c.Optimizer.InitialStep <= 0 || c.Optimizer.InitialStep > 1 {
		errs = append(errs, fmt.Sprintf("optimizer.initial_step must be in (0, 1], got %g", c.Optimizer.InitialStep))
	}
	if c.Optimizer.StepDecay <= 0 || c.Optimizer.StepDecay > 1 {
		errs = append(errs, fmt.Sprintf("optimizer.step_decay must be in (0, 1], got %g", c.Optimizer.StepDecay))
	}
	if c.Venues.Limit <= 0 {
		errs = append(errs, "venues.limit must be positive")
	}
	if c.Venues.RadiusMeters <= 0 {
		errs = append(errs, "venues.radius_meters must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
