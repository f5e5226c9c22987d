package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Diskv      DiskvConfig      `mapstructure:"diskv"`
	Store      StoreConfig      `mapstructure:"store"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Platform   PlatformConfig   `mapstructure:"platform"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Security   SecurityConfig   `mapstructure:"security"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Storage backends for the persistence adapter.
const (
	BackendMemory   = "memory"
	BackendDiskv    = "diskv"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// StorageConfig selects the durable key/value backend
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds SQL database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	ConnectRetries int    `mapstructure:"connect_retries"`
}

// DiskvConfig holds the file-backed key/value store configuration
type DiskvConfig struct {
	BasePath     string `mapstructure:"base_path"`
	CacheSizeMax uint64 `mapstructure:"cache_size_max"`
}

// StoreConfig holds entity store configuration
type StoreConfig struct {
	Latency time.Duration `mapstructure:"latency"`
}

// SchedulingConfig holds scheduling policy
type SchedulingConfig struct {
	AllowPast bool `mapstructure:"allow_past"`
}

// DispatcherConfig holds the scheduled-post sender configuration
type DispatcherConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	Workers        int           `mapstructure:"workers"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MediaDir       string        `mapstructure:"media_dir"`
}

// PlatformConfig holds the remote platform client configuration
type PlatformConfig struct {
	Mode        string        `mapstructure:"mode"`
	BaseURL     string        `mapstructure:"base_url"`
	AccessToken string        `mapstructure:"access_token"`
	SuccessRate float64       `mapstructure:"success_rate"`
	Latency     time.Duration `mapstructure:"latency"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Burst       int           `mapstructure:"burst"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from the environment and defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration, reading path first when it is not empty
func LoadFile(path string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()
	bindEnvVars()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Console logs while developing, JSON everywhere else
	if cfg.Logger.Format == "" {
		if cfg.App.IsDevelopment() {
			cfg.Logger.Format = "console"
		} else {
			cfg.Logger.Format = "json"
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "SocialDesk")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Storage defaults
	viper.SetDefault("storage.backend", BackendDiskv)

	// Database defaults
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "socialdesk")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.sqlite_path", "socialdesk.db")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.conn_max_idle_time", "30s")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.connect_retries", 5)

	// Diskv defaults
	viper.SetDefault("diskv.base_path", "data")
	viper.SetDefault("diskv.cache_size_max", 1024*1024)

	// Store defaults
	viper.SetDefault("store.latency", "0s")

	// Scheduling defaults
	viper.SetDefault("scheduling.allow_past", false)

	// Dispatcher defaults
	viper.SetDefault("dispatcher.enabled", true)
	viper.SetDefault("dispatcher.interval", "30s")
	viper.SetDefault("dispatcher.send_timeout", "10s")
	viper.SetDefault("dispatcher.max_attempts", 3)
	viper.SetDefault("dispatcher.workers", 4)
	viper.SetDefault("dispatcher.initial_backoff", "1s")
	viper.SetDefault("dispatcher.media_dir", "media")

	// Platform defaults
	viper.SetDefault("platform.mode", "simulated")
	viper.SetDefault("platform.base_url", "https://inflow-schedulers.onrender.com/fb")
	viper.SetDefault("platform.access_token", "")
	viper.SetDefault("platform.success_rate", 0.9)
	viper.SetDefault("platform.latency", "500ms")
	viper.SetDefault("platform.rate_limit", 5)
	viper.SetDefault("platform.burst", 5)
	viper.SetDefault("platform.timeout", "15s")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.filename", "")

	// Security defaults
	viper.SetDefault("security.cors_allowed_origins", "*")
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
}

func bindEnvVars() {
	// App
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.version", "APP_VERSION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("app.debug", "APP_DEBUG")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	viper.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")

	// Storage
	viper.BindEnv("storage.backend", "STORAGE_BACKEND")

	// Database
	viper.BindEnv("database.driver", "DB_DRIVER")
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	viper.BindEnv("database.sqlite_path", "DB_SQLITE_PATH")
	viper.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	viper.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	viper.BindEnv("database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("redis.connect_retries", "REDIS_CONNECT_RETRIES")

	// Diskv
	viper.BindEnv("diskv.base_path", "DISKV_BASE_PATH")
	viper.BindEnv("diskv.cache_size_max", "DISKV_CACHE_SIZE_MAX")

	// Store
	viper.BindEnv("store.latency", "STORE_LATENCY")

	// Scheduling
	viper.BindEnv("scheduling.allow_past", "SCHEDULING_ALLOW_PAST")

	// Dispatcher
	viper.BindEnv("dispatcher.enabled", "DISPATCHER_ENABLED")
	viper.BindEnv("dispatcher.interval", "DISPATCHER_INTERVAL")
	viper.BindEnv("dispatcher.send_timeout", "DISPATCHER_SEND_TIMEOUT")
	viper.BindEnv("dispatcher.max_attempts", "DISPATCHER_MAX_ATTEMPTS")
	viper.BindEnv("dispatcher.workers", "DISPATCHER_WORKERS")
	viper.BindEnv("dispatcher.initial_backoff", "DISPATCHER_INITIAL_BACKOFF")
	viper.BindEnv("dispatcher.media_dir", "DISPATCHER_MEDIA_DIR")

	// Platform
	viper.BindEnv("platform.mode", "PLATFORM_MODE")
	viper.BindEnv("platform.base_url", "PLATFORM_BASE_URL")
	viper.BindEnv("platform.access_token", "PLATFORM_ACCESS_TOKEN")
	viper.BindEnv("platform.success_rate", "PLATFORM_SUCCESS_RATE")
	viper.BindEnv("platform.latency", "PLATFORM_LATENCY")
	viper.BindEnv("platform.rate_limit", "PLATFORM_RATE_LIMIT")
	viper.BindEnv("platform.burst", "PLATFORM_BURST")
	viper.BindEnv("platform.timeout", "PLATFORM_TIMEOUT")

	// Logger
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
	viper.BindEnv("logger.output", "LOG_OUTPUT")
	viper.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	viper.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	viper.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	viper.BindEnv("metrics.enabled", "ENABLE_METRICS")
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Backend {
	case BackendMemory, BackendDiskv, BackendRedis:
	case BackendPostgres, BackendSQLite:
		cfg.Database.Driver = cfg.Storage.Backend
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Backend == BackendPostgres && (cfg.Database.Host == "" || cfg.Database.Name == "") {
		return fmt.Errorf("database host and name are required for the postgres backend")
	}

	if cfg.Storage.Backend == BackendSQLite && cfg.Database.SQLitePath == "" {
		return fmt.Errorf("database sqlite_path is required for the sqlite backend")
	}

	if cfg.Storage.Backend == BackendDiskv && cfg.Diskv.BasePath == "" {
		return fmt.Errorf("diskv base_path is required for the diskv backend")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Store.Latency < 0 {
		return fmt.Errorf("store latency must not be negative")
	}

	if cfg.Dispatcher.Enabled && cfg.Dispatcher.Interval <= 0 {
		return fmt.Errorf("dispatcher interval must be positive")
	}

	if cfg.Dispatcher.MaxAttempts < 1 {
		return fmt.Errorf("dispatcher max_attempts must be at least 1")
	}

	switch cfg.Platform.Mode {
	case "simulated", "http":
	default:
		return fmt.Errorf("unknown platform mode %q", cfg.Platform.Mode)
	}

	if cfg.Platform.SuccessRate < 0 || cfg.Platform.SuccessRate > 1 {
		return fmt.Errorf("platform success_rate must be between 0 and 1")
	}

	return nil
}

// GetDSN returns the database connection string for the configured driver
func (cfg *DatabaseConfig) GetDSN() string {
	if cfg.Driver == BackendSQLite {
		return cfg.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}

// GetAddr returns the HTTP listen address
func (cfg *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
