// internal/pkg/config/config.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Asynq
	Asynq AsynqConfig

	// AWS
	AWS AWSConfig

	// Object storage for generated files
	Storage StorageConfig

	// Movement exports
	Export ExportConfig

	// Ledger maintenance
	Ledger LedgerConfig

	// Security
	Security SecurityConfig

	// Server
	Server ServerConfig

	// Secrets overlay
	Secrets SecretsConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string
	User               string
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	// MigrationPath overrides the migrations embedded in the binary
	MigrationPath string
	AutoMigrate   bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	TTL          time.Duration
	// Enabled turns the read-through product cache on
	Enabled bool
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	Concurrency          int
	Queues               map[string]int // queue name -> priority
	StrictPriority       bool
	RetryMax             int
	ShutdownTimeout      time.Duration
	HealthCheckInterval  time.Duration
	DelayedTaskCheckTime time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
}

// StorageConfig selects where export workbooks are written
type StorageConfig struct {
	Driver       string // s3, local
	LocalDir     string
	LocalBaseURL string
}

// ExportConfig holds movement export configuration
type ExportConfig struct {
	MaxRows   int
	URLExpiry time.Duration
	JobTTL    time.Duration
	Timeout   time.Duration
}

// LedgerConfig holds ledger maintenance configuration
type LedgerConfig struct {
	ReconcileEnabled bool
	ReconcileCron    string
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
	ActorHeader       string
	RequestTimeout    time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string
	Port              string `required:"true"`
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GracefulTimeout   time.Duration
	EnableHealthCheck bool
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
}

// SecretsConfig selects the secrets overlay applied after the environment
type SecretsConfig struct {
	Provider string // env, aws
	Name     string
	Region   string
}

// Load loads configuration from environment variables, an optional .env file
// and an optional config file named by CONFIG_FILE
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		logger.Info("config file loaded", slog.String("file", v.ConfigFileUsed()))
	}

	cfg := build(&source{v: v}, env)

	if cfg.Secrets.Provider == "aws" {
		sm, err := NewAWSSecretsManager(context.Background(), cfg.Secrets.Region, cfg.Secrets.Name, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets manager: %w", err)
		}
		if err := cfg.ApplySecrets(context.Background(), sm); err != nil {
			return nil, fmt.Errorf("failed to apply secrets: %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func build(s *source, env string) *Config {
	redisHost := s.getEnv("REDIS_HOST", "localhost")
	redisPort := s.getEnv("REDIS_PORT", "6379")

	return &Config{
		App: AppConfig{
			Name:        s.getEnv("APP_NAME", "gestor-api"),
			Environment: env,
			Version:     s.getEnv("APP_VERSION", "dev"),
			LogLevel:    s.getEnv("LOG_LEVEL", "debug"),
			LogFormat:   s.getEnv("LOG_FORMAT", "json"),
			Debug:       s.getBoolEnv("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               s.getEnv("DB_HOST", "localhost"),
			Port:               s.getEnv("DB_PORT", "5432"),
			User:               s.getEnv("DB_USER", "gestor"),
			Password:           s.getEnv("DB_PASSWORD", "gestor_dev"),
			Name:               s.getEnv("DB_NAME", "gestor"),
			SSLMode:            s.getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(s.getIntEnv("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(s.getIntEnv("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    s.getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    s.getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  s.getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     s.getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementCacheMode: s.getEnv("DB_STATEMENT_CACHE_MODE", "describe"),
			EnableQueryLogging: s.getBoolEnv("DB_QUERY_LOGGING", env == "development"),
			MigrationPath:      s.getEnv("DB_MIGRATION_PATH", ""),
			AutoMigrate:        s.getBoolEnv("DB_AUTO_MIGRATE", env != "production"),
		},
		Redis: RedisConfig{
			Host:         redisHost,
			Port:         redisPort,
			Password:     s.getEnv("REDIS_PASSWORD", ""),
			DB:           s.getIntEnv("REDIS_DB", 0),
			MaxRetries:   s.getIntEnv("REDIS_MAX_RETRIES", 3),
			DialTimeout:  s.getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  s.getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: s.getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     s.getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: s.getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:  s.getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:          s.getDurationEnv("REDIS_TTL", 5*time.Minute),
			Enabled:      s.getBoolEnv("CACHE_ENABLED", true),
		},
		Asynq: AsynqConfig{
			RedisAddr:            fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:        s.getEnv("REDIS_PASSWORD", ""),
			RedisDB:              s.getIntEnv("ASYNQ_REDIS_DB", 1),
			Concurrency:          s.getIntEnv("ASYNQ_CONCURRENCY", 10),
			Queues:               parseQueues(s.getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:       s.getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:             s.getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout:      s.getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthCheckInterval:  s.getDurationEnv("ASYNQ_HEALTH_CHECK_INTERVAL", 30*time.Second),
			DelayedTaskCheckTime: s.getDurationEnv("ASYNQ_DELAYED_TASK_CHECK", 5*time.Second),
		},
		AWS: AWSConfig{
			Region:          s.getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     s.getEnv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: s.getEnv("AWS_SECRET_ACCESS_KEY", "minioadmin123"),
			S3Bucket:        s.getEnv("AWS_S3_BUCKET", "gestor-exports"),
			S3Endpoint:      s.getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    s.getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
		},
		Storage: StorageConfig{
			Driver:       s.getEnv("STORAGE_DRIVER", "local"),
			LocalDir:     s.getEnv("STORAGE_LOCAL_DIR", "./exports"),
			LocalBaseURL: s.getEnv("STORAGE_LOCAL_BASE_URL", "/files"),
		},
		Export: ExportConfig{
			MaxRows:   s.getIntEnv("EXPORT_MAX_ROWS", 100000),
			URLExpiry: s.getDurationEnv("EXPORT_URL_EXPIRY", 15*time.Minute),
			JobTTL:    s.getDurationEnv("EXPORT_JOB_TTL", 24*time.Hour),
			Timeout:   s.getDurationEnv("EXPORT_TIMEOUT", 5*time.Minute),
		},
		Ledger: LedgerConfig{
			ReconcileEnabled: s.getBoolEnv("LEDGER_RECONCILE_ENABLED", true),
			ReconcileCron:    s.getEnv("LEDGER_RECONCILE_CRON", "0 3 * * *"),
		},
		Security: SecurityConfig{
			RateLimitRequests: s.getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: s.getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    s.getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:    s.getSliceEnv("TRUSTED_PROXIES", []string{}),
			SecureHeaders:     s.getBoolEnv("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   s.getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
			ActorHeader:       s.getEnv("ACTOR_HEADER", "X-User-ID"),
			RequestTimeout:    s.getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
		},
		Server: ServerConfig{
			Host:              s.getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              s.getEnv("SERVER_PORT", "8080"),
			ReadTimeout:       s.getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      s.getDurationEnv("SERVER_WRITE_TIMEOUT", 35*time.Second),
			IdleTimeout:       s.getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:    s.getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout:   s.getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			EnableHealthCheck: s.getBoolEnv("ENABLE_HEALTH_CHECK", true),
			TLSEnabled:        s.getBoolEnv("TLS_ENABLED", false),
			TLSCertFile:       s.getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:        s.getEnv("TLS_KEY_FILE", ""),
		},
		Secrets: SecretsConfig{
			Provider: s.getEnv("SECRETS_PROVIDER", "env"),
			Name:     s.getEnv("SECRETS_NAME", ""),
			Region:   s.getEnv("AWS_REGION", "us-east-1"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validators := []interface{ Validate(*Config) error }{
		&BasicValidator{},
		&SecurityValidator{},
	}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns the host:port of the cache Redis
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// Helper functions

// source reads keys through viper so a config file and the environment
// share one lookup path.
type source struct {
	v *viper.Viper
}

func (s *source) getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(s.v.GetString(key)); value != "" {
		return value
	}
	return defaultValue
}

func (s *source) getBoolEnv(key string, defaultValue bool) bool {
	if value := s.v.GetString(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func (s *source) getIntEnv(key string, defaultValue int) int {
	if value := s.v.GetString(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func (s *source) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := s.v.GetString(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}

func (s *source) getSliceEnv(key string, defaultValue []string) []string {
	if value := s.v.GetString(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	pairs := strings.Split(queuesStr, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, ":")
		if len(parts) == 2 {
			name := strings.TrimSpace(parts[0])
			priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err == nil {
				queues[name] = priority
			}
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
