// Package config provides configuration loading and validation for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration constants.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultMongoDBTimeout     = 10 * time.Second
	DefaultMongoDBMaxPoolSize = 100

	DefaultRedisPoolSize = 10

	DefaultAccessTokenTTL  = 1 * time.Hour
	DefaultRefreshTokenTTL = 90 * 24 * time.Hour // 90 days
	DefaultResetTokenTTL   = 5 * time.Minute

	DefaultRateLimit       = 100
	DefaultRateLimitWindow = time.Minute

	DefaultWSBufferSize   = 1024
	DefaultWSPingInterval = 30 * time.Second
	DefaultWSPongTimeout  = 60 * time.Second
)

// Storage backend modes.
const (
	StorageModeLocal = "local"
	StorageModeMinio = "minio"
)

// Config holds the complete application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	MongoDB   MongoDBConfig   `yaml:"mongodb"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Google    GoogleConfig    `yaml:"google"`
	Mail      MailConfig      `yaml:"mail"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name        string `yaml:"name" env:"APP_NAME"`
	Environment string `yaml:"environment" env:"APP_ENV"` // development | production
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// IsProduction reports whether the app runs in production mode.
func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Address returns the full server address (host:port).
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MongoDBConfig holds MongoDB connection configuration.
type MongoDBConfig struct {
	URI         string        `yaml:"uri" env:"MONGODB_URI"`
	Database    string        `yaml:"database" env:"MONGODB_DATABASE"`
	Timeout     time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT"`
	MaxPoolSize uint64        `yaml:"max_pool_size" env:"MONGODB_MAX_POOL_SIZE"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

// AuthConfig holds token issuance configuration. Access, refresh and reset
// tokens are signed with separate secrets so a leaked reset link can never
// be replayed as an access token.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"AUTH_REFRESH_SECRET"`
	ResetSecret     string        `yaml:"reset_secret" env:"AUTH_RESET_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"AUTH_REFRESH_TOKEN_TTL"`
	ResetTokenTTL   time.Duration `yaml:"reset_token_ttl" env:"AUTH_RESET_TOKEN_TTL"`
}

// GoogleConfig holds Google sign-in configuration.
type GoogleConfig struct {
	ClientID string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
}

// MailConfig holds the SMTP configuration for outbound mail.
type MailConfig struct {
	Host     string `yaml:"host" env:"MAIL_HOST"`
	Port     int    `yaml:"port" env:"MAIL_PORT"`
	Username string `yaml:"username" env:"MAIL_USERNAME"`
	Password string `yaml:"password" env:"MAIL_PASSWORD"`
	From     string `yaml:"from" env:"MAIL_FROM"`
	// FrontendURL is the base URL used in password-reset links.
	FrontendURL string `yaml:"frontend_url" env:"MAIL_FRONTEND_URL"`
}

// Addr returns the SMTP server address (host:port).
func (c MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig holds picture storage configuration.
type StorageConfig struct {
	Mode     string `yaml:"mode" env:"STORAGE_MODE"` // local | minio
	LocalDir string `yaml:"local_dir" env:"STORAGE_LOCAL_DIR"`

	MinioEndpoint  string `yaml:"minio_endpoint" env:"STORAGE_MINIO_ENDPOINT"`
	MinioAccessKey string `yaml:"minio_access_key" env:"STORAGE_MINIO_ACCESS_KEY"`
	MinioSecretKey string `yaml:"minio_secret_key" env:"STORAGE_MINIO_SECRET_KEY"`
	MinioBucket    string `yaml:"minio_bucket" env:"STORAGE_MINIO_BUCKET"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl" env:"STORAGE_MINIO_USE_SSL"`
}

// RateLimitConfig holds request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Limit   int           `yaml:"limit" env:"RATE_LIMIT_LIMIT"`
	Window  time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug | info | warn | error
	Format string `yaml:"format" env:"LOG_FORMAT"` // json | text
}

// WebSocketConfig holds WebSocket configuration for the live message feed.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" env:"WS_READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" env:"WS_WRITE_BUFFER_SIZE"`
	PingInterval    time.Duration `yaml:"ping_interval" env:"WS_PING_INTERVAL"`
	PongTimeout     time.Duration `yaml:"pong_timeout" env:"WS_PONG_TIMEOUT"`
}

// Configuration errors.
var (
	ErrConfigNotFound     = errors.New("configuration file not found")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrInvalidDuration    = errors.New("invalid duration format")
	ErrInvalidLogLevel    = errors.New("invalid log level: must be debug, info, warn, or error")
	ErrInvalidLogFormat   = errors.New("invalid log format: must be json or text")
	ErrInvalidStorageMode = errors.New("invalid storage mode: must be local or minio")
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "unbored",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		MongoDB: MongoDBConfig{
			URI:         "mongodb://localhost:27017",
			Database:    "unbored",
			Timeout:     DefaultMongoDBTimeout,
			MaxPoolSize: DefaultMongoDBMaxPoolSize,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: DefaultRedisPoolSize,
		},
		Auth: AuthConfig{
			JWTSecret:       "dev-secret-change-in-production",
			RefreshSecret:   "dev-refresh-secret-change-in-production",
			ResetSecret:     "dev-reset-secret-change-in-production",
			AccessTokenTTL:  DefaultAccessTokenTTL,
			RefreshTokenTTL: DefaultRefreshTokenTTL,
			ResetTokenTTL:   DefaultResetTokenTTL,
		},
		Mail: MailConfig{
			Host:        "localhost",
			Port:        587,
			From:        "no-reply@unbored.app",
			FrontendURL: "http://localhost:3000",
		},
		Storage: StorageConfig{
			Mode:     StorageModeLocal,
			LocalDir: "data/images",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Limit:   DefaultRateLimit,
			Window:  DefaultRateLimitWindow,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  DefaultWSBufferSize,
			WriteBufferSize: DefaultWSBufferSize,
			PingInterval:    DefaultWSPingInterval,
			PongTimeout:     DefaultWSPongTimeout,
		},
	}
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool { return c.App.IsDevelopment() }

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool { return c.App.IsProduction() }

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}
	if c.MongoDB.URI == "" {
		errs = append(errs, errors.New("mongodb.uri is required"))
	}
	if c.MongoDB.Database == "" {
		errs = append(errs, errors.New("mongodb.database is required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	errs = c.validateAuth(errs)
	errs = c.validateStorage(errs)
	errs = c.validateLog(errs)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) validateAuth(errs []error) []error {
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("auth.refresh_secret is required"))
	}
	if c.Auth.ResetSecret == "" {
		errs = append(errs, errors.New("auth.reset_secret is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.access_token_ttl must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.refresh_token_ttl must be positive"))
	}
	if c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.reset_token_ttl must be positive"))
	}
	return errs
}

func (c *Config) validateStorage(errs []error) []error {
	switch c.Storage.Mode {
	case StorageModeLocal:
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("storage.local_dir is required in local mode"))
		}
	case StorageModeMinio:
		if c.Storage.MinioEndpoint == "" {
			errs = append(errs, errors.New("storage.minio_endpoint is required in minio mode"))
		}
		if c.Storage.MinioBucket == "" {
			errs = append(errs, errors.New("storage.minio_bucket is required in minio mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidStorageMode, c.Storage.Mode))
	}
	return errs
}

func (c *Config) validateLog(errs []error) []error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ErrInvalidLogFormat)
	}
	return errs
}

// Load loads configuration from the default config file and environment variables.
func Load() (*Config, error) {
	return LoadFromPath("")
}

// LoadFromPath loads configuration from a specific file path. If path is
// empty, the standard locations are searched; a missing file is not an error
// in that case.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := path
	if configPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			configPath = envPath
		} else {
			for _, p := range []string{"configs/config.yaml", "config.yaml", "/etc/unbored/config.yaml"} {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			if path != "" || os.Getenv("CONFIG_PATH") != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		}
	}

	if err := loadEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func loadEnvToStruct(v reflect.Value) error {
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := loadEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}
		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s from env %s: %w", fieldType.Name, envTag, err)
		}
	}
	return nil
}

//nolint:exhaustive // Only the kinds used by config fields are supported.
func setFieldFromEnv(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidDuration, value)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported config field kind: %s", field.Kind())
	}
	return nil
}
