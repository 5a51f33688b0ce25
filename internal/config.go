package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Recurrent     RecurrentConfig     `mapstructure:"recurrent"`
	Notification  NotificationConfig  `mapstructure:"notification"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// GatewayConfig bounds every call made to the acquiring service.
type GatewayConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RecurrentConfig replaces the process-wide RECURRENT_PAYMENT json variable.
type RecurrentConfig struct {
	PageSize        int           `mapstructure:"page_size"`
	MaxWorkers      int           `mapstructure:"max_workers"`
	JobQueueSize    int           `mapstructure:"job_queue_size"`
	UnitTimeout     time.Duration `mapstructure:"unit_timeout"`
	ReadyLookback   time.Duration `mapstructure:"ready_lookback"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	RetryCount      int           `mapstructure:"retry_count"`
	RemindDaysAhead int           `mapstructure:"remind_days_ahead"`
}

type NotificationConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

const (
	DefaultPageSize      = 100
	DefaultMaxWorkers    = 10
	DefaultJobQueueSize  = 100
	DefaultUnitTimeout   = 30 * time.Second
	DefaultReadyLookback = 7 * 24 * time.Hour
	DefaultTickInterval  = time.Hour
	DefaultRetryCount    = 5
)

// LoadConfigFromEnv builds the configuration for container deployments.
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Gateway: GatewayConfig{
			RequestTimeout: getEnvAsDuration("GATEWAY_REQUEST_TIMEOUT", 10*time.Second),
		},
		Recurrent: RecurrentConfig{
			PageSize:        getEnvAsInt("RECURRENT_PAGE_SIZE", DefaultPageSize),
			MaxWorkers:      getEnvAsInt("RECURRENT_MAX_WORKERS", DefaultMaxWorkers),
			JobQueueSize:    getEnvAsInt("RECURRENT_JOB_QUEUE_SIZE", DefaultJobQueueSize),
			UnitTimeout:     getEnvAsDuration("RECURRENT_UNIT_TIMEOUT", DefaultUnitTimeout),
			ReadyLookback:   getEnvAsDuration("RECURRENT_READY_LOOKBACK", DefaultReadyLookback),
			TickInterval:    getEnvAsDuration("RECURRENT_TICK_INTERVAL", DefaultTickInterval),
			RetryCount:      getEnvAsInt("RECURRENT_RETRY_COUNT", DefaultRetryCount),
			RemindDaysAhead: getEnvAsInt("RECURRENT_REMIND_DAYS_AHEAD", 1),
		},
		Notification: NotificationConfig{
			ServerURL: getEnv("SERVER_URL", "http://localhost:3000"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	r := &c.Recurrent
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.MaxWorkers <= 0 {
		r.MaxWorkers = DefaultMaxWorkers
	}
	if r.JobQueueSize <= 0 {
		r.JobQueueSize = DefaultJobQueueSize
	}
	if r.UnitTimeout <= 0 {
		r.UnitTimeout = DefaultUnitTimeout
	}
	if r.ReadyLookback <= 0 {
		r.ReadyLookback = DefaultReadyLookback
	}
	if r.TickInterval <= 0 {
		r.TickInterval = DefaultTickInterval
	}
	if r.RetryCount <= 0 {
		r.RetryCount = DefaultRetryCount
	}
	if r.RemindDaysAhead <= 0 {
		r.RemindDaysAhead = 1
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = 10 * time.Second
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Recurrent.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("recurrent config: %v", err))
	}

	if err := c.Notification.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("notification config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *RecurrentConfig) Validate() error {
	if c.PageSize <= 0 {
		return errors.New("page_size must be positive")
	}
	if c.MaxWorkers <= 0 {
		return errors.New("max_workers must be positive")
	}
	if c.RetryCount <= 0 {
		return errors.New("retry_count must be positive")
	}
	return nil
}

func (c *NotificationConfig) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required")
	}
	if _, err := url.Parse(c.ServerURL); err != nil {
		return fmt.Errorf("invalid server_url %s: %w", c.ServerURL, err)
	}
	return nil
}
