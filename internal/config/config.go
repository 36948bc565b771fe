package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Analytics AnalyticsConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DataConfig struct {
	Source           string
	Dir              string
	OrdersFile       string
	OrderItemsFile   string
	CustomersFile    string
	ProductsFile     string
	TranslationsFile string
	PaymentsFile     string
	DatabaseURL      string `json:"-"`
	CacheEnabled     bool
	CacheDir         string
	LoadTimeout      time.Duration
}

type AnalyticsConfig struct {
	FilterGranularity   string
	CorrectMonetaryRank bool
	ReportOutputDir     string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// loadDotEnv applies path to the environment. A missing file is skipped
// silently; any other failure is logged and the file ignored.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("ignoring unreadable env file", "path", path, "error", err)
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars win.
func Load() (*Config, error) {
	loadDotEnv(".env")

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			Source:           getEnvString("DATA_SOURCE", "csv"),
			Dir:              getEnvString("DATA_DIR", "data"),
			OrdersFile:       getEnvString("ORDERS_FILE", "orders_dataset.csv"),
			OrderItemsFile:   getEnvString("ORDER_ITEMS_FILE", "order_items_dataset.csv"),
			CustomersFile:    getEnvString("CUSTOMERS_FILE", "customers_dataset.csv"),
			ProductsFile:     getEnvString("PRODUCTS_FILE", "products_dataset.csv"),
			TranslationsFile: getEnvString("TRANSLATIONS_FILE", "product_category_name_translation.csv"),
			PaymentsFile:     getEnvString("PAYMENTS_FILE", "order_payments_dataset.csv"),
			DatabaseURL:      getEnvString("DATABASE_URL", ""),
			CacheEnabled:     getEnvBool("CACHE_ENABLED", true),
			CacheDir:         getEnvString("CACHE_DIR", ".cache"),
			LoadTimeout:      getEnvDuration("DATA_LOAD_TIMEOUT", 60*time.Second),
		},
		Analytics: AnalyticsConfig{
			FilterGranularity:   getEnvString("FILTER_GRANULARITY", "month"),
			CorrectMonetaryRank: getEnvBool("RFM_CORRECT_MONETARY_RANK", false),
			ReportOutputDir:     getEnvString("REPORT_OUTPUT_DIR", "reports"),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.Dir == "" {
			return fmt.Errorf("data directory cannot be empty")
		}
	case "postgres":
		if c.Data.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("invalid data source %q, must be one of: csv, postgres", c.Data.Source)
	}

	if c.Data.LoadTimeout <= 0 {
		return fmt.Errorf("data load timeout must be positive")
	}

	validGranularities := []string{"month", "day"}
	if !slices.Contains(validGranularities, c.Analytics.FilterGranularity) {
		return fmt.Errorf("invalid filter granularity %q, must be one of: %s", c.Analytics.FilterGranularity, strings.Join(validGranularities, ", "))
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
