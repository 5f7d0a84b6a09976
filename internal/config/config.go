package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App       AppConfig
	Bot       BotConfig
	Server    ServerConfig
	Store     StoreConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Sweep     SweepConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string  `envconfig:"APP_NAME" default:"tyreterra"`
	Environment string  `envconfig:"APP_ENV" default:"development"`
	AdminIDs    []int64 `envconfig:"ADMIN_IDS" default:""`
	AdminKey    string  `envconfig:"ADMIN_KEY" default:""` // ops API admin key
}

// BotConfig holds bot behaviour settings.
type BotConfig struct {
	CancelToken   string        `envconfig:"BOT_CANCEL_TOKEN" default:"/cancel"`
	MaxStockItems int           `envconfig:"MAX_STOCK_ITEMS" default:"10000"`
	TempDir       string        `envconfig:"TEMP_DIR" default:"./temp_files"`
	ExportTTL     time.Duration `envconfig:"EXPORT_CACHE_TTL" default:"5m"`

	// GatewayURL is where outbound messages are POSTed. Empty means
	// deliveries are kept in memory (development only).
	GatewayURL   string `envconfig:"GATEWAY_URL" default:""`
	GatewayToken string `envconfig:"GATEWAY_TOKEN" default:""`
}

// ServerConfig holds HTTP server settings for the ops API.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, mysql, or postgres
	Path string `envconfig:"STORE_PATH" default:"./data/tyreterra.db"`

	Host     string `envconfig:"STORE_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_PORT" default:"5432"`
	Name     string `envconfig:"STORE_NAME" default:"tyreterra"`
	User     string `envconfig:"STORE_USER" default:"postgres"`
	Password string `envconfig:"STORE_PASS" default:""`
	SSLMode  string `envconfig:"STORE_SSLMODE" default:"disable"`

	Timeout time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// RateLimitConfig holds the per-user request limiter settings.
type RateLimitConfig struct {
	MaxRequests int           `envconfig:"RATE_LIMIT_MAX" default:"10"`
	Window      time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	Backend     string        `envconfig:"RATE_LIMIT_BACKEND" default:"memory"` // memory or redis
}

// SweepConfig holds temp-file sweeper settings.
type SweepConfig struct {
	Interval time.Duration `envconfig:"SWEEP_INTERVAL" default:"10m"`
	MaxAge   time.Duration `envconfig:"SWEEP_MAX_AGE" default:"1h"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		s.User, s.Password, s.Host, s.Port, s.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsAdmin reports whether the chat id belongs to a configured admin.
func (a *AppConfig) IsAdmin(chatID int64) bool {
	for _, id := range a.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
