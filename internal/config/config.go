package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the storefront client.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Storage     StorageConfig
	Cart        CartConfig
	Monitor     MonitorConfig
	Logger      LoggerConfig
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// StorageConfig selects where session and cart snapshots persist. Backend is
// either "bolt" (local file, the default) or "redis" (server-side runs).
type StorageConfig struct {
	Backend       string
	BoltPath      string
	BoltBucket    string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	RedisTTL      time.Duration
}

type CartConfig struct {
	ShippingCost float64
	Currency     string
}

type MonitorConfig struct {
	Interval time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the client can run in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "storefront"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:   getString("API_URL", "http://localhost:8080"),
			Timeout:   getDuration("API_TIMEOUT", 15*time.Second),
			UserAgent: getString("API_USER_AGENT", "storefront-client/1.0"),
		},
		Storage: StorageConfig{
			Backend:       getString("STORAGE_BACKEND", "bolt"),
			BoltPath:      getString("BOLT_PATH", "./data/storefront.db"),
			BoltBucket:    getString("BOLT_BUCKET", "storefront"),
			RedisURL:      getString("REDIS_URL", "redis://localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getInt("REDIS_DB", 0),
			RedisPrefix:   getString("REDIS_PREFIX", "storefront:"),
			RedisTTL:      getDuration("REDIS_TTL", 30*24*time.Hour),
		},
		Cart: CartConfig{
			ShippingCost: getFloat("CART_SHIPPING_COST", 30),
			Currency:     getString("CART_CURRENCY", "MAD"),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
