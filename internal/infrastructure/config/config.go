package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	OTLP      OTLPConfig
	Inventory InventoryConfig
	Storage   StorageConfig
	Cart      CartConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type OTLPConfig struct {
	Endpoint    string
	ServiceName string
	Environment string
	Enabled     bool
	LogLevel    string
}

type InventoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Storage drivers
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

type StorageConfig struct {
	Driver    string
	Path      string
	RedisAddr string
	Key       string
}

type CartConfig struct {
	StockCheck       string
	NotificationFeed int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		OTLP: OTLPConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "cart-api"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
			Enabled:     getEnvBool("OTEL_ENABLED", true),
			LogLevel:    getEnv("LOG_LEVEL", "debug"),
		},
		Inventory: InventoryConfig{
			BaseURL: getEnv("INVENTORY_BASE_URL", "http://localhost:3333"),
			Timeout: getEnvDuration("INVENTORY_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", StorageFile),
			Path:      getEnv("STORAGE_PATH", "data/cart.json"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			Key:       getEnv("CART_STORAGE_KEY", "@RocketShoes:cart"),
		},
		Cart: CartConfig{
			StockCheck:       getEnv("CART_STOCK_CHECK", "legacy"),
			NotificationFeed: getEnvInt("NOTIFICATION_FEED_SIZE", 50),
		},
	}
}

// Validate rejects values the service can't start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageFile, StorageRedis:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Cart.StockCheck {
	case "legacy", "strict":
	default:
		return fmt.Errorf("unknown CART_STOCK_CHECK %q", c.Cart.StockCheck)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}
	if c.Inventory.Timeout < 0 {
		return fmt.Errorf("INVENTORY_TIMEOUT must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
