package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "cart-api", cfg.OTLP.ServiceName)
	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Inventory.Timeout)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "@RocketShoes:cart", cfg.Storage.Key)
	assert.Equal(t, "legacy", cfg.Cart.StockCheck)
	assert.Equal(t, 50, cfg.Cart.NotificationFeed)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("INVENTORY_BASE_URL", "http://inventory:3333")
	t.Setenv("INVENTORY_TIMEOUT", "750ms")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CART_STOCK_CHECK", "strict")
	t.Setenv("NOTIFICATION_FEED_SIZE", "7")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, "http://inventory:3333", cfg.Inventory.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Inventory.Timeout)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "strict", cfg.Cart.StockCheck)
	assert.Equal(t, 7, cfg.Cart.NotificationFeed)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "maybe")
	t.Setenv("INVENTORY_TIMEOUT", "soon")
	t.Setenv("NOTIFICATION_FEED_SIZE", "many")

	cfg := LoadConfig()

	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Inventory.Timeout)
	assert.Equal(t, 50, cfg.Cart.NotificationFeed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"unknown stock check", func(c *Config) { c.Cart.StockCheck = "lenient" }},
		{"empty key", func(c *Config) { c.Storage.Key = "" }},
		{"negative timeout", func(c *Config) { c.Inventory.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
