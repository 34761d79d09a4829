package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, "db", cfg.CartStore)
	assert.Equal(t, "none", cfg.EventsDriver)
	assert.Equal(t, 24*time.Hour, cfg.PaymentWindow)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
	assert.Equal(t, []string{"free", "dummy_gateway"}, cfg.PaymentGateways)
	assert.Equal(t, "/api/v1", cfg.PaymentBasePath)
	assert.Equal(t, 15*time.Minute, cfg.CartCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("DB_DRIVER", "SQLite")
	v.Set("PAYMENT_GATEWAYS", " free , stripe ,")
	v.Set("ORDER_PAYMENT_WINDOW", "30m")
	v.Set("CART_CACHE_TTL", "2m")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"free", "stripe"}, cfg.PaymentGateways)
	assert.Equal(t, 30*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, 2*time.Minute, cfg.CartCacheTTL)
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	for key, value := range map[string]string{
		"DB_DRIVER":     "oracle",
		"CART_STORE":    "cassandra",
		"EVENTS_DRIVER": "sqs",
	} {
		t.Run(key, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(key, value)

			_, err := Load(v)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
