package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 4*time.Second, cfg.Aggregation.AdapterTimeout)
	assert.Equal(t, 20, cfg.Aggregation.MaxLimit)
	assert.Equal(t, 6, cfg.Aggregation.ImageLimit)
	assert.Equal(t, "https://api.unsplash.com", cfg.Providers.Unsplash.BaseURL)
	assert.Equal(t, "https://test.api.amadeus.com", cfg.Providers.Amadeus.BaseURL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.App.TrustedProxies)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "pexels-key")
	t.Setenv("PROVIDERS_UNSPLASH_API_KEY", "unsplash-key")
	t.Setenv("AGGREGATION_ADAPTER_TIMEOUT", "2s")
	t.Setenv("AMADEUS_ENV", "production")
	t.Setenv("FRONTEND_URL", "https://tripease.app, https://www.tripease.app")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/tripease")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 100.64.0.0/10")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "pexels-key", cfg.Providers.Pexels.APIKey)
	assert.True(t, cfg.Providers.Pexels.Configured())
	assert.Equal(t, "unsplash-key", cfg.Providers.Unsplash.APIKey)
	assert.False(t, cfg.Providers.Pixabay.Configured())
	assert.Equal(t, 2*time.Second, cfg.Aggregation.AdapterTimeout)
	assert.Equal(t, "https://api.amadeus.com", cfg.Providers.Amadeus.BaseURL)
	assert.Contains(t, cfg.App.FrontendURLs, "https://www.tripease.app")
	assert.Equal(t, []string{"10.0.0.0/8", "100.64.0.0/10"}, cfg.App.TrustedProxies)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/tripease", cfg.Database.DSN())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero max limit", map[string]string{"AGGREGATION_MAX_LIMIT": "0"}},
		{"default above max", map[string]string{"AGGREGATION_MAX_LIMIT": "3"}},
		{"bus key without url", map[string]string{"BUS_API_KEY": "k"}},
		{"zero rate limit", map[string]string{"RATELIMIT_REQUESTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "pw", Name: "tripease", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=tripease sslmode=disable", d.DSN())
}
