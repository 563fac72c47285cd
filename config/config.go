package config

import (
	"fmt"
	"time"
)

// Config is the process-wide configuration. It is loaded once at startup and
// handed down by value or pointer; nothing below main reads the environment.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	AI          AIConfig          `mapstructure:"ai"`
}

type AppConfig struct {
	Name         string   `mapstructure:"name"`
	Environment  string   `mapstructure:"environment"`
	Port         string   `mapstructure:"port"`
	GinMode      string   `mapstructure:"gin_mode"`
	FrontendURLs []string `mapstructure:"frontend_urls"`

	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For. Empty
	// means the peer address is always the client.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Enabled  bool   `mapstructure:"enabled"`
}

// DSN prefers a full connection URL (Railway/Heroku style) over discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AggregationConfig bounds the fan-out.
type AggregationConfig struct {
	AdapterTimeout  time.Duration `mapstructure:"adapter_timeout"`
	MaxLimit        int           `mapstructure:"max_limit"`
	ImageLimit      int           `mapstructure:"image_limit"`
	PlaceLimit      int           `mapstructure:"place_limit"`
	BusLimit        int           `mapstructure:"bus_limit"`
	ActivityLimit   int           `mapstructure:"activity_limit"`
	PlaceRadius     int           `mapstructure:"place_radius"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// APIKeyConfig covers providers authenticated by a single key.
type APIKeyConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Configured reports whether the provider can be called at all.
func (c APIKeyConfig) Configured() bool {
	return c.APIKey != ""
}

type AmadeusConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BaseURL      string `mapstructure:"base_url"`
	Env          string `mapstructure:"env"`
}

func (c AmadeusConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type ProvidersConfig struct {
	Unsplash    APIKeyConfig  `mapstructure:"unsplash"`
	Pexels      APIKeyConfig  `mapstructure:"pexels"`
	Pixabay     APIKeyConfig  `mapstructure:"pixabay"`
	Geoapify    APIKeyConfig  `mapstructure:"geoapify"`
	OpenTripMap APIKeyConfig  `mapstructure:"opentripmap"`
	Bus         APIKeyConfig  `mapstructure:"bus"`
	Viator      APIKeyConfig  `mapstructure:"viator"`
	Amadeus     AmadeusConfig `mapstructure:"amadeus"`
}

type AIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}
