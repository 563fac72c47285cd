package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env (if any), an optional config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional; in production the variables are set directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "TripEase API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.gin_mode", "")
	v.SetDefault("app.frontend_urls", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("app.trusted_proxies", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "tripease")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("aggregation.adapter_timeout", 4*time.Second)
	v.SetDefault("aggregation.max_limit", 20)
	v.SetDefault("aggregation.image_limit", 6)
	v.SetDefault("aggregation.place_limit", 10)
	v.SetDefault("aggregation.bus_limit", 5)
	v.SetDefault("aggregation.activity_limit", 6)
	v.SetDefault("aggregation.place_radius", 5000)
	v.SetDefault("aggregation.breaker_failures", 5)
	v.SetDefault("aggregation.breaker_cooldown", 30*time.Second)

	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window", time.Minute)

	for _, p := range []string{"unsplash", "pexels", "pixabay", "geoapify", "opentripmap", "bus", "viator"} {
		v.SetDefault("providers."+p+".api_key", "")
		v.SetDefault("providers."+p+".base_url", "")
	}
	v.SetDefault("providers.amadeus.client_id", "")
	v.SetDefault("providers.amadeus.client_secret", "")
	v.SetDefault("providers.amadeus.base_url", "")
	v.SetDefault("providers.amadeus.env", "test")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "mistralai/Mistral-7B-Instruct-v0.3")
	v.SetDefault("ai.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("ai.timeout", 60*time.Second)
}

// overrideFromEnv honours the conventional variable names each provider
// documents, on top of the PROVIDERS_<NAME>_API_KEY form viper binds.
func overrideFromEnv(cfg *Config) {
	setIfEmpty(&cfg.Providers.Unsplash.APIKey, "UNSPLASH_ACCESS_KEY")
	setIfEmpty(&cfg.Providers.Pexels.APIKey, "PEXELS_API_KEY")
	setIfEmpty(&cfg.Providers.Pixabay.APIKey, "PIXABAY_API_KEY")
	setIfEmpty(&cfg.Providers.Geoapify.APIKey, "GEOAPIFY_API_KEY")
	setIfEmpty(&cfg.Providers.OpenTripMap.APIKey, "OPENTRIPMAP_API_KEY")
	setIfEmpty(&cfg.Providers.Bus.APIKey, "BUS_API_KEY")
	setIfEmpty(&cfg.Providers.Bus.BaseURL, "BUS_API_URL")
	setIfEmpty(&cfg.Providers.Viator.APIKey, "VIATOR_API_KEY")
	setIfEmpty(&cfg.Providers.Amadeus.ClientID, "AMADEUS_CLIENT_ID")
	setIfEmpty(&cfg.Providers.Amadeus.ClientSecret, "AMADEUS_CLIENT_SECRET")
	setIfEmpty(&cfg.AI.APIKey, "HUGGINGFACE_API_KEY")
	setIfEmpty(&cfg.Database.URL, "DATABASE_URL")
	setIfEmpty(&cfg.Redis.Address, "REDIS_URL")

	if v := os.Getenv("AMADEUS_ENV"); v != "" {
		cfg.Providers.Amadeus.Env = v
	}
	if v := os.Getenv("HF_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.App.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.App.GinMode = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.App.FrontendURLs = append(cfg.App.FrontendURLs, splitList(v)...)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.App.TrustedProxies = splitList(v)
	}
	if cfg.Database.URL != "" {
		cfg.Database.Enabled = true
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setIfEmpty(dst *string, env string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	p := &cfg.Providers
	if p.Unsplash.BaseURL == "" {
		p.Unsplash.BaseURL = "https://api.unsplash.com"
	}
	if p.Pexels.BaseURL == "" {
		p.Pexels.BaseURL = "https://api.pexels.com"
	}
	if p.Pixabay.BaseURL == "" {
		p.Pixabay.BaseURL = "https://pixabay.com"
	}
	if p.Geoapify.BaseURL == "" {
		p.Geoapify.BaseURL = "https://api.geoapify.com"
	}
	if p.OpenTripMap.BaseURL == "" {
		p.OpenTripMap.BaseURL = "https://api.opentripmap.com"
	}
	if p.Viator.BaseURL == "" {
		p.Viator.BaseURL = "https://api.viator.com"
	}
	if p.Amadeus.BaseURL == "" {
		p.Amadeus.BaseURL = "https://api.amadeus.com"
		if p.Amadeus.Env == "" || p.Amadeus.Env == "test" {
			p.Amadeus.BaseURL = "https://test.api.amadeus.com"
		}
	}
}

func validate(cfg *Config) error {
	a := cfg.Aggregation
	if a.AdapterTimeout <= 0 {
		return fmt.Errorf("aggregation.adapter_timeout must be positive")
	}
	if a.MaxLimit < 1 {
		return fmt.Errorf("aggregation.max_limit must be at least 1")
	}
	for name, l := range map[string]int{
		"image_limit":    a.ImageLimit,
		"place_limit":    a.PlaceLimit,
		"bus_limit":      a.BusLimit,
		"activity_limit": a.ActivityLimit,
	} {
		if l < 1 || l > a.MaxLimit {
			return fmt.Errorf("aggregation.%s must be between 1 and %d", name, a.MaxLimit)
		}
	}
	if cfg.RateLimit.Requests < 1 || cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit requires positive requests and window")
	}
	// A bus key without an endpoint cannot be called.
	if cfg.Providers.Bus.APIKey != "" && cfg.Providers.Bus.BaseURL == "" {
		return fmt.Errorf("providers.bus.base_url is required when a bus api key is set")
	}
	return nil
}
