package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "saintsal.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SAINTSAL_PORT")
	setString(&cfg.Server.CORSOrigin, "SAINTSAL_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SAINTSAL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SAINTSAL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SAINTSAL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SAINTSAL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SAINTSAL_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "SAINTSAL_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "SAINTSAL_CACHE_TTL")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setString(&cfg.AzureAI.Endpoint, "AZURE_AI_ENDPOINT")
	setString(&cfg.AzureAI.APIKey, "AZURE_AI_API_KEY")
	setString(&cfg.AzureAI.Deployment, "AZURE_AI_DEPLOYMENT")
	setString(&cfg.AzureAI.APIVersion, "AZURE_AI_API_VERSION")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&cfg.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&cfg.Twilio.FromNumber, "TWILIO_FROM_NUMBER")
	setString(&cfg.GHL.APIKey, "GHL_API_KEY")
	setString(&cfg.GHL.LocationID, "GHL_LOCATION_ID")
	setString(&cfg.GHL.WebhookToken, "GHL_WEBHOOK_TOKEN")
	setString(&cfg.Cloudflare.APIToken, "CLOUDFLARE_API_TOKEN")
	setString(&cfg.Cloudflare.ZoneID, "CLOUDFLARE_ZONE_ID")
	setString(&cfg.Platform.Domain, "SAINTSAL_PLATFORM_DOMAIN")
	setString(&cfg.Platform.UpgradeURL, "SAINTSAL_UPGRADE_URL")
	setString(&cfg.Auth.JWTSecret, "SAINTSAL_JWT_SECRET")
	setString(&cfg.Auth.InternalAPIKey, "SAINTSAL_INTERNAL_API_KEY")
	setString(&cfg.Logging.Level, "SAINTSAL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SAINTSAL_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "SAINTSAL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "SAINTSAL_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "SAINTSAL_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SAINTSAL_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "SAINTSAL_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "SAINTSAL_RATE_MAX_IDLE_TIME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Platform.Domain == "" {
		return errors.New("platform.domain is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
