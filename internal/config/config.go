package config

import (
	"fmt"

	"github.com/wekeepgrowing/semo-billing/pkg/config"
	"github.com/wekeepgrowing/semo-billing/pkg/logger"
)

const serviceName = "billing"

// Config is loaded once at process start and treated as read-only afterwards.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       logger.Config   `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	Messaging MessagingConfig `mapstructure:"messaging"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	ClientURL   string `mapstructure:"client_url"`
	OffersFile  string `mapstructure:"offers_file"`
}

type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	UserClaim string `mapstructure:"user_claim"`
}

// StripeConfig holds the billing provider settings.
type StripeConfig struct {
	APIKey             string `mapstructure:"api_key"`
	PublishableKey     string `mapstructure:"publishable_key"`
	WebhookSecret      string `mapstructure:"webhook_secret"`
	CheckoutSuccessURL string `mapstructure:"checkout_success_url"`
	CheckoutCancelURL  string `mapstructure:"checkout_cancel_url"`
	PortalReturnURL    string `mapstructure:"portal_return_url"`
}

type MessagingConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig enables the pub/sub transport for billing events.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// envBindings keeps the variable names the service has always been deployed with.
var envBindings = map[string]string{
	"stripe.api_key":              "STRIPE_API_KEY",
	"stripe.publishable_key":      "STRIPE_PUBLISHABLE_KEY",
	"stripe.webhook_secret":       "STRIPE_ENDPOINT_SECRET",
	"stripe.checkout_success_url": "STRIPE_CHECKOUT_SUCCESS_URL",
	"stripe.checkout_cancel_url":  "STRIPE_CHECKOUT_CANCEL_URL",
	"stripe.portal_return_url":    "STRIPE_PORTAL_RETURN_URL",
	"jwt.secret":                  "JWT_SECRET",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.name":               "DB_NAME",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"server.http.port":            "PORT",
}

var defaults = map[string]interface{}{
	"service.name":                serviceName,
	"service.environment":         "development",
	"service.offers_file":         "./configs/offers.yaml",
	"server.http.host":            "0.0.0.0",
	"server.http.port":            8080,
	"server.grpc.host":            "0.0.0.0",
	"server.grpc.port":            9090,
	"database.port":               5432,
	"database.max_open_conns":     20,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  "30m",
	"database.conn_max_idle_time": "5m",
	"log.level":                   "info",
	"log.format":                  "json",
	"jwt.user_claim":              "userId",
	"messaging.redis.channel":     "billing-events",
}

// LoadConfig reads configs/billing.yaml (or CONFIG_PATH) overlaid by the
// environment and validates what the server needs.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration without validating it. Tools that need only
// the database use it.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(config.Options{
		ServiceName: serviceName,
		EnvBindings: envBindings,
		Defaults:    defaults,
	}, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret (JWT_SECRET) is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("stripe.webhook_secret (STRIPE_ENDPOINT_SECRET) is required")
	}
	if c.Messaging.Redis.Enabled && c.Messaging.Redis.Addr == "" {
		return fmt.Errorf("messaging.redis.addr is required when redis is enabled")
	}
	return nil
}
