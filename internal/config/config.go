package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/types"
)

type DeploymentMode string

const (
	ModeLocal DeploymentMode = "local"
	ModeProd  DeploymentMode = "prod"
)

type Configuration struct {
	Deployment   DeploymentConfig   `mapstructure:"deployment"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Server       ServerConfig       `mapstructure:"server"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Pricing      PricingConfig      `mapstructure:"pricing"`
	Treasury     TreasuryConfig     `mapstructure:"treasury"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
}

type DeploymentConfig struct {
	Mode DeploymentMode `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SubscriptionConfig binds the managed resource and the lifecycle limits.
type SubscriptionConfig struct {
	// ResourceID identifies the single dataset this deployment manages.
	ResourceID string `mapstructure:"resource_id"`
	// Store selects the ledger backend: "memory" or "postgres".
	Store             string `mapstructure:"store"`
	MaxDurationDays   int    `mapstructure:"max_duration_days"`
	RenewalWindowDays int    `mapstructure:"renewal_window_days"`
}

// TreasuryConfig points at the downstream payment collector. In "log" mode
// charges are recorded locally without an external call, which is only
// suitable for development deployments.
type TreasuryConfig struct {
	// Mode selects the charging backend: "http" or "log".
	Mode      string `mapstructure:"mode"`
	Endpoint  string `mapstructure:"endpoint"`
	SecretKey string `mapstructure:"secret_key"`
}

// WebhookConfig points at the external endpoint that receives domain events.
// Dispatch is disabled when no endpoint is configured.
type WebhookConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// PricingConfig parameterizes the default linear fee policy.
type PricingConfig struct {
	Asset          string `mapstructure:"asset"`
	PricePerDay    string `mapstructure:"price_per_day"`
	PricePerSeatAndDay string `mapstructure:"price_per_seat_and_day"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	// Load .env if present; environment wins over file values.
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DATAPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read configuration file").
				Mark(ierr.ErrInternal)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse configuration").
			Mark(ierr.ErrInternal)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(ModeLocal))
	v.SetDefault("logging.level", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("subscription.store", "memory")
	v.SetDefault("subscription.max_duration_days", types.MaxSubscriptionDays)
	v.SetDefault("subscription.renewal_window_days", types.RenewalWindowDays)
	v.SetDefault("treasury.mode", "log")
	v.SetDefault("webhook.enabled", false)
	v.SetDefault("pricing.asset", "USD")
	v.SetDefault("pricing.price_per_day", "1")
	v.SetDefault("pricing.price_per_seat_and_day", "0.1")
}

func (c *Configuration) Validate() error {
	if c.Subscription.ResourceID == "" {
		return ierr.NewError("subscription.resource_id is required").
			WithHint("Configure the dataset resource ID this instance manages").
			Mark(ierr.ErrValidation)
	}
	if c.Subscription.MaxDurationDays <= 0 {
		return ierr.NewError("subscription.max_duration_days must be positive").
			Mark(ierr.ErrValidation)
	}
	if c.Subscription.RenewalWindowDays <= 0 {
		return ierr.NewError("subscription.renewal_window_days must be positive").
			Mark(ierr.ErrValidation)
	}
	switch c.Subscription.Store {
	case "memory", "postgres":
	default:
		return ierr.NewErrorf("unknown subscription store %q", c.Subscription.Store).
			WithHint("Supported stores are 'memory' and 'postgres'").
			Mark(ierr.ErrValidation)
	}
	switch c.Treasury.Mode {
	case "log":
	case "http":
		if c.Treasury.Endpoint == "" {
			return ierr.NewError("treasury.endpoint is required in http mode").
				Mark(ierr.ErrValidation)
		}
	default:
		return ierr.NewErrorf("unknown treasury mode %q", c.Treasury.Mode).
			WithHint("Supported treasury modes are 'http' and 'log'").
			Mark(ierr.ErrValidation)
	}
	if c.Webhook.Enabled && c.Webhook.Endpoint == "" {
		return ierr.NewError("webhook.endpoint is required when webhooks are enabled").
			Mark(ierr.ErrValidation)
	}
	return nil
}
