package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes  int      `mapstructure:"JWT_TTL_MINUTES"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	PushGatewayURL string   `mapstructure:"PUSH_GATEWAY_URL"`
	PushGatewayKey string   `mapstructure:"PUSH_GATEWAY_KEY"`
	// ReminderInterval is the reminder engine scan interval in seconds.
	ReminderEnabled  bool `mapstructure:"REMINDER_ENABLED"`
	ReminderInterval int  `mapstructure:"REMINDER_INTERVAL"`
	// ReminderGrace is how many minutes an unanswered reminder stays open
	// before it is auto-resolved to no-response.
	ReminderGrace    int    `mapstructure:"REMINDER_GRACE"`
	PaymentBaseURL   string `mapstructure:"PAYMENT_BASE_URL"`
	PaymentAPIKey    string `mapstructure:"PAYMENT_API_KEY"`
	PaymentSecret    string `mapstructure:"PAYMENT_WEBHOOK_SECRET"`
	PaymentReturnURL string `mapstructure:"PAYMENT_RETURN_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("JWT_TTL_MINUTES", 1440)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REMINDER_ENABLED", true)
	v.SetDefault("REMINDER_INTERVAL", 60)
	v.SetDefault("REMINDER_GRACE", 60)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("PUSH_GATEWAY_URL")
	v.BindEnv("PUSH_GATEWAY_KEY")
	v.BindEnv("REMINDER_ENABLED")
	v.BindEnv("REMINDER_INTERVAL")
	v.BindEnv("REMINDER_GRACE")
	v.BindEnv("PAYMENT_BASE_URL")
	v.BindEnv("PAYMENT_API_KEY")
	v.BindEnv("PAYMENT_WEBHOOK_SECRET")
	v.BindEnv("PAYMENT_RETURN_URL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a real JWT secret is required, and the payment webhook secret must be set
// whenever the payment gateway is configured.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf(
			"JWT_SECRET must be set when ENV=%q; refusing to start without a signing secret", c.Env)
	}
	if c.PaymentBaseURL != "" && c.PaymentSecret == "" {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required when PAYMENT_BASE_URL is set")
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %d", c.ReminderInterval)
	}
	if c.ReminderGrace <= 0 {
		return fmt.Errorf("REMINDER_GRACE must be positive, got %d", c.ReminderGrace)
	}
	return nil
}
