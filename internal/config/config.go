package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string   `mapstructure:"PORT"`
	Env                    string   `mapstructure:"ENV"`
	DatabaseURL            string   `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins            []string `mapstructure:"CORS_ORIGINS"`
	JWTSecret              string   `mapstructure:"JWT_SECRET"`
	ForecastURL            string   `mapstructure:"FORECAST_URL"`
	ForecastTimeoutSeconds int      `mapstructure:"FORECAST_TIMEOUT_SECONDS"`
	BulkBedLimit           int      `mapstructure:"BULK_BED_LIMIT"`
	TxMaxRetries           int      `mapstructure:"TX_MAX_RETRIES"`
	RateLimitRPS           float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int      `mapstructure:"RATE_LIMIT_BURST"`
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
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("FORECAST_TIMEOUT_SECONDS", 15)
	v.SetDefault("BULK_BED_LIMIT", 100)
	v.SetDefault("TX_MAX_RETRIES", 3)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("FORECAST_URL")
	v.BindEnv("FORECAST_TIMEOUT_SECONDS")
	v.BindEnv("BULK_BED_LIMIT")
	v.BindEnv("TX_MAX_RETRIES")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret must be configured so real authentication is enforced, and the
// engine limits must stay positive.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q; refusing to start without authentication", c.Env)
	}
	if c.BulkBedLimit <= 0 {
		return fmt.Errorf("BULK_BED_LIMIT must be positive, got %d", c.BulkBedLimit)
	}
	if c.TxMaxRetries < 0 {
		return fmt.Errorf("TX_MAX_RETRIES must not be negative, got %d", c.TxMaxRetries)
	}
	if c.ForecastTimeoutSeconds <= 0 {
		return fmt.Errorf("FORECAST_TIMEOUT_SECONDS must be positive, got %d", c.ForecastTimeoutSeconds)
	}
	return nil
}
