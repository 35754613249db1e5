package config

import (
	"fmt"
	"log"

	"github.com/angelstack/captable_engine/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// RateLimit is the ulule/limiter formatted rate, e.g. "100-M".
	RateLimit string

	// Engine knobs. These are threaded explicitly into the engine per call;
	// nothing reads them as process-wide state.
	QualifiedFinancingThreshold domain.Money
	PlatformFeeRateDirect       decimal.Decimal
	PlatformFeeRateSyndicate    decimal.Decimal
	PlatformFeeMinimum          domain.Money
	CarryRate                   decimal.Decimal
	ProcessingFeeRate           decimal.Decimal
	ProcessingFeeFixed          domain.Money
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("QUALIFIED_FINANCING_THRESHOLD", "1000000")
	viper.SetDefault("PLATFORM_FEE_RATE_DIRECT", "0.02")
	viper.SetDefault("PLATFORM_FEE_RATE_SYNDICATE", "0.05")
	viper.SetDefault("PLATFORM_FEE_MINIMUM", "100")
	viper.SetDefault("CARRY_RATE", "0.20")
	viper.SetDefault("PROCESSING_FEE_RATE", "0.029")
	viper.SetDefault("PROCESSING_FEE_FIXED", "0.30")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	var err error
	cfg.QualifiedFinancingThreshold, err = moneyValue("QUALIFIED_FINANCING_THRESHOLD")
	if err != nil {
		return nil, err
	}
	cfg.PlatformFeeRateDirect, err = decimalValue("PLATFORM_FEE_RATE_DIRECT")
	if err != nil {
		return nil, err
	}
	cfg.PlatformFeeRateSyndicate, err = decimalValue("PLATFORM_FEE_RATE_SYNDICATE")
	if err != nil {
		return nil, err
	}
	cfg.PlatformFeeMinimum, err = moneyValue("PLATFORM_FEE_MINIMUM")
	if err != nil {
		return nil, err
	}
	cfg.CarryRate, err = decimalValue("CARRY_RATE")
	if err != nil {
		return nil, err
	}
	cfg.ProcessingFeeRate, err = decimalValue("PROCESSING_FEE_RATE")
	if err != nil {
		return nil, err
	}
	cfg.ProcessingFeeFixed, err = moneyValue("PROCESSING_FEE_FIXED")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func moneyValue(key string) (domain.Money, error) {
	m, err := domain.NewMoneyFromString(viper.GetString(key))
	if err != nil {
		return domain.ZeroMoney, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return m, nil
}

func decimalValue(key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(viper.GetString(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}
