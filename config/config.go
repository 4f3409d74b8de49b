package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"tradesense/models"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Challenge rule configuration (fractions, e.g. 0.10 = 10%)
	MaxTotalLossPct float64
	MaxDailyLossPct float64
	ProfitTargetPct float64

	// Trade execution
	CommissionRate float64 // fraction of notional charged per trade

	// Market data
	MarketDataBaseURL string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Rule defaults: 10% total loss, 5% daily loss, 10% profit target
		MaxTotalLossPct: models.DefaultMaxTotalLossPct,
		MaxDailyLossPct: models.DefaultMaxDailyLossPct,
		ProfitTargetPct: models.DefaultProfitTargetPct,

		CommissionRate: 0.001, // 0.1% of notional per trade

		MarketDataBaseURL: "https://query1.finance.yahoo.com/v8/finance/chart",

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if pct := os.Getenv("MAX_TOTAL_LOSS_PCT"); pct != "" {
		if parsed, err := strconv.ParseFloat(pct, 64); err == nil {
			config.MaxTotalLossPct = parsed
		}
	}
	if pct := os.Getenv("MAX_DAILY_LOSS_PCT"); pct != "" {
		if parsed, err := strconv.ParseFloat(pct, 64); err == nil {
			config.MaxDailyLossPct = parsed
		}
	}
	if pct := os.Getenv("PROFIT_TARGET_PCT"); pct != "" {
		if parsed, err := strconv.ParseFloat(pct, 64); err == nil {
			config.ProfitTargetPct = parsed
		}
	}
	if rate := os.Getenv("COMMISSION_RATE"); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil {
			config.CommissionRate = parsed
		}
	}
	if url := os.Getenv("MARKET_DATA_BASE_URL"); url != "" {
		config.MarketDataBaseURL = url
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
