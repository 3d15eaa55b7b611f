// Package config loads the engine's externally injectable constants from
// environment variables, with optional .env file support for development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all engine configuration. Every pricing constant the
// settlement path depends on lives here so deployments can tune them
// without a rebuild.
type Config struct {
	// Server settings.
	Port        string
	DatabaseURL string
	RedisURL    string

	// FeeRate is the fraction of gross cost charged on every trade
	// (added on buys, subtracted from sell proceeds).
	FeeRate float64

	// PriceSensitivity is the legacy linear model's price move per share.
	PriceSensitivity float64

	// MinPrice and MaxPrice bound every persisted outcome price.
	MinPrice float64
	MaxPrice float64

	// DefaultLiquidity is the LMSR b parameter for markets created
	// without an explicit one.
	DefaultLiquidity float64

	// LMSREnabled selects the pricing strategy: LMSR when true, the
	// legacy linear model when false.
	LMSREnabled bool

	// PriceSumTolerance is the post-settlement deviation at which the
	// price-sum invariant check aborts the whole trade.
	PriceSumTolerance float64

	// PriceSumWarnTolerance is the lower deviation at which the check
	// logs a warning but lets the trade commit. Must not exceed
	// PriceSumTolerance.
	PriceSumWarnTolerance float64

	// InitialBalance is credited to newly created users.
	InitialBalance decimal.Decimal
}

// Load reads configuration from the environment. A .env file, if present,
// is loaded first; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.FeeRate, err = getFloat("TRANSACTION_FEE_RATE", 0.02); err != nil {
		return nil, err
	}
	if cfg.PriceSensitivity, err = getFloat("PRICE_SENSITIVITY_FACTOR", 0.005); err != nil {
		return nil, err
	}
	if cfg.MinPrice, err = getFloat("MIN_PRICE", 0.01); err != nil {
		return nil, err
	}
	if cfg.MaxPrice, err = getFloat("MAX_PRICE", 0.99); err != nil {
		return nil, err
	}
	if cfg.DefaultLiquidity, err = getFloat("DEFAULT_LIQUIDITY_PARAMETER", 100.0); err != nil {
		return nil, err
	}
	if cfg.LMSREnabled, err = getBool("LMSR_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.PriceSumTolerance, err = getFloat("PRICE_SUM_TOLERANCE", 0.001); err != nil {
		return nil, err
	}
	if cfg.PriceSumWarnTolerance, err = getFloat("PRICE_SUM_WARN_TOLERANCE", 1e-6); err != nil {
		return nil, err
	}

	initial := getEnv("INITIAL_BALANCE", "1000")
	cfg.InitialBalance, err = decimal.NewFromString(initial)
	if err != nil {
		return nil, fmt.Errorf("config: invalid INITIAL_BALANCE %q: %w", initial, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.FeeRate < 0 || c.FeeRate >= 1:
		return fmt.Errorf("config: TRANSACTION_FEE_RATE must be in [0,1), got %v", c.FeeRate)
	case c.PriceSensitivity <= 0:
		return fmt.Errorf("config: PRICE_SENSITIVITY_FACTOR must be positive, got %v", c.PriceSensitivity)
	case c.MinPrice < 0 || c.MaxPrice <= 0 || c.MinPrice >= c.MaxPrice || c.MaxPrice > 1:
		return fmt.Errorf("config: price bounds [%v, %v] are invalid", c.MinPrice, c.MaxPrice)
	case c.DefaultLiquidity <= 0:
		return fmt.Errorf("config: DEFAULT_LIQUIDITY_PARAMETER must be positive, got %v", c.DefaultLiquidity)
	case c.PriceSumWarnTolerance > c.PriceSumTolerance:
		return fmt.Errorf("config: warn tolerance %v exceeds abort tolerance %v",
			c.PriceSumWarnTolerance, c.PriceSumTolerance)
	case c.InitialBalance.IsNegative():
		return fmt.Errorf("config: INITIAL_BALANCE must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
