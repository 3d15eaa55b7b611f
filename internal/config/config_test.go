package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.FeeRate != 0.02 {
		t.Errorf("expected default fee rate 0.02, got %v", cfg.FeeRate)
	}
	if cfg.PriceSensitivity != 0.005 {
		t.Errorf("expected default sensitivity 0.005, got %v", cfg.PriceSensitivity)
	}
	if cfg.MinPrice != 0.01 || cfg.MaxPrice != 0.99 {
		t.Errorf("expected default bounds [0.01, 0.99], got [%v, %v]", cfg.MinPrice, cfg.MaxPrice)
	}
	if cfg.DefaultLiquidity != 100.0 {
		t.Errorf("expected default liquidity 100, got %v", cfg.DefaultLiquidity)
	}
	if cfg.LMSREnabled {
		t.Error("LMSR should default to disabled")
	}
	if cfg.PriceSumTolerance != 0.001 {
		t.Errorf("expected default abort tolerance 0.001, got %v", cfg.PriceSumTolerance)
	}
	if !cfg.InitialBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected default initial balance 1000, got %s", cfg.InitialBalance)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRANSACTION_FEE_RATE", "0.05")
	t.Setenv("LMSR_ENABLED", "true")
	t.Setenv("INITIAL_BALANCE", "250.50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FeeRate != 0.05 {
		t.Errorf("expected fee rate 0.05, got %v", cfg.FeeRate)
	}
	if !cfg.LMSREnabled {
		t.Error("expected LMSR enabled")
	}
	if !cfg.InitialBalance.Equal(decimal.NewFromFloat(250.50)) {
		t.Errorf("expected initial balance 250.50, got %s", cfg.InitialBalance)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable float", "TRANSACTION_FEE_RATE", "lots"},
		{"fee out of range", "TRANSACTION_FEE_RATE", "1.5"},
		{"inverted bounds", "MIN_PRICE", "0.995"},
		{"zero liquidity", "DEFAULT_LIQUIDITY_PARAMETER", "0"},
		{"warn above abort", "PRICE_SUM_WARN_TOLERANCE", "0.01"},
		{"bad bool", "LMSR_ENABLED", "maybe"},
		{"bad balance", "INITIAL_BALANCE", "a-lot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
