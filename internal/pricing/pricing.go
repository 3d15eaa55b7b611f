// Package pricing defines the strategy interface settlement trades through,
// with two interchangeable implementations: the LMSR market maker and the
// legacy linear price-adjustment model. Which one is active is a deployment
// decision (config flag), not a per-call branch.
package pricing

import (
	"errors"

	"github.com/openpredict/market-engine/internal/lmsr"
	"github.com/openpredict/market-engine/internal/normalize"
)

var (
	// ErrInvalidOutcome is returned when an outcome index is out of range.
	ErrInvalidOutcome = errors.New("pricing: outcome index out of range")

	// ErrInvalidQuantity is returned for a non-positive trade size.
	ErrInvalidQuantity = errors.New("pricing: trade quantity must be positive")

	// ErrInsufficientSupply is returned when a sell exceeds the outcome's
	// outstanding share supply.
	ErrInsufficientSupply = errors.New("pricing: insufficient outcome supply")
)

// State is the market snapshot a strategy prices against: the current
// price and supply vector in outcome-index order, plus the market's
// liquidity parameter.
type State struct {
	Prices []float64
	Shares []float64
	B      float64
}

// Strategy prices buys and sells against a market snapshot and derives the
// post-trade price vector. Implementations must be stateless; all market
// state arrives via State.
type Strategy interface {
	// Name identifies the strategy in logs and trade records.
	Name() string

	// BuyCost returns the cost of buying qty shares of outcome idx.
	BuyCost(st State, idx int, qty float64) (float64, error)

	// SellProceeds returns the proceeds of selling qty shares of outcome idx.
	SellProceeds(st State, idx int, qty float64) (float64, error)

	// PricesAfter returns the full price vector after changing outcome idx
	// by the signed delta (positive = buy, negative = sell).
	PricesAfter(st State, idx int, delta float64) ([]float64, error)
}

func validate(st State, idx int, qty float64, checkSupply bool) error {
	if idx < 0 || idx >= len(st.Shares) {
		return ErrInvalidOutcome
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if checkSupply && st.Shares[idx] < qty {
		return ErrInsufficientSupply
	}
	return nil
}

// --- LMSR strategy ---

// LMSR prices trades with the Logarithmic Market Scoring Rule. The cost of
// a trade is the change in the LMSR cost function; prices are the softmax
// of the share vector.
type LMSR struct{}

// NewLMSR creates the LMSR pricing strategy.
func NewLMSR() LMSR { return LMSR{} }

func (LMSR) Name() string { return "lmsr" }

func (LMSR) BuyCost(st State, idx int, qty float64) (float64, error) {
	if err := validate(st, idx, qty, false); err != nil {
		return 0, err
	}
	return lmsr.BuyCost(st.Shares, idx, qty, st.B)
}

func (LMSR) SellProceeds(st State, idx int, qty float64) (float64, error) {
	if err := validate(st, idx, qty, true); err != nil {
		return 0, err
	}
	return lmsr.SellProceeds(st.Shares, idx, qty, st.B)
}

func (LMSR) PricesAfter(st State, idx int, delta float64) ([]float64, error) {
	if idx < 0 || idx >= len(st.Shares) {
		return nil, ErrInvalidOutcome
	}
	if st.Shares[idx]+delta < 0 {
		return nil, ErrInsufficientSupply
	}
	return lmsr.UpdatedPrices(st.Shares, idx, delta, st.B)
}

// --- Legacy linear strategy ---

// Linear is the legacy pricing model: a trade costs qty times the outcome's
// current price, and moves that price by qty * sensitivity, clamped to
// [MinPrice, MaxPrice]. The whole vector is then renormalized within bounds
// so prices keep summing to 1.
type Linear struct {
	Sensitivity float64
	MinPrice    float64
	MaxPrice    float64
}

// NewLinear creates the legacy linear pricing strategy.
func NewLinear(sensitivity, minPrice, maxPrice float64) Linear {
	return Linear{
		Sensitivity: sensitivity,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
	}
}

func (Linear) Name() string { return "linear" }

func (l Linear) BuyCost(st State, idx int, qty float64) (float64, error) {
	if err := validate(st, idx, qty, false); err != nil {
		return 0, err
	}
	return qty * st.Prices[idx], nil
}

func (l Linear) SellProceeds(st State, idx int, qty float64) (float64, error) {
	if err := validate(st, idx, qty, true); err != nil {
		return 0, err
	}
	return qty * st.Prices[idx], nil
}

func (l Linear) PricesAfter(st State, idx int, delta float64) ([]float64, error) {
	if idx < 0 || idx >= len(st.Shares) {
		return nil, ErrInvalidOutcome
	}
	if st.Shares[idx]+delta < 0 {
		return nil, ErrInsufficientSupply
	}

	next := make([]float64, len(st.Prices))
	copy(next, st.Prices)

	moved := next[idx] + delta*l.Sensitivity
	if moved > l.MaxPrice {
		moved = l.MaxPrice
	}
	if moved < l.MinPrice {
		moved = l.MinPrice
	}
	next[idx] = moved

	return normalize.NormalizeWithBounds(next, l.MinPrice, l.MaxPrice)
}
