// Package lmsr implements the Logarithmic Market Scoring Rule (LMSR)
// automated market maker for multi-outcome prediction markets.
//
// The LMSR was proposed by Robin Hanson and provides:
//   - Bounded loss for the market maker (capped at b * ln(n))
//   - Continuous pricing with infinite liquidity
//   - Path-independent cost function
//   - Prices that sum to 1 and read as probabilities
//
// All transcendental math uses the log-sum-exp trick for numerical
// stability; share quantities and prices are float64 throughout, and
// callers convert costs to decimal at the settlement boundary.
//
// Reference: Hanson, R. (2003) "Combinatorial Information Market Design"
package lmsr

import (
	"errors"
	"math"
)

var (
	// ErrInvalidLiquidity is returned when b <= 0.
	ErrInvalidLiquidity = errors.New("lmsr: liquidity parameter b must be positive")

	// ErrInvalidOutcome is returned when an outcome index is out of range.
	ErrInvalidOutcome = errors.New("lmsr: outcome index out of range")

	// ErrInvalidQuantity is returned for a non-positive trade size.
	ErrInvalidQuantity = errors.New("lmsr: trade quantity must be positive")

	// ErrInsufficientSupply is returned when a sell exceeds the outstanding
	// share supply of the outcome.
	ErrInsufficientSupply = errors.New("lmsr: insufficient outcome supply to sell")
)

// logSumExp computes ln(Σ exp(x_i)) using the log-sum-exp trick to prevent
// floating-point overflow. Without this trick, exp(x) overflows float64
// when x > ~709.
//
// Algorithm: LSE(x) = max(x) + ln(Σ exp(x_i - max(x)))
// Since (x_i - max(x)) <= 0, all exp arguments are in [0, 1].
func logSumExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}

	maxVal := xs[0]
	for _, x := range xs[1:] {
		if x > maxVal {
			maxVal = x
		}
	}

	if math.IsInf(maxVal, -1) {
		return math.Inf(-1)
	}

	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - maxVal)
	}
	return maxVal + math.Log(sum)
}

// Cost computes the LMSR cost function:
//
//	C(q) = b * ln(Σ exp(q_i / b))
//
// shares holds the outstanding quantity q_i for every outcome in index order.
// An empty share vector costs nothing.
func Cost(shares []float64, b float64) (float64, error) {
	if b <= 0 {
		return 0, ErrInvalidLiquidity
	}
	if len(shares) == 0 {
		return 0, nil
	}

	scaled := make([]float64, len(shares))
	for i, q := range shares {
		scaled[i] = q / b
	}
	return b * logSumExp(scaled), nil
}

// Prices computes the instantaneous price (probability) of every outcome:
//
//	p_i = exp(q_i / b) / Σ_j exp(q_j / b)
//
// This is the softmax function, computed with max-subtraction for numerical
// stability. When every quantity is zero the prices are uniform 1/n, which
// sidesteps the 0/0 softmax at market open. The result is renormalized by
// its actual sum so the prices sum to 1 exactly up to float64 arithmetic.
func Prices(shares []float64, b float64) ([]float64, error) {
	if b <= 0 {
		return nil, ErrInvalidLiquidity
	}
	n := len(shares)
	if n == 0 {
		return []float64{}, nil
	}

	allZero := true
	for _, q := range shares {
		if q != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		prices := make([]float64, n)
		for i := range prices {
			prices[i] = 1.0 / float64(n)
		}
		return prices, nil
	}

	maxScaled := shares[0] / b
	for _, q := range shares[1:] {
		if q/b > maxScaled {
			maxScaled = q / b
		}
	}

	prices := make([]float64, n)
	var sumExp float64
	for i, q := range shares {
		prices[i] = math.Exp(q/b - maxScaled)
		sumExp += prices[i]
	}
	for i := range prices {
		prices[i] /= sumExp
	}

	// Correct residual float error so the vector sums to 1.
	var sum float64
	for _, p := range prices {
		sum += p
	}
	for i := range prices {
		prices[i] /= sum
	}
	return prices, nil
}

// BuyCost computes the cost to buy qty shares of outcome idx:
//
//	cost = C(q with q_idx += qty) - C(q)
//
// Always positive for qty > 0 (the cost function is strictly increasing
// in each quantity).
func BuyCost(shares []float64, idx int, qty, b float64) (float64, error) {
	if idx < 0 || idx >= len(shares) {
		return 0, ErrInvalidOutcome
	}
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	before, err := Cost(shares, b)
	if err != nil {
		return 0, err
	}
	after, err := Cost(bump(shares, idx, qty), b)
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

// SellProceeds computes the proceeds from selling qty shares of outcome idx:
//
//	proceeds = C(q) - C(q with q_idx -= qty)
//
// The outcome must have at least qty shares outstanding.
func SellProceeds(shares []float64, idx int, qty, b float64) (float64, error) {
	if idx < 0 || idx >= len(shares) {
		return 0, ErrInvalidOutcome
	}
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	if shares[idx] < qty {
		return 0, ErrInsufficientSupply
	}

	before, err := Cost(shares, b)
	if err != nil {
		return 0, err
	}
	after, err := Cost(bump(shares, idx, -qty), b)
	if err != nil {
		return 0, err
	}
	return before - after, nil
}

// UpdatedPrices returns the price vector after changing outcome idx by the
// signed delta (positive = buy, negative = sell). Rejects deltas that would
// drive the outcome's supply negative.
func UpdatedPrices(shares []float64, idx int, delta, b float64) ([]float64, error) {
	if idx < 0 || idx >= len(shares) {
		return nil, ErrInvalidOutcome
	}
	if shares[idx]+delta < 0 {
		return nil, ErrInsufficientSupply
	}
	return Prices(bump(shares, idx, delta), b)
}

// MaxLoss returns the market maker's worst-case loss, b * ln(n).
func MaxLoss(n int, b float64) float64 {
	if n < 2 {
		return 0
	}
	return b * math.Log(float64(n))
}

// bump returns a copy of shares with shares[idx] changed by delta.
func bump(shares []float64, idx int, delta float64) []float64 {
	next := make([]float64, len(shares))
	copy(next, shares)
	next[idx] += delta
	return next
}
