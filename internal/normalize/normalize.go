// Package normalize renormalizes outcome price vectors so they sum to 1.0,
// optionally under per-outcome min/max bounds. The legacy linear pricing
// path depends on it after every trade; it also serves as a safety net for
// any price vector about to be persisted.
package normalize

import (
	"errors"
	"math"
)

var (
	// ErrNegativePrice is returned when an input vector contains a
	// negative price.
	ErrNegativePrice = errors.New("normalize: prices cannot be negative")

	// ErrInvalidBounds is returned for malformed bounds (negative min,
	// non-positive max, or min > max).
	ErrInvalidBounds = errors.New("normalize: invalid price bounds")

	// ErrInfeasibleBounds is returned when no vector within [min, max]^n
	// can sum to 1 (min*n > 1 or max*n < 1).
	ErrInfeasibleBounds = errors.New("normalize: bounds are infeasible for outcome count")

	// ErrNoSlack is returned when the residual left after clamping cannot
	// be absorbed by any element without violating its bound.
	ErrNoSlack = errors.New("normalize: residual adjustment exceeds bounds")
)

// zeroSum is the threshold under which a price sum is treated as zero and
// the vector falls back to uniform probabilities.
const zeroSum = 0.0001

// residualTol is the rounding residual above which the leftover mass is
// folded into a single element.
const residualTol = 1e-7

// boundedResidualTol is the tighter residual threshold used after bounded
// clamping, where the redistribution loop has already absorbed most error.
const boundedResidualTol = 1e-9

// Normalize scales a non-negative price vector so it sums to exactly 1.0.
// An all-zero vector becomes uniform 1/n. Any rounding residual above
// residualTol is added to the current maximum element.
func Normalize(prices []float64) ([]float64, error) {
	n := len(prices)
	if n == 0 {
		return []float64{}, nil
	}

	var sum float64
	for _, p := range prices {
		if p < 0 {
			return nil, ErrNegativePrice
		}
		sum += p
	}

	normalized := make([]float64, n)
	if sum < zeroSum {
		for i := range normalized {
			normalized[i] = 1.0 / float64(n)
		}
		return normalized, nil
	}

	for i, p := range prices {
		normalized[i] = p / sum
	}

	var normalizedSum float64
	for _, p := range normalized {
		normalizedSum += p
	}
	if math.Abs(normalizedSum-1.0) > residualTol {
		maxIdx := 0
		for i, p := range normalized {
			if p > normalized[maxIdx] {
				maxIdx = i
			}
		}
		normalized[maxIdx] += 1.0 - normalizedSum
	}

	return normalized, nil
}

// NormalizeWithBounds normalizes prices so they sum to 1.0 with every
// element in [minPrice, maxPrice].
//
// Algorithm: normalize first, then iteratively clamp violating elements to
// their bound, removing them from the free set, and redistribute the
// remaining budget (1 - Σ clamped) among the free elements proportionally
// to their current value (equally if their sum is zero). Repeats until no
// element violates a bound. A final float residual, if any, is assigned to
// the element with the most slack toward the relevant bound.
func NormalizeWithBounds(prices []float64, minPrice, maxPrice float64) ([]float64, error) {
	n := len(prices)
	if n == 0 {
		return []float64{}, nil
	}
	if minPrice < 0 || maxPrice <= 0 || minPrice > maxPrice {
		return nil, ErrInvalidBounds
	}
	if minPrice*float64(n) > 1.0 || maxPrice*float64(n) < 1.0 {
		return nil, ErrInfeasibleBounds
	}

	normalized, err := Normalize(prices)
	if err != nil {
		return nil, err
	}

	fixed := make([]float64, n)
	isFixed := make([]bool, n)
	free := make([]int, 0, n)
	for i := 0; i < n; i++ {
		free = append(free, i)
	}
	remainingTotal := 1.0

	for {
		changed := false
		nextFree := free[:0]

		for _, i := range free {
			switch {
			case normalized[i] < minPrice:
				fixed[i] = minPrice
				isFixed[i] = true
				remainingTotal -= minPrice
				changed = true
			case normalized[i] > maxPrice:
				fixed[i] = maxPrice
				isFixed[i] = true
				remainingTotal -= maxPrice
				changed = true
			default:
				nextFree = append(nextFree, i)
			}
		}

		free = nextFree
		if !changed {
			break
		}

		if remainingTotal < -boundedResidualTol {
			return nil, ErrInfeasibleBounds
		}
		if remainingTotal < 0 {
			remainingTotal = 0
		}
		if len(free) == 0 {
			break
		}

		var freeSum float64
		for _, i := range free {
			freeSum += normalized[i]
		}
		if freeSum == 0 {
			share := remainingTotal / float64(len(free))
			for _, i := range free {
				normalized[i] = share
			}
		} else {
			for _, i := range free {
				normalized[i] = normalized[i] / freeSum * remainingTotal
			}
		}
	}

	result := make([]float64, n)
	var sum float64
	for i := 0; i < n; i++ {
		if isFixed[i] {
			result[i] = fixed[i]
		} else {
			result[i] = normalized[i]
		}
		sum += result[i]
	}

	// Absorb any remaining float residual into the element with the most
	// slack toward the relevant bound.
	delta := 1.0 - sum
	if math.Abs(delta) > boundedResidualTol {
		bestIdx := -1
		bestSlack := 0.0
		for i, p := range result {
			slack := maxPrice - p
			if delta < 0 {
				slack = p - minPrice
			}
			if slack > bestSlack {
				bestSlack = slack
				bestIdx = i
			}
		}
		if bestIdx == -1 || bestSlack <= 0 {
			return nil, ErrNoSlack
		}
		result[bestIdx] += delta
	}

	return result, nil
}

// ValidatePriceSum reports whether every price is non-negative and the
// vector sums to 1 within tolerance. This is a predicate, not a validator:
// empty and negative inputs return false rather than an error.
func ValidatePriceSum(prices []float64, tolerance float64) bool {
	if len(prices) == 0 {
		return false
	}
	var sum float64
	for _, p := range prices {
		if p < 0 {
			return false
		}
		sum += p
	}
	return math.Abs(sum-1.0) <= tolerance
}

// PriceDeviation returns |Σ prices - 1|, or 0 for an empty vector.
// Used for monitoring and the post-settlement invariant check.
func PriceDeviation(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return math.Abs(sum - 1.0)
}
