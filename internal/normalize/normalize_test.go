package normalize

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func sumOf(prices []float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum
}

// --- Normalize tests ---

func TestNormalize_Basic(t *testing.T) {
	result, err := Normalize([]float64{0.3, 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result[0], 0.5, 1e-12) || !almostEqual(result[1], 0.5, 1e-12) {
		t.Errorf("expected [0.5 0.5], got %v", result)
	}
}

func TestNormalize_AllZeros_Uniform(t *testing.T) {
	result, err := Normalize([]float64{0, 0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range result {
		if !almostEqual(p, 1.0/3.0, 1e-12) {
			t.Errorf("expected uniform 1/3 at index %d, got %f", i, p)
		}
	}
}

func TestNormalize_NegativePrice(t *testing.T) {
	if _, err := Normalize([]float64{0.3, -0.1, 0.5}); err != ErrNegativePrice {
		t.Errorf("expected ErrNegativePrice, got %v", err)
	}
}

func TestNormalize_Empty(t *testing.T) {
	result, err := Normalize(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
}

func TestNormalize_SumsToOne(t *testing.T) {
	tests := [][]float64{
		{0.1, 0.2, 0.3},
		{1, 2, 3, 4},
		{0.9999, 0.0001},
		{5, 5, 5, 5, 5},
		{0.333, 0.333, 0.333},
	}
	for _, prices := range tests {
		result, err := Normalize(prices)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", prices, err)
		}
		if !almostEqual(sumOf(result), 1.0, 1e-12) {
			t.Errorf("normalize(%v) sums to %.15f, want 1", prices, sumOf(result))
		}
	}
}

// --- NormalizeWithBounds tests ---

func TestNormalizeWithBounds_ClampsHigh(t *testing.T) {
	result, err := NormalizeWithBounds([]float64{0.9, 0.1}, 0.2, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result[0], 0.8, 1e-9) || !almostEqual(result[1], 0.2, 1e-9) {
		t.Errorf("expected [0.8 0.2], got %v", result)
	}
}

func TestNormalizeWithBounds_InfeasibleMin(t *testing.T) {
	// 0.6 * 2 = 1.2 > 1: no feasible vector exists.
	if _, err := NormalizeWithBounds([]float64{0.5, 0.5}, 0.6, 0.7); err != ErrInfeasibleBounds {
		t.Errorf("expected ErrInfeasibleBounds, got %v", err)
	}
}

func TestNormalizeWithBounds_InfeasibleMax(t *testing.T) {
	// 0.2 * 4 = 0.8 < 1.
	if _, err := NormalizeWithBounds([]float64{1, 1, 1, 1}, 0.0, 0.2); err != ErrInfeasibleBounds {
		t.Errorf("expected ErrInfeasibleBounds, got %v", err)
	}
}

func TestNormalizeWithBounds_InvalidBounds(t *testing.T) {
	if _, err := NormalizeWithBounds([]float64{0.5, 0.5}, 0.8, 0.2); err != ErrInvalidBounds {
		t.Errorf("expected ErrInvalidBounds for min > max, got %v", err)
	}
	if _, err := NormalizeWithBounds([]float64{0.5, 0.5}, -0.1, 0.8); err != ErrInvalidBounds {
		t.Errorf("expected ErrInvalidBounds for negative min, got %v", err)
	}
}

func TestNormalizeWithBounds_WithinBoundsUnchanged(t *testing.T) {
	result, err := NormalizeWithBounds([]float64{0.4, 0.6}, 0.01, 0.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result[0], 0.4, 1e-9) || !almostEqual(result[1], 0.6, 1e-9) {
		t.Errorf("expected [0.4 0.6], got %v", result)
	}
}

func TestNormalizeWithBounds_MultiOutcomeClamp(t *testing.T) {
	// One dominant outcome gets clamped to max; the rest split the budget
	// proportionally. Everything stays within bounds and sums to 1.
	result, err := NormalizeWithBounds([]float64{10, 1, 1}, 0.05, 0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(result[0], 0.7, 1e-9) {
		t.Errorf("expected dominant outcome clamped to 0.7, got %f", result[0])
	}
	if !almostEqual(result[1], 0.15, 1e-9) || !almostEqual(result[2], 0.15, 1e-9) {
		t.Errorf("expected remaining split [0.15 0.15], got %v", result[1:])
	}
	if !almostEqual(sumOf(result), 1.0, 1e-9) {
		t.Errorf("bounded result sums to %.12f, want 1", sumOf(result))
	}
}

func TestNormalizeWithBounds_CascadingClamps(t *testing.T) {
	// Redistribution can push a previously-fine element over its bound;
	// the clamp loop has to iterate.
	result, err := NormalizeWithBounds([]float64{0.02, 0.5, 0.48}, 0.1, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range result {
		if p < 0.1-1e-9 || p > 0.5+1e-9 {
			t.Errorf("element %d out of bounds: %f", i, p)
		}
	}
	if !almostEqual(sumOf(result), 1.0, 1e-9) {
		t.Errorf("result sums to %.12f, want 1", sumOf(result))
	}
}

func TestNormalizeWithBounds_AllZeros(t *testing.T) {
	result, err := NormalizeWithBounds([]float64{0, 0, 0, 0}, 0.01, 0.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range result {
		if !almostEqual(p, 0.25, 1e-9) {
			t.Errorf("expected uniform 0.25 at index %d, got %f", i, p)
		}
	}
}

// --- Predicate tests ---

func TestValidatePriceSum(t *testing.T) {
	tests := []struct {
		name      string
		prices    []float64
		tolerance float64
		want      bool
	}{
		{"exact", []float64{0.5, 0.5}, 0.001, true},
		{"within tolerance", []float64{0.5005, 0.5}, 0.001, true},
		{"outside tolerance", []float64{0.6, 0.5}, 0.001, false},
		{"negative price", []float64{1.5, -0.5}, 0.001, false},
		{"empty", nil, 0.001, false},
		{"three outcomes", []float64{0.2, 0.3, 0.5}, 0.001, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePriceSum(tt.prices, tt.tolerance); got != tt.want {
				t.Errorf("ValidatePriceSum(%v, %v) = %v, want %v",
					tt.prices, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestPriceDeviation(t *testing.T) {
	if dev := PriceDeviation(nil); dev != 0 {
		t.Errorf("empty input should deviate 0, got %f", dev)
	}
	if dev := PriceDeviation([]float64{0.5, 0.5}); !almostEqual(dev, 0, 1e-12) {
		t.Errorf("expected deviation 0, got %f", dev)
	}
	if dev := PriceDeviation([]float64{0.6, 0.6}); !almostEqual(dev, 0.2, 1e-12) {
		t.Errorf("expected deviation 0.2, got %f", dev)
	}
}
