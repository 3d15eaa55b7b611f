package pricing

import (
	"math"
	"testing"
)

func uniformState(n int, b float64) State {
	prices := make([]float64, n)
	shares := make([]float64, n)
	for i := range prices {
		prices[i] = 1.0 / float64(n)
	}
	return State{Prices: prices, Shares: shares, B: b}
}

func sumOf(prices []float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum
}

// Both strategies honor the same contract: positive buy cost, supply-checked
// sells, and post-trade prices that sum to 1.
func TestStrategies_SharedContract(t *testing.T) {
	strategies := []Strategy{
		NewLMSR(),
		NewLinear(0.005, 0.01, 0.99),
	}

	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			st := State{
				Prices: []float64{0.5, 0.5},
				Shares: []float64{10, 10},
				B:      100,
			}

			cost, err := s.BuyCost(st, 0, 5)
			if err != nil {
				t.Fatalf("BuyCost: %v", err)
			}
			if cost <= 0 {
				t.Errorf("buy cost should be positive, got %f", cost)
			}

			if _, err := s.BuyCost(st, 3, 5); err != ErrInvalidOutcome {
				t.Errorf("expected ErrInvalidOutcome, got %v", err)
			}
			if _, err := s.BuyCost(st, 0, 0); err != ErrInvalidQuantity {
				t.Errorf("expected ErrInvalidQuantity, got %v", err)
			}
			if _, err := s.SellProceeds(st, 0, 50); err != ErrInsufficientSupply {
				t.Errorf("expected ErrInsufficientSupply, got %v", err)
			}

			prices, err := s.PricesAfter(st, 0, 5)
			if err != nil {
				t.Fatalf("PricesAfter: %v", err)
			}
			if math.Abs(sumOf(prices)-1) > 1e-9 {
				t.Errorf("post-trade prices sum to %.12f, want 1", sumOf(prices))
			}
			if prices[0] <= st.Prices[0] {
				t.Errorf("buy should raise traded price: %f -> %f", st.Prices[0], prices[0])
			}

			if _, err := s.PricesAfter(st, 0, -50); err != ErrInsufficientSupply {
				t.Errorf("expected ErrInsufficientSupply for oversell delta, got %v", err)
			}
		})
	}
}

func TestLinear_BuyCostIsSpotPrice(t *testing.T) {
	l := NewLinear(0.005, 0.01, 0.99)
	st := State{Prices: []float64{0.4, 0.6}, Shares: []float64{10, 10}}

	cost, err := l.BuyCost(st, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cost-4.0) > 1e-12 {
		t.Errorf("expected cost 10 * 0.4 = 4, got %f", cost)
	}
}

func TestLinear_PriceMoveClampedToMax(t *testing.T) {
	l := NewLinear(0.005, 0.01, 0.99)
	st := State{Prices: []float64{0.98, 0.02}, Shares: []float64{100, 100}}

	// 0.98 + 100*0.005 = 1.48, clamped to 0.99 before renormalization.
	prices, err := l.PricesAfter(st, 0, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices[0] > 0.99+1e-9 {
		t.Errorf("price should be clamped to 0.99, got %f", prices[0])
	}
	if math.Abs(sumOf(prices)-1) > 1e-9 {
		t.Errorf("prices sum to %.12f, want 1", sumOf(prices))
	}
}

func TestLinear_SellMovesPriceDown(t *testing.T) {
	l := NewLinear(0.005, 0.01, 0.99)
	st := State{Prices: []float64{0.5, 0.5}, Shares: []float64{20, 20}}

	prices, err := l.PricesAfter(st, 0, -10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices[0] >= 0.5 {
		t.Errorf("sell should lower traded price, got %f", prices[0])
	}
	if prices[1] <= 0.5 {
		t.Errorf("renormalization should raise the other price, got %f", prices[1])
	}
}

func TestLMSR_MatchesUniformOpen(t *testing.T) {
	s := NewLMSR()
	st := uniformState(4, 100)

	prices, err := s.PricesAfter(st, 0, 0.0001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A near-zero trade barely moves a uniform market.
	for i, p := range prices {
		if math.Abs(p-0.25) > 0.001 {
			t.Errorf("tiny trade should leave prices near 0.25, index %d got %f", i, p)
		}
	}
}
