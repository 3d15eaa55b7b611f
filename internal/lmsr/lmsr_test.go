package lmsr

import (
	"math"
	"testing"
)

// --- Cost function tests ---

func TestCost_InvalidLiquidity(t *testing.T) {
	for _, b := range []float64{0, -50} {
		if _, err := Cost([]float64{0, 0}, b); err != ErrInvalidLiquidity {
			t.Errorf("expected ErrInvalidLiquidity for b=%v, got %v", b, err)
		}
	}
}

func TestCost_EmptyVector(t *testing.T) {
	c, err := Cost(nil, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != 0 {
		t.Errorf("empty share vector should cost 0, got %f", c)
	}
}

func TestCost_AtOrigin(t *testing.T) {
	// C(0,..,0) = b * ln(n)
	c, err := Cost([]float64{0, 0, 0}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := 100 * math.Log(3)
	if math.Abs(c-expected) > 1e-9 {
		t.Errorf("expected cost %f at origin, got %f", expected, c)
	}
}

// --- Price function tests ---

func TestPrices_UniformAtZeroShares(t *testing.T) {
	prices, err := Prices([]float64{0, 0, 0, 0}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range prices {
		if p != 0.25 {
			t.Errorf("expected uniform 0.25 at index %d, got %f", i, p)
		}
	}
}

func TestPrices_EqualSharesEqualPrices(t *testing.T) {
	prices, err := Prices([]float64{10, 10}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(prices[0]-0.5) > 1e-9 || math.Abs(prices[1]-0.5) > 1e-9 {
		t.Errorf("equal shares should price 0.5/0.5, got %v", prices)
	}
}

func TestPrices_SumToOne(t *testing.T) {
	tests := [][]float64{
		{0, 0},
		{10, 0},
		{30, 10, 5},
		{100, 200, 50, 75},
		{500, 100},
		{-50, 30, 0},
	}
	for _, shares := range tests {
		prices, err := Prices(shares, 100)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", shares, err)
		}
		var sum float64
		for _, p := range prices {
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("prices should sum to 1 for q=%v, got sum=%.12f", shares, sum)
		}
	}
}

func TestPrices_Monotonicity(t *testing.T) {
	before, _ := Prices([]float64{10, 10, 10}, 100)
	after, _ := Prices([]float64{20, 10, 10}, 100)

	if after[0] <= before[0] {
		t.Errorf("raising q_0 should raise p_0: before=%f after=%f", before[0], after[0])
	}
	for i := 1; i < 3; i++ {
		if after[i] >= before[i] {
			t.Errorf("raising q_0 should lower p_%d: before=%f after=%f", i, before[i], after[i])
		}
	}
}

func TestPrices_ExtremeQuantities_NoOverflow(t *testing.T) {
	tests := []struct {
		name   string
		shares []float64
	}{
		{"very large first", []float64{100000, 0}},
		{"both large equal", []float64{100000, 100000}},
		{"large asymmetric", []float64{100000, 50000, 25000}},
		{"very negative", []float64{-100000, 0}},
		{"both very negative", []float64{-100000, -100000}},
		{"overflow-scale values", []float64{1e15, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices, err := Prices(tt.shares, 100)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var sum float64
			for _, p := range prices {
				if math.IsNaN(p) || p < 0 || p > 1 {
					t.Errorf("price out of [0,1]: %v", prices)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("prices should sum to 1, got %.12f", sum)
			}
		})
	}
}

// --- Trade pricing tests ---

func TestBuyCost_Positive(t *testing.T) {
	cost, err := BuyCost([]float64{0, 0}, 0, 10, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost <= 0 {
		t.Errorf("buy cost should be positive, got %f", cost)
	}
}

func TestBuyCost_InvalidInputs(t *testing.T) {
	if _, err := BuyCost([]float64{0, 0}, 5, 10, 100); err != ErrInvalidOutcome {
		t.Errorf("expected ErrInvalidOutcome, got %v", err)
	}
	if _, err := BuyCost([]float64{0, 0}, -1, 10, 100); err != ErrInvalidOutcome {
		t.Errorf("expected ErrInvalidOutcome for negative index, got %v", err)
	}
	if _, err := BuyCost([]float64{0, 0}, 0, 0, 100); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity for zero qty, got %v", err)
	}
	if _, err := BuyCost([]float64{0, 0}, 0, -5, 100); err != ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity for negative qty, got %v", err)
	}
	if _, err := BuyCost([]float64{0, 0}, 0, 10, 0); err != ErrInvalidLiquidity {
		t.Errorf("expected ErrInvalidLiquidity, got %v", err)
	}
}

func TestSellProceeds_RequiresSupply(t *testing.T) {
	if _, err := SellProceeds([]float64{5, 0}, 0, 10, 100); err != ErrInsufficientSupply {
		t.Errorf("expected ErrInsufficientSupply, got %v", err)
	}
}

func TestBuyCost_PathIndependence(t *testing.T) {
	// Buy 10, then 5 more, should cost the same as buying 15 at once.
	cost1, _ := BuyCost([]float64{0, 0}, 0, 10, 100)
	cost2, _ := BuyCost([]float64{10, 0}, 0, 5, 100)
	direct, _ := BuyCost([]float64{0, 0}, 0, 15, 100)

	if math.Abs((cost1+cost2)-direct) > 1e-5 {
		t.Errorf("LMSR should be path-independent: sequential=%f direct=%f",
			cost1+cost2, direct)
	}
}

func TestBuyCost_Convexity(t *testing.T) {
	// Second batch of 10 costs more than the first (convex cost function).
	cost1, _ := BuyCost([]float64{0, 0}, 0, 10, 100)
	cost2, _ := BuyCost([]float64{10, 0}, 0, 10, 100)
	if cost2 <= cost1 {
		t.Errorf("second batch should cost more: first=%f second=%f", cost1, cost2)
	}
}

func TestSpread_BuyCostCoversSellProceeds(t *testing.T) {
	// Round trip at the same state: buy qty then sell qty back. Convexity
	// makes the buy at least as expensive as the sell, and for small sizes
	// the spread is a tiny fraction of the cost.
	shares := []float64{10, 10}
	qty := 5.0

	buy, err := BuyCost(shares, 0, qty, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sell, err := SellProceeds(bump(shares, 0, qty), 0, qty, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if buy < sell {
		t.Errorf("buy cost %f should be >= sell proceeds %f", buy, sell)
	}
	if (buy-sell)/buy > 0.01 {
		t.Errorf("spread too wide for small trade: buy=%f sell=%f", buy, sell)
	}
}

func TestSpread_NonNegativeAcrossStates(t *testing.T) {
	states := [][]float64{
		{0, 0},
		{50, 10},
		{10, 50, 30},
		{200, 100, 150, 50},
	}
	for _, shares := range states {
		for _, qty := range []float64{1, 10, 100} {
			buy, err := BuyCost(shares, 0, qty, 100)
			if err != nil {
				t.Fatalf("buy error for %v: %v", shares, err)
			}
			sell, err := SellProceeds(bump(shares, 0, qty), 0, qty, 100)
			if err != nil {
				t.Fatalf("sell error for %v: %v", shares, err)
			}
			if buy-sell < -1e-9 {
				t.Errorf("negative spread at q=%v qty=%f: buy=%f sell=%f",
					shares, qty, buy, sell)
			}
		}
	}
}

// --- UpdatedPrices tests ---

func TestUpdatedPrices_BuyMovesPriceUp(t *testing.T) {
	before, _ := Prices([]float64{10, 10}, 100)
	after, err := UpdatedPrices([]float64{10, 10}, 0, 5, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after[0] <= before[0] {
		t.Errorf("buy should raise traded outcome price: %f -> %f", before[0], after[0])
	}
	if after[1] >= before[1] {
		t.Errorf("buy should lower other outcome price: %f -> %f", before[1], after[1])
	}
}

func TestUpdatedPrices_RejectsNegativeSupply(t *testing.T) {
	if _, err := UpdatedPrices([]float64{5, 10}, 0, -10, 100); err != ErrInsufficientSupply {
		t.Errorf("expected ErrInsufficientSupply, got %v", err)
	}
}

// --- Bounded loss ---

func TestMaxLoss_Bounded(t *testing.T) {
	// A trader pushes q_0 very high; the market maker's loss on payout
	// never exceeds b * ln(n).
	initial, _ := Cost([]float64{0, 0}, 100)
	final, _ := Cost([]float64{10000, 0}, 100)
	traderPaid := final - initial
	mmLoss := 10000 - traderPaid

	if bound := MaxLoss(2, 100); mmLoss > bound+1e-6 {
		t.Errorf("market maker loss %f exceeds theoretical bound %f", mmLoss, bound)
	}
}

// --- Internal logSumExp tests ---

func TestLogSumExp_NoOverflow(t *testing.T) {
	result := logSumExp([]float64{1000, 1001})
	if math.IsNaN(result) || math.IsInf(result, 1) {
		t.Errorf("logSumExp should not overflow: got %f", result)
	}
	if result < 1000 || result > 1002 {
		t.Errorf("logSumExp(1000,1001) should be in [1000,1002], got %f", result)
	}
}

func TestLogSumExp_Empty(t *testing.T) {
	if result := logSumExp(nil); !math.IsInf(result, -1) {
		t.Errorf("expected -Inf for empty input, got %f", result)
	}
}

func TestLogSumExp_EqualValues(t *testing.T) {
	// ln(n * exp(x)) = x + ln(n)
	result := logSumExp([]float64{3, 3, 3})
	expected := 3.0 + math.Log(3)
	if math.Abs(result-expected) > 1e-10 {
		t.Errorf("logSumExp([3,3,3]) should be %f, got %f", expected, result)
	}
}
