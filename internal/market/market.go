// Package market handles market definition validation and construction:
// outcome-set rules, liquidity defaulting, and the uniform opening prices
// every new market starts from.
package market

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openpredict/market-engine/internal/model"
)

// Outcome-set limits. Two outcomes is the binary minimum; the upper limit
// keeps price vectors small enough for single-row persistence and sane UIs.
const (
	MinOutcomes = 2
	MaxOutcomes = 16
)

var (
	ErrEmptyQuestion    = errors.New("market: question must not be empty")
	ErrOutcomeCount     = errors.New("market: outcome count out of range")
	ErrEmptyOutcome     = errors.New("market: outcome labels must not be empty")
	ErrDuplicateOutcome = errors.New("market: outcome labels must be unique")
	ErrInvalidLiquidity = errors.New("market: liquidity parameter b must be positive")
	ErrPastClose        = errors.New("market: resolution time must be in the future")
)

// Definition is the validated input for creating a market.
type Definition struct {
	Question      string    `json:"question"`
	OutcomeLabels []string  `json:"outcomes"`
	B             float64   `json:"b"`         // 0 → default liquidity
	ClosesAt      time.Time `json:"closes_at"` // zero → no scheduled close
	CreatorID     string    `json:"creator_id"`
}

// Validate checks the definition, applying defaultB when no liquidity
// parameter is given.
func (d *Definition) Validate(defaultB float64) error {
	if strings.TrimSpace(d.Question) == "" {
		return ErrEmptyQuestion
	}

	n := len(d.OutcomeLabels)
	if n < MinOutcomes || n > MaxOutcomes {
		return fmt.Errorf("%w: got %d, want %d..%d", ErrOutcomeCount, n, MinOutcomes, MaxOutcomes)
	}

	seen := make(map[string]bool, n)
	for _, label := range d.OutcomeLabels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			return ErrEmptyOutcome
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateOutcome, trimmed)
		}
		seen[key] = true
	}

	if d.B == 0 {
		d.B = defaultB
	}
	if d.B <= 0 {
		return ErrInvalidLiquidity
	}

	if !d.ClosesAt.IsZero() && d.ClosesAt.Before(time.Now().UTC()) {
		return ErrPastClose
	}
	return nil
}

// Build constructs a new market from a validated definition: fresh IDs,
// zero share supply, and uniform 1/n opening prices.
func Build(d Definition) *model.Market {
	m := &model.Market{
		ID:        uuid.New().String(),
		Question:  strings.TrimSpace(d.Question),
		CreatorID: d.CreatorID,
		B:         d.B,
		ClosesAt:  d.ClosesAt,
		CreatedAt: time.Now().UTC(),
	}

	uniform := 1.0 / float64(len(d.OutcomeLabels))
	for i, label := range d.OutcomeLabels {
		m.Outcomes = append(m.Outcomes, model.Outcome{
			ID:       uuid.New().String(),
			MarketID: m.ID,
			Index:    i,
			Label:    strings.TrimSpace(label),
			Price:    uniform,
			Shares:   0,
		})
	}
	return m
}
