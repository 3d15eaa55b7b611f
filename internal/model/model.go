// Package model defines the core domain types shared across the market engine.
// Account balances and trade cash flows use shopspring/decimal — never float64
// for money. Share quantities and probability prices are float64 because the
// pricing math (softmax, log-sum-exp) is transcendental.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// User holds the single mutable account balance for a trader.
type User struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	IsAdmin   bool            `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Market is a multi-outcome prediction market. Outcomes is ordered; the
// position of each outcome in the slice is its pricing index. Once IsResolved
// is set the market accepts no further trades and never reverts.
type Market struct {
	ID                string    `json:"id" db:"id"`
	Question          string    `json:"question" db:"question"`
	CreatorID         string    `json:"creator_id" db:"creator_id"`
	B                 float64   `json:"b" db:"b"` // LMSR liquidity parameter, fixed at creation
	IsResolved        bool      `json:"is_resolved" db:"is_resolved"`
	ResolvedOutcomeID string    `json:"resolved_outcome_id,omitempty" db:"resolved_outcome_id"`
	ClosesAt          time.Time `json:"closes_at" db:"closes_at"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	Outcomes          []Outcome `json:"outcomes"`
}

// Outcome is one mutually exclusive result of a market. Price is the current
// probability in (0,1); Shares is the cumulative net share supply (the LMSR
// quantity q_i). Within a market the outcome prices sum to 1 after every
// committed trade.
type Outcome struct {
	ID       string  `json:"id" db:"id"`
	MarketID string  `json:"market_id" db:"market_id"`
	Index    int     `json:"index" db:"idx"`
	Label    string  `json:"label" db:"label"`
	Price    float64 `json:"price" db:"price"`
	Shares   float64 `json:"shares" db:"shares"`
}

// Position is a user's net share holding in one outcome, unique per
// (user, outcome) pair. Created on first trade, incremented by buys,
// decremented by sells, never negative.
type Position struct {
	UserID    string  `json:"user_id" db:"user_id"`
	OutcomeID string  `json:"outcome_id" db:"outcome_id"`
	MarketID  string  `json:"market_id" db:"market_id"`
	Shares    float64 `json:"shares" db:"shares"`
}

// Trade is an immutable ledger record of one settlement.
// Once created, these are never modified or deleted.
type Trade struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	MarketID  string          `json:"market_id" db:"market_id"`
	OutcomeID string          `json:"outcome_id" db:"outcome_id"`
	Side      string          `json:"side" db:"side"` // "BUY" or "SELL"
	Shares    float64         `json:"shares" db:"shares"`
	Price     float64         `json:"price" db:"price"` // outcome price at execution start
	Cost      decimal.Decimal `json:"cost" db:"cost"`   // gross cost or proceeds, before fee
	Fee       decimal.Decimal `json:"fee" db:"fee"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// PriceVector returns the market's outcome prices in index order.
func (m *Market) PriceVector() []float64 {
	prices := make([]float64, len(m.Outcomes))
	for i, o := range m.Outcomes {
		prices[i] = o.Price
	}
	return prices
}

// ShareVector returns the market's outcome supplies in index order.
func (m *Market) ShareVector() []float64 {
	shares := make([]float64, len(m.Outcomes))
	for i, o := range m.Outcomes {
		shares[i] = o.Shares
	}
	return shares
}

// OutcomeIndex returns the index of the outcome with the given ID,
// or -1 if the outcome does not belong to this market.
func (m *Market) OutcomeIndex(outcomeID string) int {
	for i, o := range m.Outcomes {
		if o.ID == outcomeID {
			return i
		}
	}
	return -1
}
