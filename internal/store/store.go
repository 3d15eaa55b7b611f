// Package store defines the persistence interface for the market engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrExists is returned when a create collides with an existing record.
	ErrExists = errors.New("store: already exists")
)

// Store is the persistence interface. Settlement and resolution mutate
// state only through WithMarketTx, which serializes all writers of one
// market while leaving other markets fully concurrent.
type Store interface {
	// --- Users ---

	// CreateUser persists a new user with their starting balance.
	CreateUser(ctx context.Context, u *model.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// --- Markets ---

	// CreateMarket persists a new market together with its outcomes.
	CreateMarket(ctx context.Context, m *model.Market) error

	// GetMarket retrieves a market with its outcomes in index order.
	GetMarket(ctx context.Context, id string) (*model.Market, error)

	// ListMarkets returns all markets with their outcomes.
	ListMarkets(ctx context.Context) ([]model.Market, error)

	// MarketIDForOutcome resolves the owning market of an outcome. The
	// mapping is immutable, so it may be read outside any market scope.
	MarketIDForOutcome(ctx context.Context, outcomeID string) (string, error)

	// --- Ledger and position queries ---

	// TradesByMarket returns the immutable trade ledger for a market.
	TradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error)

	// TradesByUser returns a user's trade history.
	TradesByUser(ctx context.Context, userID string) ([]model.Trade, error)

	// PositionsByUser returns a user's open positions.
	PositionsByUser(ctx context.Context, userID string) ([]model.Position, error)

	// --- Transactional mutation ---

	// WithMarketTx runs fn inside an exclusive transaction scope keyed on
	// marketID: reads within fn observe a stable snapshot of the market,
	// and either every write in fn commits or none do. Returning an error
	// from fn rolls everything back.
	WithMarketTx(ctx context.Context, marketID string, fn func(Tx) error) error
}

// Tx is the unit-of-work handle passed to WithMarketTx callbacks. All
// methods operate inside the transaction's scope.
type Tx interface {
	// User reads a user for update.
	User(id string) (*model.User, error)

	// Market reads the locked market with outcomes in index order.
	Market(id string) (*model.Market, error)

	// Position reads a (user, outcome) position; ErrNotFound if the user
	// has never traded that outcome.
	Position(userID, outcomeID string) (*model.Position, error)

	// PositionsByOutcome returns every open position on one outcome.
	PositionsByOutcome(outcomeID string) ([]model.Position, error)

	// AdjustBalance applies a signed delta to a user's balance and
	// returns the new balance.
	AdjustBalance(userID string, delta decimal.Decimal) (decimal.Decimal, error)

	// UpsertPosition applies a signed share delta to a (user, outcome)
	// position, creating it if absent.
	UpsertPosition(userID, outcomeID, marketID string, delta float64) error

	// InsertTrade appends an immutable ledger record.
	InsertTrade(t *model.Trade) error

	// UpdateOutcome persists a new price and share supply for an outcome.
	UpdateOutcome(outcomeID string, price, shares float64) error

	// MarkResolved flips the market to resolved with the winning outcome.
	MarkResolved(marketID, winningOutcomeID string) error
}
