// Package trade provides the HTTP handlers and settlement logic for
// executing trades, resolving markets, and querying positions and history.
//
// All monetary values use shopspring/decimal — never float64 for money.
// Share quantities and prices stay float64 because the pricing math does.
package trade

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/config"
	"github.com/openpredict/market-engine/internal/lmsr"
	"github.com/openpredict/market-engine/internal/market"
	"github.com/openpredict/market-engine/internal/metrics"
	"github.com/openpredict/market-engine/internal/model"
	"github.com/openpredict/market-engine/internal/normalize"
	"github.com/openpredict/market-engine/internal/pricing"
	"github.com/openpredict/market-engine/internal/store"
)

// Money amounts derived from float pricing are rounded to this scale
// before touching a balance.
const moneyScale = 8

var (
	// ErrMarketResolved is returned when trading against a resolved market.
	ErrMarketResolved = errors.New("trade: market is resolved")

	// ErrMarketClosed is returned when trading after the market's close time.
	ErrMarketClosed = errors.New("trade: market is closed")

	// ErrAlreadyResolved is returned when resolving a market twice.
	ErrAlreadyResolved = errors.New("trade: market already resolved")

	// ErrInsufficientFunds is returned when a buyer cannot cover cost plus fee.
	ErrInsufficientFunds = errors.New("trade: insufficient funds")

	// ErrInsufficientShares is returned when a seller holds fewer shares
	// than they are trying to sell.
	ErrInsufficientShares = errors.New("trade: insufficient shares")

	// ErrUnauthorized is returned when the resolution caller is neither
	// the market creator nor an admin.
	ErrUnauthorized = errors.New("trade: not authorized to resolve")

	// ErrInvariantViolation aborts a settlement whose post-trade price sum
	// drifted beyond the configured tolerance. This is an engine bug
	// surfacing, never a bad request.
	ErrInvariantViolation = errors.New("trade: price sum invariant violated")

	// ErrInvalidSide is returned for a trade side other than BUY or SELL.
	ErrInvalidSide = errors.New("trade: side must be BUY or SELL")
)

// Service handles settlement, resolution, and the HTTP API. All writes to
// a market go through the store's per-market transaction scope, so two
// trades on the same market can never interleave.
type Service struct {
	store    store.Store
	cfg      *config.Config
	strategy pricing.Strategy
	feeRate  decimal.Decimal
	wsHub    *WSHub // optional hub for real-time broadcasts
}

// NewService creates a trade service. Pass nil for hub if WebSocket
// broadcasting is not needed.
func NewService(st store.Store, cfg *config.Config, strategy pricing.Strategy, hub *WSHub) *Service {
	return &Service{
		store:    st,
		cfg:      cfg,
		strategy: strategy,
		feeRate:  decimal.NewFromFloat(cfg.FeeRate),
		wsHub:    hub,
	}
}

// Receipt summarizes one committed settlement.
type Receipt struct {
	TradeID    string          `json:"trade_id"`
	UserID     string          `json:"user_id"`
	MarketID   string          `json:"market_id"`
	OutcomeID  string          `json:"outcome_id"`
	Side       string          `json:"side"`
	Shares     float64         `json:"shares"`
	Price      float64         `json:"price"` // outcome price before the trade
	Cost       decimal.Decimal `json:"cost"`  // gross, before fee
	Fee        decimal.Decimal `json:"fee"`
	Total      decimal.Decimal `json:"total"` // cost+fee on buys, cost-fee on sells
	NewBalance decimal.Decimal `json:"new_balance"`
	Prices     []float64       `json:"prices"` // post-trade price vector
}

// Quote is a dry-run price estimate; nothing is persisted.
type Quote struct {
	OutcomeID string          `json:"outcome_id"`
	Side      string          `json:"side"`
	Shares    float64         `json:"shares"`
	Cost      decimal.Decimal `json:"cost"`
	Fee       decimal.Decimal `json:"fee"`
	Total     decimal.Decimal `json:"total"`
	Prices    []float64       `json:"prices"` // price vector if the trade executed
}

// Payout is one winning position's credit in a resolution.
type Payout struct {
	UserID string          `json:"user_id"`
	Shares float64         `json:"shares"`
	Amount decimal.Decimal `json:"amount"`
}

// ResolutionResult summarizes a committed resolution.
type ResolutionResult struct {
	MarketID         string          `json:"market_id"`
	WinningOutcomeID string          `json:"winning_outcome_id"`
	Payouts          []Payout        `json:"payouts"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
}

// Execute settles one trade atomically: it validates, prices, checks the
// post-trade price-sum invariant, and commits balance, position, outcome,
// and ledger writes together. Any error leaves the market untouched.
func (s *Service) Execute(ctx context.Context, userID, outcomeID, side string, shares float64) (*Receipt, error) {
	start := time.Now()

	if side != model.SideBuy && side != model.SideSell {
		return nil, ErrInvalidSide
	}
	if shares <= 0 || math.IsNaN(shares) || math.IsInf(shares, 0) {
		return nil, pricing.ErrInvalidQuantity
	}

	marketID, err := s.store.MarketIDForOutcome(ctx, outcomeID)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	err = s.store.WithMarketTx(ctx, marketID, func(tx store.Tx) error {
		m, err := tx.Market(marketID)
		if err != nil {
			return err
		}
		if m.IsResolved {
			return ErrMarketResolved
		}
		if !m.ClosesAt.IsZero() && time.Now().UTC().After(m.ClosesAt) {
			return ErrMarketClosed
		}

		idx := m.OutcomeIndex(outcomeID)
		if idx < 0 {
			return pricing.ErrInvalidOutcome
		}

		st := pricing.State{Prices: m.PriceVector(), Shares: m.ShareVector(), B: m.B}
		execPrice := st.Prices[idx]

		var gross float64
		var delta float64
		if side == model.SideBuy {
			gross, err = s.strategy.BuyCost(st, idx, shares)
			delta = shares
		} else {
			gross, err = s.strategy.SellProceeds(st, idx, shares)
			delta = -shares
		}
		if err != nil {
			return err
		}

		cost := decimal.NewFromFloat(gross).Round(moneyScale)
		fee := cost.Mul(s.feeRate).Round(moneyScale)

		user, err := tx.User(userID)
		if err != nil {
			return err
		}

		var total, balanceDelta decimal.Decimal
		if side == model.SideBuy {
			total = cost.Add(fee)
			if user.Balance.LessThan(total) {
				return ErrInsufficientFunds
			}
			balanceDelta = total.Neg()
		} else {
			pos, err := tx.Position(userID, outcomeID)
			if errors.Is(err, store.ErrNotFound) {
				return ErrInsufficientShares
			}
			if err != nil {
				return err
			}
			if pos.Shares < shares {
				return ErrInsufficientShares
			}
			total = cost.Sub(fee)
			balanceDelta = total
		}

		newPrices, err := s.strategy.PricesAfter(st, idx, delta)
		if err != nil {
			return err
		}

		deviation := normalize.PriceDeviation(newPrices)
		metrics.PriceSumDeviation.Observe(deviation)
		if !normalize.ValidatePriceSum(newPrices, s.cfg.PriceSumTolerance) {
			metrics.InvariantViolations.Inc()
			slog.Error("price sum invariant violated, aborting settlement",
				"market", marketID,
				"outcome", outcomeID,
				"side", side,
				"deviation", deviation,
				"strategy", s.strategy.Name(),
			)
			return ErrInvariantViolation
		}
		if deviation > s.cfg.PriceSumWarnTolerance {
			slog.Warn("price sum drifting",
				"market", marketID,
				"deviation", deviation,
				"strategy", s.strategy.Name(),
			)
		}

		newBalance, err := tx.AdjustBalance(userID, balanceDelta)
		if err != nil {
			return err
		}
		if err := tx.UpsertPosition(userID, outcomeID, marketID, delta); err != nil {
			return err
		}
		for i, o := range m.Outcomes {
			supply := o.Shares
			if i == idx {
				supply += delta
			}
			if err := tx.UpdateOutcome(o.ID, newPrices[i], supply); err != nil {
				return err
			}
		}

		rec := &model.Trade{
			ID:        uuid.New().String(),
			UserID:    userID,
			MarketID:  marketID,
			OutcomeID: outcomeID,
			Side:      side,
			Shares:    shares,
			Price:     execPrice,
			Cost:      cost,
			Fee:       fee,
			Timestamp: time.Now().UTC(),
		}
		if err := tx.InsertTrade(rec); err != nil {
			return err
		}

		receipt = &Receipt{
			TradeID:    rec.ID,
			UserID:     userID,
			MarketID:   marketID,
			OutcomeID:  outcomeID,
			Side:       side,
			Shares:     shares,
			Price:      execPrice,
			Cost:       cost,
			Fee:        fee,
			Total:      total,
			NewBalance: newBalance,
			Prices:     newPrices,
		}
		return nil
	})
	if err != nil {
		metrics.TradeRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	metrics.TradesTotal.WithLabelValues(side, s.strategy.Name()).Inc()
	metrics.TradeLatency.WithLabelValues(side).Observe(time.Since(start).Seconds())

	slog.Info("trade settled",
		"trade_id", receipt.TradeID,
		"user", userID,
		"market", marketID,
		"outcome", outcomeID,
		"side", side,
		"shares", shares,
		"cost", receipt.Cost.String(),
		"fee", receipt.Fee.String(),
		"strategy", s.strategy.Name(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "trade",
			MarketID:  marketID,
			OutcomeID: outcomeID,
			Side:      side,
			Shares:    shares,
		})
		s.broadcastPrices(ctx, marketID)
	}

	return receipt, nil
}

// QuoteTrade prices a trade without executing it.
func (s *Service) QuoteTrade(ctx context.Context, outcomeID, side string, shares float64) (*Quote, error) {
	if side != model.SideBuy && side != model.SideSell {
		return nil, ErrInvalidSide
	}
	if shares <= 0 || math.IsNaN(shares) || math.IsInf(shares, 0) {
		return nil, pricing.ErrInvalidQuantity
	}

	marketID, err := s.store.MarketIDForOutcome(ctx, outcomeID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if m.IsResolved {
		return nil, ErrMarketResolved
	}

	idx := m.OutcomeIndex(outcomeID)
	if idx < 0 {
		return nil, pricing.ErrInvalidOutcome
	}
	st := pricing.State{Prices: m.PriceVector(), Shares: m.ShareVector(), B: m.B}

	var gross float64
	var delta float64
	if side == model.SideBuy {
		gross, err = s.strategy.BuyCost(st, idx, shares)
		delta = shares
	} else {
		gross, err = s.strategy.SellProceeds(st, idx, shares)
		delta = -shares
	}
	if err != nil {
		return nil, err
	}

	cost := decimal.NewFromFloat(gross).Round(moneyScale)
	fee := cost.Mul(s.feeRate).Round(moneyScale)
	total := cost.Add(fee)
	if side == model.SideSell {
		total = cost.Sub(fee)
	}

	prices, err := s.strategy.PricesAfter(st, idx, delta)
	if err != nil {
		return nil, err
	}

	return &Quote{
		OutcomeID: outcomeID,
		Side:      side,
		Shares:    shares,
		Cost:      cost,
		Fee:       fee,
		Total:     total,
		Prices:    prices,
	}, nil
}

// Resolve marks a market resolved and pays out every winning position at
// one currency unit per share. Only the market creator or an admin may
// resolve, and resolution is one-way.
func (s *Service) Resolve(ctx context.Context, marketID, winningOutcomeID, callerID string) (*ResolutionResult, error) {
	caller, err := s.store.GetUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	var result *ResolutionResult
	err = s.store.WithMarketTx(ctx, marketID, func(tx store.Tx) error {
		m, err := tx.Market(marketID)
		if err != nil {
			return err
		}
		if m.IsResolved {
			return ErrAlreadyResolved
		}
		if caller.ID != m.CreatorID && !caller.IsAdmin {
			return ErrUnauthorized
		}
		if m.OutcomeIndex(winningOutcomeID) < 0 {
			return pricing.ErrInvalidOutcome
		}

		positions, err := tx.PositionsByOutcome(winningOutcomeID)
		if err != nil {
			return err
		}

		result = &ResolutionResult{
			MarketID:         marketID,
			WinningOutcomeID: winningOutcomeID,
			Payouts:          []Payout{},
			TotalPaid:        decimal.Zero,
		}
		for _, p := range positions {
			amount := decimal.NewFromFloat(p.Shares).Round(moneyScale)
			if _, err := tx.AdjustBalance(p.UserID, amount); err != nil {
				return err
			}
			result.Payouts = append(result.Payouts, Payout{
				UserID: p.UserID,
				Shares: p.Shares,
				Amount: amount,
			})
			result.TotalPaid = result.TotalPaid.Add(amount)
		}

		return tx.MarkResolved(marketID, winningOutcomeID)
	})
	if err != nil {
		return nil, err
	}

	metrics.MarketsResolved.Inc()
	paid, _ := result.TotalPaid.Float64()
	metrics.PayoutsTotal.Add(paid)

	slog.Info("market resolved",
		"market", marketID,
		"winning_outcome", winningOutcomeID,
		"resolver", callerID,
		"payouts", len(result.Payouts),
		"total_paid", result.TotalPaid.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "resolved",
			MarketID:  marketID,
			OutcomeID: winningOutcomeID,
		})
	}

	return result, nil
}

func (s *Service) broadcastPrices(ctx context.Context, marketID string) {
	m, err := s.store.GetMarket(ctx, marketID)
	if err != nil {
		return
	}
	prices := make(map[string]float64, len(m.Outcomes))
	for _, o := range m.Outcomes {
		prices[o.ID] = o.Price
	}
	s.wsHub.Broadcast(WSMessage{
		Type:     "prices",
		MarketID: marketID,
		Prices:   prices,
	})
}

// rejectionReason buckets settlement errors for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientShares),
		errors.Is(err, pricing.ErrInsufficientSupply),
		errors.Is(err, lmsr.ErrInsufficientSupply):
		return "insufficient_shares"
	case errors.Is(err, ErrMarketResolved), errors.Is(err, ErrAlreadyResolved):
		return "market_resolved"
	case errors.Is(err, ErrMarketClosed):
		return "market_closed"
	case errors.Is(err, ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidOutcome),
		errors.Is(err, lmsr.ErrInvalidQuantity),
		errors.Is(err, lmsr.ErrInvalidOutcome),
		errors.Is(err, lmsr.ErrInvalidLiquidity),
		errors.Is(err, ErrInvalidSide):
		return "invalid_request"
	default:
		return "error"
	}
}

// --- HTTP Handlers ---

// CreateUserRequest is the JSON body for POST /api/v1/users.
type CreateUserRequest struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// CreateUser handles POST /api/v1/users
func (s *Service) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Balance:   s.cfg.InitialBalance,
		IsAdmin:   req.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("user created", "id", user.ID, "name", user.Name, "balance", user.Balance.String())

	writeJSON(w, http.StatusCreated, user)
}

// GetUser handles GET /api/v1/users/{userID}
func (s *Service) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateMarket handles POST /api/v1/markets
func (s *Service) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var def market.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := def.Validate(s.cfg.DefaultLiquidity); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.store.GetUser(r.Context(), def.CreatorID); err != nil {
		writeError(w, "creator not found", http.StatusNotFound)
		return
	}

	m := market.Build(def)
	if err := s.store.CreateMarket(r.Context(), m); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("market created",
		"id", m.ID,
		"question", m.Question,
		"outcomes", len(m.Outcomes),
		"b", m.B,
		"creator", m.CreatorID,
	)

	writeJSON(w, http.StatusCreated, m)
}

// ListMarkets handles GET /api/v1/markets
func (s *Service) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.store.ListMarkets(r.Context())
	if err != nil {
		writeError(w, "failed to list markets", http.StatusInternalServerError)
		return
	}
	if markets == nil {
		markets = []model.Market{}
	}
	writeJSON(w, http.StatusOK, markets)
}

// GetMarket handles GET /api/v1/markets/{marketID}
func (s *Service) GetMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	m, err := s.store.GetMarket(r.Context(), marketID)
	if err != nil {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GetPrices handles GET /api/v1/markets/{marketID}/prices
func (s *Service) GetPrices(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	m, err := s.store.GetMarket(r.Context(), marketID)
	if err != nil {
		writeError(w, "market not found", http.StatusNotFound)
		return
	}

	prices := make(map[string]float64, len(m.Outcomes))
	for _, o := range m.Outcomes {
		prices[o.ID] = o.Price
	}
	writeJSON(w, http.StatusOK, prices)
}

// TradeRequest is the JSON body for POST /api/v1/trades.
type TradeRequest struct {
	UserID    string  `json:"user_id"`
	OutcomeID string  `json:"outcome_id"`
	Side      string  `json:"side"` // "BUY" or "SELL"
	Shares    float64 `json:"shares"`
}

// ExecuteTrade handles POST /api/v1/trades
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.OutcomeID == "" {
		writeError(w, "user_id and outcome_id are required", http.StatusBadRequest)
		return
	}

	receipt, err := s.Execute(r.Context(), req.UserID, req.OutcomeID, req.Side, req.Shares)
	if err != nil {
		writeError(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// GetQuote handles GET /api/v1/outcomes/{outcomeID}/quote?side=BUY&shares=10
func (s *Service) GetQuote(w http.ResponseWriter, r *http.Request) {
	outcomeID := chi.URLParam(r, "outcomeID")
	side := r.URL.Query().Get("side")

	shares, err := strconv.ParseFloat(r.URL.Query().Get("shares"), 64)
	if err != nil {
		writeError(w, "shares must be a number", http.StatusBadRequest)
		return
	}

	quote, err := s.QuoteTrade(r.Context(), outcomeID, side, shares)
	if err != nil {
		writeError(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ResolveRequest is the JSON body for POST /api/v1/markets/{marketID}/resolve.
type ResolveRequest struct {
	CallerID  string `json:"caller_id"`
	OutcomeID string `json:"outcome_id"`
}

// ResolveMarket handles POST /api/v1/markets/{marketID}/resolve
func (s *Service) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CallerID == "" || req.OutcomeID == "" {
		writeError(w, "caller_id and outcome_id are required", http.StatusBadRequest)
		return
	}

	result, err := s.Resolve(r.Context(), marketID, req.OutcomeID, req.CallerID)
	if err != nil {
		writeError(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetMarketTrades handles GET /api/v1/markets/{marketID}/trades
func (s *Service) GetMarketTrades(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	trades, err := s.store.TradesByMarket(r.Context(), marketID)
	if err != nil {
		writeError(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// GetUserTrades handles GET /api/v1/users/{userID}/trades
func (s *Service) GetUserTrades(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	trades, err := s.store.TradesByUser(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to load trades", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	writeJSON(w, http.StatusOK, trades)
}

// GetUserPositions handles GET /api/v1/users/{userID}/positions
func (s *Service) GetUserPositions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	positions, err := s.store.PositionsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to load positions", http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

// errorStatus maps settlement errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMarketResolved),
		errors.Is(err, ErrMarketClosed),
		errors.Is(err, ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientShares),
		errors.Is(err, pricing.ErrInsufficientSupply),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidOutcome),
		errors.Is(err, lmsr.ErrInsufficientSupply),
		errors.Is(err, lmsr.ErrInvalidQuantity),
		errors.Is(err, lmsr.ErrInvalidOutcome),
		errors.Is(err, lmsr.ErrInvalidLiquidity),
		errors.Is(err, ErrInvalidSide):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvariantViolation):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
