package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. WithMarketTx stages every write and applies them only when
// the callback succeeds, so a failed settlement leaves no trace — matching
// the transactional behavior of the PostgreSQL store.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	markets       map[string]*model.Market
	outcomeMarket map[string]string
	positions     map[string]*model.Position // key: userID + "/" + outcomeID
	trades        []model.Trade

	lockMu      sync.Mutex
	marketLocks map[string]*sync.Mutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*model.User),
		markets:       make(map[string]*model.Market),
		outcomeMarket: make(map[string]string),
		positions:     make(map[string]*model.Position),
		marketLocks:   make(map[string]*sync.Mutex),
	}
}

func positionKey(userID, outcomeID string) string {
	return userID + "/" + outcomeID
}

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("%w: user %s", ErrExists, u.ID)
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) CreateMarket(_ context.Context, m *model.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; ok {
		return fmt.Errorf("%w: market %s", ErrExists, m.ID)
	}
	cp := copyMarket(m)
	s.markets[m.ID] = cp
	for _, o := range cp.Outcomes {
		s.outcomeMarket[o.ID] = m.ID
	}
	return nil
}

func (s *MemoryStore) GetMarket(_ context.Context, id string) (*model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return nil, fmt.Errorf("%w: market %s", ErrNotFound, id)
	}
	return copyMarket(m), nil
}

func (s *MemoryStore) ListMarkets(_ context.Context) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]model.Market, 0, len(s.markets))
	for _, m := range s.markets {
		markets = append(markets, *copyMarket(m))
	}
	return markets, nil
}

func (s *MemoryStore) MarketIDForOutcome(_ context.Context, outcomeID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	marketID, ok := s.outcomeMarket[outcomeID]
	if !ok {
		return "", fmt.Errorf("%w: outcome %s", ErrNotFound, outcomeID)
	}
	return marketID, nil
}

func (s *MemoryStore) TradesByMarket(_ context.Context, marketID string) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Trade
	for _, t := range s.trades {
		if t.MarketID == marketID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *MemoryStore) TradesByUser(_ context.Context, userID string) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Trade
	for _, t := range s.trades {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *MemoryStore) PositionsByUser(_ context.Context, userID string) ([]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Position
	for _, p := range s.positions {
		if p.UserID == userID && p.Shares > 0 {
			result = append(result, *p)
		}
	}
	return result, nil
}

// WithMarketTx serializes writers per market: a per-market mutex is held for
// the duration of fn, so concurrent settlements on the same market cannot
// interleave, while other markets proceed in parallel.
func (s *MemoryStore) WithMarketTx(_ context.Context, marketID string, fn func(Tx) error) error {
	lock := s.marketLock(marketID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{
		store:     s,
		balances:  make(map[string]decimal.Decimal),
		outcomes:  make(map[string]model.Outcome),
		positions: make(map[string]*model.Position),
	}
	if err := fn(tx); err != nil {
		return err
	}

	tx.apply()
	return nil
}

func (s *MemoryStore) marketLock(marketID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.marketLocks[marketID]
	if !ok {
		lock = &sync.Mutex{}
		s.marketLocks[marketID] = lock
	}
	return lock
}

// memTx stages writes in local maps; reads see staged state layered over
// the store. apply publishes everything under the store lock. Balance
// changes are staged as signed deltas, not absolute copies: the per-market
// mutex does not serialize the same user trading on two markets at once,
// and applying deltas under the store lock keeps both debits.
type memTx struct {
	store     *MemoryStore
	balances  map[string]decimal.Decimal // staged signed deltas per user
	outcomes  map[string]model.Outcome
	positions map[string]*model.Position
	trades    []model.Trade
	resolved  []resolution
}

type resolution struct {
	marketID  string
	outcomeID string
}

func (tx *memTx) User(id string) (*model.User, error) {
	u, err := tx.store.GetUser(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if delta, ok := tx.balances[id]; ok {
		u.Balance = u.Balance.Add(delta)
	}
	return u, nil
}

func (tx *memTx) Market(id string) (*model.Market, error) {
	m, err := tx.store.GetMarket(context.Background(), id)
	if err != nil {
		return nil, err
	}
	// Overlay staged outcome and resolution writes.
	for i, o := range m.Outcomes {
		if staged, ok := tx.outcomes[o.ID]; ok {
			m.Outcomes[i].Price = staged.Price
			m.Outcomes[i].Shares = staged.Shares
		}
	}
	for _, r := range tx.resolved {
		if r.marketID == id {
			m.IsResolved = true
			m.ResolvedOutcomeID = r.outcomeID
		}
	}
	return m, nil
}

func (tx *memTx) Position(userID, outcomeID string) (*model.Position, error) {
	key := positionKey(userID, outcomeID)
	if p, ok := tx.positions[key]; ok {
		cp := *p
		return &cp, nil
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	p, ok := tx.store.positions[key]
	if !ok {
		return nil, fmt.Errorf("%w: position %s", ErrNotFound, key)
	}
	cp := *p
	return &cp, nil
}

func (tx *memTx) PositionsByOutcome(outcomeID string) ([]model.Position, error) {
	seen := make(map[string]bool)
	var result []model.Position

	for key, p := range tx.positions {
		if p.OutcomeID == outcomeID && p.Shares > 0 {
			result = append(result, *p)
		}
		seen[key] = true
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	for key, p := range tx.store.positions {
		if seen[key] {
			continue
		}
		if p.OutcomeID == outcomeID && p.Shares > 0 {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (tx *memTx) AdjustBalance(userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	u, err := tx.User(userID)
	if err != nil {
		return decimal.Zero, err
	}
	tx.balances[userID] = tx.balances[userID].Add(delta)
	return u.Balance.Add(delta), nil
}

func (tx *memTx) UpsertPosition(userID, outcomeID, marketID string, delta float64) error {
	key := positionKey(userID, outcomeID)

	p, err := tx.Position(userID, outcomeID)
	if err != nil {
		p = &model.Position{
			UserID:    userID,
			OutcomeID: outcomeID,
			MarketID:  marketID,
		}
	}
	p.Shares += delta
	tx.positions[key] = p
	return nil
}

func (tx *memTx) InsertTrade(t *model.Trade) error {
	tx.trades = append(tx.trades, *t)
	return nil
}

func (tx *memTx) UpdateOutcome(outcomeID string, price, shares float64) error {
	tx.store.mu.RLock()
	marketID, ok := tx.store.outcomeMarket[outcomeID]
	tx.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: outcome %s", ErrNotFound, outcomeID)
	}

	tx.outcomes[outcomeID] = model.Outcome{
		ID:       outcomeID,
		MarketID: marketID,
		Price:    price,
		Shares:   shares,
	}
	return nil
}

func (tx *memTx) MarkResolved(marketID, winningOutcomeID string) error {
	tx.resolved = append(tx.resolved, resolution{marketID: marketID, outcomeID: winningOutcomeID})
	return nil
}

// apply publishes all staged writes atomically.
func (tx *memTx) apply() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, delta := range tx.balances {
		if u, ok := s.users[id]; ok {
			u.Balance = u.Balance.Add(delta)
		}
	}
	for key, p := range tx.positions {
		cp := *p
		s.positions[key] = &cp
	}
	for id, staged := range tx.outcomes {
		m, ok := s.markets[staged.MarketID]
		if !ok {
			continue
		}
		for i := range m.Outcomes {
			if m.Outcomes[i].ID == id {
				m.Outcomes[i].Price = staged.Price
				m.Outcomes[i].Shares = staged.Shares
			}
		}
	}
	for _, r := range tx.resolved {
		if m, ok := s.markets[r.marketID]; ok {
			m.IsResolved = true
			m.ResolvedOutcomeID = r.outcomeID
		}
	}
	s.trades = append(s.trades, tx.trades...)
}

func copyMarket(m *model.Market) *model.Market {
	cp := *m
	cp.Outcomes = make([]model.Outcome, len(m.Outcomes))
	copy(cp.Outcomes, m.Outcomes)
	return &cp
}
