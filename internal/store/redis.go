package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for market, user, and position reads. Settlement transactions run
// against the primary; on commit the cache entries for the market and every
// touched user are invalidated so the next read re-populates them.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, populate or invalidate cache) ---

func (s *CachedStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.primary.CreateUser(ctx, u); err != nil {
		return err
	}
	s.cacheJSON(ctx, userKey(u.ID), u)
	return nil
}

func (s *CachedStore) CreateMarket(ctx context.Context, m *model.Market) error {
	if err := s.primary.CreateMarket(ctx, m); err != nil {
		return err
	}
	s.cacheJSON(ctx, marketKey(m.ID), m)
	return nil
}

// WithMarketTx delegates to the primary with a recording wrapper that tracks
// which users the callback touched, then invalidates their cache entries
// along with the market's after a successful commit.
func (s *CachedStore) WithMarketTx(ctx context.Context, marketID string, fn func(Tx) error) error {
	rec := &recordingTx{}
	err := s.primary.WithMarketTx(ctx, marketID, func(tx Tx) error {
		rec.Tx = tx
		return fn(rec)
	})
	if err != nil {
		return err
	}

	keys := []string{marketKey(marketID)}
	for _, userID := range rec.touchedUsers {
		keys = append(keys, userKey(userID), positionsKey(userID))
	}
	s.rdb.Del(ctx, keys...)
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if s.readJSON(ctx, userKey(id), &u) {
		return &u, nil
	}

	user, err := s.primary.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, userKey(id), user)
	return user, nil
}

func (s *CachedStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	var m model.Market
	if s.readJSON(ctx, marketKey(id), &m) {
		return &m, nil
	}

	market, err := s.primary.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, marketKey(id), market)
	return market, nil
}

func (s *CachedStore) PositionsByUser(ctx context.Context, userID string) ([]model.Position, error) {
	var positions []model.Position
	if s.readJSON(ctx, positionsKey(userID), &positions) {
		return positions, nil
	}

	positions, err := s.primary.PositionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, positionsKey(userID), positions)
	return positions, nil
}

func (s *CachedStore) MarketIDForOutcome(ctx context.Context, outcomeID string) (string, error) {
	// The outcome→market mapping is immutable, so it never needs invalidation.
	marketID, err := s.rdb.Get(ctx, outcomeKey(outcomeID)).Result()
	if err == nil {
		return marketID, nil
	}

	marketID, err = s.primary.MarketIDForOutcome(ctx, outcomeID)
	if err != nil {
		return "", err
	}
	s.rdb.Set(ctx, outcomeKey(outcomeID), marketID, s.ttl)
	return marketID, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	return s.primary.ListMarkets(ctx)
}

func (s *CachedStore) TradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error) {
	return s.primary.TradesByMarket(ctx, marketID)
}

func (s *CachedStore) TradesByUser(ctx context.Context, userID string) ([]model.Trade, error) {
	return s.primary.TradesByUser(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheJSON(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func (s *CachedStore) readJSON(ctx context.Context, key string, v any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func marketKey(id string) string        { return fmt.Sprintf("market:%s", id) }
func userKey(id string) string          { return fmt.Sprintf("user:%s", id) }
func positionsKey(userID string) string { return fmt.Sprintf("positions:%s", userID) }
func outcomeKey(id string) string       { return fmt.Sprintf("outcome:%s", id) }

// recordingTx wraps a Tx and records which users were written to, so the
// cache wrapper knows what to invalidate after commit.
type recordingTx struct {
	Tx
	touchedUsers []string
}

func (r *recordingTx) AdjustBalance(userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	r.touch(userID)
	return r.Tx.AdjustBalance(userID, delta)
}

func (r *recordingTx) UpsertPosition(userID, outcomeID, marketID string, delta float64) error {
	r.touch(userID)
	return r.Tx.UpsertPosition(userID, outcomeID, marketID, delta)
}

func (r *recordingTx) touch(userID string) {
	for _, id := range r.touchedUsers {
		if id == userID {
			return
		}
	}
	r.touchedUsers = append(r.touchedUsers, userID)
}
