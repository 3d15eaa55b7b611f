package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openpredict/market-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Balances and cash flows are stored as NUMERIC for exact decimal precision;
// prices and share quantities as DOUBLE PRECISION. Per-market serialization
// comes from SELECT ... FOR UPDATE on the market row inside WithMarketTx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, balance, is_admin, created_at)
		 VALUES ($1, $2, $3::NUMERIC, $4, $5)`,
		u.ID, u.Name, u.Balance.String(), u.IsAdmin, u.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, name, balance::TEXT, is_admin, created_at
		 FROM users WHERE id = $1`, id), id)
}

func (s *PostgresStore) CreateMarket(ctx context.Context, m *model.Market) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO markets (id, question, creator_id, b, is_resolved, resolved_outcome_id, closes_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		m.ID, m.Question, m.CreatorID, m.B, m.IsResolved, m.ResolvedOutcomeID, m.ClosesAt, m.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, o := range m.Outcomes {
		_, err = tx.Exec(ctx,
			`INSERT INTO outcomes (id, market_id, idx, label, price, shares)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, o.MarketID, o.Index, o.Label, o.Price, o.Shares,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	return getMarket(ctx, s.pool, id)
}

func (s *PostgresStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, question, creator_id, b, is_resolved, COALESCE(resolved_outcome_id, ''), closes_at, created_at
		 FROM markets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		var m model.Market
		if err := rows.Scan(&m.ID, &m.Question, &m.CreatorID, &m.B,
			&m.IsResolved, &m.ResolvedOutcomeID, &m.ClosesAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range markets {
		outcomes, err := getOutcomes(ctx, s.pool, markets[i].ID)
		if err != nil {
			return nil, err
		}
		markets[i].Outcomes = outcomes
	}
	return markets, nil
}

func (s *PostgresStore) MarketIDForOutcome(ctx context.Context, outcomeID string) (string, error) {
	var marketID string
	err := s.pool.QueryRow(ctx,
		`SELECT market_id FROM outcomes WHERE id = $1`, outcomeID).Scan(&marketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: outcome %s", ErrNotFound, outcomeID)
	}
	if err != nil {
		return "", err
	}
	return marketID, nil
}

func (s *PostgresStore) TradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, market_id, outcome_id, side, shares, price, cost::TEXT, fee::TEXT, ts
		 FROM trades WHERE market_id = $1 ORDER BY ts`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (s *PostgresStore) TradesByUser(ctx context.Context, userID string) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, market_id, outcome_id, side, shares, price, cost::TEXT, fee::TEXT, ts
		 FROM trades WHERE user_id = $1 ORDER BY ts`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

func (s *PostgresStore) PositionsByUser(ctx context.Context, userID string) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, outcome_id, market_id, shares
		 FROM positions WHERE user_id = $1 AND shares > 0`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.UserID, &p.OutcomeID, &p.MarketID, &p.Shares); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// WithMarketTx opens a database transaction, locks the market row with
// SELECT ... FOR UPDATE so concurrent settlements on the same market
// serialize, and commits only if fn succeeds.
func (s *PostgresStore) WithMarketTx(ctx context.Context, marketID string, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx,
		`SELECT id FROM markets WHERE id = $1 FOR UPDATE`, marketID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: market %s", ErrNotFound, marketID)
	}
	if err != nil {
		return err
	}

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgTx implements Tx against an open pgx transaction.
type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *pgTx) User(id string) (*model.User, error) {
	return scanUser(t.tx.QueryRow(t.ctx,
		`SELECT id, name, balance::TEXT, is_admin, created_at
		 FROM users WHERE id = $1 FOR UPDATE`, id), id)
}

func (t *pgTx) Market(id string) (*model.Market, error) {
	return getMarket(t.ctx, t.tx, id)
}

func (t *pgTx) Position(userID, outcomeID string) (*model.Position, error) {
	var p model.Position
	err := t.tx.QueryRow(t.ctx,
		`SELECT user_id, outcome_id, market_id, shares
		 FROM positions WHERE user_id = $1 AND outcome_id = $2 FOR UPDATE`,
		userID, outcomeID).
		Scan(&p.UserID, &p.OutcomeID, &p.MarketID, &p.Shares)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: position %s/%s", ErrNotFound, userID, outcomeID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) PositionsByOutcome(outcomeID string) ([]model.Position, error) {
	rows, err := t.tx.Query(t.ctx,
		`SELECT user_id, outcome_id, market_id, shares
		 FROM positions WHERE outcome_id = $1 AND shares > 0`, outcomeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.UserID, &p.OutcomeID, &p.MarketID, &p.Shares); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (t *pgTx) AdjustBalance(userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balanceStr string
	err := t.tx.QueryRow(t.ctx,
		`UPDATE users SET balance = balance + $2::NUMERIC
		 WHERE id = $1
		 RETURNING balance::TEXT`,
		userID, delta.String()).Scan(&balanceStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", balanceStr, err)
	}
	return balance, nil
}

func (t *pgTx) UpsertPosition(userID, outcomeID, marketID string, delta float64) error {
	_, err := t.tx.Exec(t.ctx,
		`INSERT INTO positions (user_id, outcome_id, market_id, shares)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, outcome_id)
		 DO UPDATE SET shares = positions.shares + EXCLUDED.shares`,
		userID, outcomeID, marketID, delta,
	)
	return err
}

func (t *pgTx) InsertTrade(tr *model.Trade) error {
	_, err := t.tx.Exec(t.ctx,
		`INSERT INTO trades (id, user_id, market_id, outcome_id, side, shares, price, cost, fee, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::NUMERIC, $9::NUMERIC, $10)`,
		tr.ID, tr.UserID, tr.MarketID, tr.OutcomeID, tr.Side,
		tr.Shares, tr.Price, tr.Cost.String(), tr.Fee.String(), tr.Timestamp,
	)
	return err
}

func (t *pgTx) UpdateOutcome(outcomeID string, price, shares float64) error {
	tag, err := t.tx.Exec(t.ctx,
		`UPDATE outcomes SET price = $2, shares = $3 WHERE id = $1`,
		outcomeID, price, shares,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outcome %s", ErrNotFound, outcomeID)
	}
	return nil
}

func (t *pgTx) MarkResolved(marketID, winningOutcomeID string) error {
	tag, err := t.tx.Exec(t.ctx,
		`UPDATE markets SET is_resolved = TRUE, resolved_outcome_id = $2
		 WHERE id = $1 AND is_resolved = FALSE`,
		marketID, winningOutcomeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: market %s", ErrNotFound, marketID)
	}
	return nil
}

// --- shared scan helpers ---

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getMarket(ctx context.Context, q pgQuerier, id string) (*model.Market, error) {
	var m model.Market
	err := q.QueryRow(ctx,
		`SELECT id, question, creator_id, b, is_resolved, COALESCE(resolved_outcome_id, ''), closes_at, created_at
		 FROM markets WHERE id = $1`, id).
		Scan(&m.ID, &m.Question, &m.CreatorID, &m.B,
			&m.IsResolved, &m.ResolvedOutcomeID, &m.ClosesAt, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: market %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	outcomes, err := getOutcomes(ctx, q, id)
	if err != nil {
		return nil, err
	}
	m.Outcomes = outcomes
	return &m, nil
}

func getOutcomes(ctx context.Context, q pgQuerier, marketID string) ([]model.Outcome, error) {
	rows, err := q.Query(ctx,
		`SELECT id, market_id, idx, label, price, shares
		 FROM outcomes WHERE market_id = $1 ORDER BY idx`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		if err := rows.Scan(&o.ID, &o.MarketID, &o.Index, &o.Label, &o.Price, &o.Shares); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func scanUser(row pgx.Row, id string) (*model.User, error) {
	var u model.User
	var balanceStr string
	err := row.Scan(&u.ID, &u.Name, &balanceStr, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	u.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balanceStr, err)
	}
	return &u, nil
}

func scanTrades(rows pgx.Rows) ([]model.Trade, error) {
	var trades []model.Trade
	for rows.Next() {
		var tr model.Trade
		var costStr, feeStr string
		if err := rows.Scan(&tr.ID, &tr.UserID, &tr.MarketID, &tr.OutcomeID, &tr.Side,
			&tr.Shares, &tr.Price, &costStr, &feeStr, &tr.Timestamp); err != nil {
			return nil, err
		}
		tr.Cost, _ = decimal.NewFromString(costStr)
		tr.Fee, _ = decimal.NewFromString(feeStr)
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}
