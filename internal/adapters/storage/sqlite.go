package storage

// sqlite.go: persistencia de órdenes y sesiones.
//
// Estrategia:
//   - `orders`: una fila por orden colocada (UPSERT por id). Los candidatos
//     nunca se guardan, solo las órdenes que producen.
//   - `sessions`: resumen por sesión; skips y posiciones van como JSON.
//   - Prune automático al arrancar: sesiones y órdenes terminales > 90d.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id             TEXT PRIMARY KEY,
    session_id     TEXT     NOT NULL,
    market_id      TEXT     NOT NULL,
    condition_id   TEXT,
    token_id       TEXT,
    title          TEXT,
    outcome        TEXT     NOT NULL,
    stake          TEXT     NOT NULL,
    matched        TEXT     NOT NULL DEFAULT '0',
    price          REAL     NOT NULL DEFAULT 0,
    max_price      REAL     NOT NULL DEFAULT 0,
    neg_risk       INTEGER  NOT NULL DEFAULT 0,
    status         TEXT     NOT NULL,
    venue_order_id TEXT,
    confidence     REAL     NOT NULL DEFAULT 0,
    rationale      TEXT,
    citations      TEXT,
    placed_at      DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id               TEXT PRIMARY KEY,
    mode             TEXT     NOT NULL,
    started_at       DATETIME NOT NULL,
    finished_at      DATETIME NOT NULL,
    iterations       INTEGER  NOT NULL DEFAULT 0,
    starting_balance TEXT     NOT NULL,
    final_balance    TEXT     NOT NULL,
    total_invested   TEXT     NOT NULL,
    candidates       INTEGER  NOT NULL DEFAULT 0,
    orders_placed    INTEGER  NOT NULL DEFAULT 0,
    duplicates       INTEGER  NOT NULL DEFAULT 0,
    skips            TEXT,
    positions        TEXT
);

CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id);
CREATE INDEX IF NOT EXISTS idx_orders_status  ON orders(status);
CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(started_at DESC);
`

const retention = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.OrderStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveOrder inserta o reemplaza la orden completa.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, o domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders (
			id, session_id, market_id, condition_id, token_id, title, outcome,
			stake, matched, price, max_price, neg_risk, status, venue_order_id,
			confidence, rationale, citations, placed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.SessionID, o.MarketID, o.ConditionID, o.TokenID, o.Title, o.Outcome,
		o.Stake.String(), o.Matched.String(), o.Price, o.MaxPrice, boolToInt(o.NegRisk), string(o.Status), o.VenueOrderID,
		o.Confidence, o.Rationale, joinCitations(o.Citations), o.PlacedAt.UTC(), updatedAt(o).UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveOrder %s: %w", o.ID, err)
	}
	return nil
}

// UpdateOrderStatus cambia solo el estado. Devuelve domain.ErrNotFound si
// la orden no existe.
func (s *SQLiteStorage) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("storage.UpdateOrderStatus %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.UpdateOrderStatus %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("storage.UpdateOrderStatus %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetOrdersBySession devuelve las órdenes de una sesión en orden de colocación.
func (s *SQLiteStorage) GetOrdersBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, market_id, condition_id, token_id, title, outcome,
		       stake, matched, price, max_price, neg_risk, status, venue_order_id,
		       confidence, rationale, citations, placed_at, updated_at
		FROM orders
		WHERE session_id = ?
		ORDER BY placed_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOrdersBySession: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var (
			o                                  domain.Order
			condID, tokenID, title, venueID    sql.NullString
			rationale, citations, stake, state string
			matched                            string
			negRisk                            int
		)
		if err := rows.Scan(
			&o.ID, &o.SessionID, &o.MarketID, &condID, &tokenID, &title, &o.Outcome,
			&stake, &matched, &o.Price, &o.MaxPrice, &negRisk, &state, &venueID,
			&o.Confidence, &rationale, &citations, &o.PlacedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetOrdersBySession: scan: %w", err)
		}
		o.ConditionID = condID.String
		o.TokenID = tokenID.String
		o.Title = title.String
		o.VenueOrderID = venueID.String
		o.NegRisk = negRisk != 0
		o.Status = domain.OrderStatus(state)
		o.Rationale = rationale
		o.Citations = splitCitations(citations)
		if o.Stake, err = decimal.NewFromString(stake); err != nil {
			return nil, fmt.Errorf("storage.GetOrdersBySession: stake %q: %w", stake, err)
		}
		if o.Matched, err = decimal.NewFromString(matched); err != nil {
			return nil, fmt.Errorf("storage.GetOrdersBySession: matched %q: %w", matched, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SaveSession persiste el resumen de la sesión.
func (s *SQLiteStorage) SaveSession(ctx context.Context, r domain.SessionReport) error {
	skips, err := json.Marshal(r.Skips)
	if err != nil {
		return fmt.Errorf("storage.SaveSession: marshal skips: %w", err)
	}
	positions, err := json.Marshal(r.Positions)
	if err != nil {
		return fmt.Errorf("storage.SaveSession: marshal positions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (
			id, mode, started_at, finished_at, iterations,
			starting_balance, final_balance, total_invested,
			candidates, orders_placed, duplicates, skips, positions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Mode(), r.StartedAt.UTC(), r.FinishedAt.UTC(), r.Iterations,
		r.StartingBalance.String(), r.FinalBalance.String(), r.TotalInvested.String(),
		r.CandidatesConsidered, r.OrdersPlaced, r.DuplicatesPrevented, string(skips), string(positions),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSession %s: %w", r.SessionID, err)
	}
	return nil
}

// GetSession recupera el resumen de una sesión guardada.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (domain.SessionReport, error) {
	var (
		r                            domain.SessionReport
		mode, start, final, invested string
		skips, positions             sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mode, started_at, finished_at, iterations,
		       starting_balance, final_balance, total_invested,
		       candidates, orders_placed, duplicates, skips, positions
		FROM sessions WHERE id = ?`, id,
	).Scan(
		&r.SessionID, &mode, &r.StartedAt, &r.FinishedAt, &r.Iterations,
		&start, &final, &invested,
		&r.CandidatesConsidered, &r.OrdersPlaced, &r.DuplicatesPrevented, &skips, &positions,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionReport{}, fmt.Errorf("storage.GetSession %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.SessionReport{}, fmt.Errorf("storage.GetSession %s: %w", id, err)
	}

	r.Live = mode == "live"
	r.StartingBalance, _ = decimal.NewFromString(start)
	r.FinalBalance, _ = decimal.NewFromString(final)
	r.TotalInvested, _ = decimal.NewFromString(invested)
	if skips.Valid && skips.String != "" {
		if err := json.Unmarshal([]byte(skips.String), &r.Skips); err != nil {
			return domain.SessionReport{}, fmt.Errorf("storage.GetSession: skips: %w", err)
		}
	}
	if positions.Valid && positions.String != "" {
		if err := json.Unmarshal([]byte(positions.String), &r.Positions); err != nil {
			return domain.SessionReport{}, fmt.Errorf("storage.GetSession: positions: %w", err)
		}
	}
	return r, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina sesiones antiguas y sus órdenes terminales.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	s.db.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, cutoff)
	s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE updated_at < ? AND status IN ('REJECTED','FILLED','EXPIRED','CANCELLED')`,
		cutoff,
	)
}

func updatedAt(o domain.Order) time.Time {
	if o.UpdatedAt.IsZero() {
		return o.PlacedAt
	}
	return o.UpdatedAt
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinCitations(c []int) string {
	parts := make([]string, len(c))
	for i, n := range c {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitCitations(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
