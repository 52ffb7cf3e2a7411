package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/anand121shah/tradingbot/internal/model"
)

// Reader provides read-only access to the journal for replay and audit.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

func bounds(from, to time.Time) (int64, int64) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if !from.IsZero() {
		lo = from.UnixNano()
	}
	if !to.IsZero() {
		hi = to.UnixNano()
	}
	return lo, hi
}

// ReadTicks returns journaled ticks in [from, to], in arrival order. An
// empty symbol reads every symbol; a zero bound is open.
func (r *Reader) ReadTicks(ctx context.Context, symbol string, from, to time.Time) ([]model.Tick, error) {
	lo, hi := bounds(from, to)
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, ts, price, volume
		FROM ticks
		WHERE (? = '' OR symbol = ?) AND ts >= ? AND ts <= ?
		ORDER BY ts ASC, id ASC
	`, symbol, symbol, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("sqlite query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []model.Tick
	for rows.Next() {
		var t model.Tick
		var ts int64
		if err := rows.Scan(&t.Symbol, &ts, &t.Price, &t.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan ticks: %w", err)
		}
		t.TS = time.Unix(0, ts).UTC()
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// Symbols lists every symbol with journaled ticks, sorted.
func (r *Reader) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM ticks ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReadAlerts returns journaled alerts for symbol ("" for all), newest
// last. limit <= 0 returns everything.
func (r *Reader) ReadAlerts(ctx context.Context, symbol string, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, alert_type, priority, message, data, ts FROM (
			SELECT id, symbol, alert_type, priority, message, data, ts
			FROM alerts
			WHERE (? = '' OR symbol = ?)
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query alerts: %w", err)
	}
	defer rows.Close()

	var out []model.Alert
	for rows.Next() {
		var a model.Alert
		var typ, prio string
		var data sql.NullString
		var ts int64
		if err := rows.Scan(&a.Symbol, &typ, &prio, &a.Message, &data, &ts); err != nil {
			return nil, fmt.Errorf("sqlite scan alerts: %w", err)
		}
		a.Type = model.AlertType(typ)
		a.Priority = model.Priority(prio)
		a.Timestamp = time.Unix(0, ts).UTC()
		if data.Valid && data.String != "" && data.String != "null" {
			if err := json.Unmarshal([]byte(data.String), &a.Data); err != nil {
				return nil, fmt.Errorf("unmarshal alert data: %w", err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountDecisions returns how many signal decisions were approved and rejected.
func (r *Reader) CountDecisions(ctx context.Context) (approved, rejected int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(approved), 0), COALESCE(SUM(1 - approved), 0) FROM signal_decisions
	`).Scan(&approved, &rejected)
	return approved, rejected, err
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
