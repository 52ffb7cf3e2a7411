package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/signal"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
	defaultQueueSize  = 4096
)

// Config configures the SQLite journal.
type Config struct {
	DBPath    string // path to SQLite database file, e.g. "data/tradingbot.db"
	QueueSize int    // buffered ticks awaiting a batch commit
}

// Journal records ticks, signal decisions and alerts. Ticks are batched by
// a single writer goroutine (Run); decisions and alerts are written inline.
type Journal struct {
	db    *sql.DB
	ticks chan model.Tick

	dropped atomic.Uint64

	// OnCommit is called after each tick batch commit (for metrics).
	OnCommit func(n int, d time.Duration)
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Open creates or opens the database with WAL mode and schema.
func Open(cfg Config) (*Journal, error) {
	db, err := openDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	qs := cfg.QueueSize
	if qs <= 0 {
		qs = defaultQueueSize
	}

	log.Printf("[sqlite] opened journal at %s", cfg.DBPath)
	return &Journal{db: db, ticks: make(chan model.Tick, qs)}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ticks (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			price  REAL    NOT NULL,
			volume REAL    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ticks_symbol_ts ON ticks (symbol, ts);

		CREATE TABLE IF NOT EXISTS signal_decisions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol        TEXT    NOT NULL,
			signal        TEXT    NOT NULL,
			approved      INTEGER NOT NULL,
			reason        TEXT,
			position_size REAL,
			risk_reward   REAL,
			created_at    INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			alert_type TEXT    NOT NULL,
			priority   TEXT    NOT NULL,
			message    TEXT    NOT NULL,
			data       TEXT,
			ts         INTEGER NOT NULL
		);
	`)
	return err
}

// RecordTick queues a tick for the next batch. It never blocks; when the
// queue is full the tick is dropped and counted.
func (j *Journal) RecordTick(ctx context.Context, t model.Tick) error {
	select {
	case j.ticks <- t:
	default:
		j.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of ticks dropped on a full queue.
func (j *Journal) Dropped() uint64 { return j.dropped.Load() }

// Run drains queued ticks and inserts them in batched transactions.
// Flushes every batchSize ticks OR every flushDelay, whichever first.
// Blocks until ctx is cancelled.
func (j *Journal) Run(ctx context.Context) {
	batch := make([]model.Tick, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := j.insertTicks(batch); err != nil {
			log.Printf("[sqlite] tick batch insert error: %v", err)
		} else if j.OnCommit != nil {
			j.OnCommit(len(batch), time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// Drain whatever is already queued.
			for {
				select {
				case t := <-j.ticks:
					batch = append(batch, t)
					if len(batch) >= defaultBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}

		case t := <-j.ticks:
			batch = append(batch, t)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// insertTicks inserts a batch of ticks in a single transaction.
func (j *Journal) insertTicks(ticks []model.Tick) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO ticks (symbol, ts, price, volume) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range ticks {
		if _, err := stmt.Exec(t.Symbol, t.TS.UnixNano(), t.Price, t.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// RecordDecision stores a validated signal and its outcome.
func (j *Journal) RecordDecision(ctx context.Context, sig signal.TradeSignal, d signal.Decision) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	var reason sql.NullString
	if d.Reason != nil {
		reason = sql.NullString{String: d.Reason.Error(), Valid: true}
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO signal_decisions (symbol, signal, approved, reason, position_size, risk_reward, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sig.Symbol, string(data), d.Approved, reason, d.PositionSize, d.RiskReward, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite insert decision: %w", err)
	}
	return nil
}

func (j *Journal) Name() string { return "sqlite" }

// Deliver implements model.AlertSink.
func (j *Journal) Deliver(ctx context.Context, a model.Alert) error {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("marshal alert data: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO alerts (symbol, alert_type, priority, message, data, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Symbol, string(a.Type), string(a.Priority), a.Message, string(data), a.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite insert alert: %w", err)
	}
	return nil
}

// Close closes the database. Run must have returned first.
func (j *Journal) Close() error {
	return j.db.Close()
}
