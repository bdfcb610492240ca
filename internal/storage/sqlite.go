package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/perf"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the dashboard can read while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			created_at       INTEGER NOT NULL,
			symbol           TEXT,
			inverse_symbol   TEXT,
			start_date       INTEGER,
			end_date         INTEGER,
			initial_capital  REAL,
			final_capital    REAL,
			total_return_pct REAL,
			sharpe_ratio     REAL,
			max_drawdown_pct REAL,
			win_rate_pct     REAL,
			total_trades     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id              TEXT PRIMARY KEY,
			run_id          TEXT NOT NULL,
			seq             INTEGER NOT NULL,
			timestamp       INTEGER NOT NULL,
			symbol          TEXT,
			side            TEXT,
			quantity        INTEGER,
			price           REAL,
			value           REAL,
			signal_strength REAL,
			confidence      REAL,
			reason          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, seq)`,

		`CREATE TABLE IF NOT EXISTS equity (
			run_id TEXT NOT NULL,
			date   INTEGER NOT NULL,
			value  REAL NOT NULL,
			PRIMARY KEY (run_id, date)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(params engine.Params, result *engine.Result, summary *perf.Summary) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, symbol, inverse_symbol, start_date, end_date,
		 initial_capital, final_capital, total_return_pct, sharpe_ratio,
		 max_drawdown_pct, win_rate_pct, total_trades)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), params.Symbol, params.InverseSymbol,
		result.StartDate.Unix(), result.EndDate.Unix(),
		result.InitialCapital, result.FinalCapital, result.TotalReturnPct,
		summary.SharpeRatio, summary.MaxDrawdown*100, summary.WinRate*100,
		summary.TotalTrades,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, t := range result.Trades {
		_, err = tx.Exec(`INSERT INTO trades
			(id, run_id, seq, timestamp, symbol, side, quantity, price,
			 value, signal_strength, confidence, reason)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
			t.ID, runID, i, t.Timestamp.Unix(), t.Symbol, string(t.Side),
			t.Quantity, t.Price, t.Value, t.SignalStrength, t.Confidence,
			string(t.Reason),
		)
		if err != nil {
			return "", fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	for _, pv := range result.DailyValues {
		_, err = tx.Exec(`INSERT INTO equity (run_id, date, value) VALUES (?,?,?)`,
			runID, pv.Date.Unix(), pv.Value)
		if err != nil {
			return "", fmt.Errorf("insert equity point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func (r *SQLiteRecorder) Runs(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`SELECT id, created_at, symbol, inverse_symbol,
		start_date, end_date, initial_capital, final_capital,
		total_return_pct, sharpe_ratio, max_drawdown_pct, win_rate_pct,
		total_trades
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Run(id string) (*RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.db.QueryRow(`SELECT id, created_at, symbol, inverse_symbol,
		start_date, end_date, initial_capital, final_capital,
		total_return_pct, sharpe_ratio, max_drawdown_pct, win_rate_pct,
		total_trades
		FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var createdAt, startDate, endDate int64
	err := row.Scan(&rec.ID, &createdAt, &rec.Symbol, &rec.InverseSymbol,
		&startDate, &endDate, &rec.InitialCapital, &rec.FinalCapital,
		&rec.TotalReturnPct, &rec.SharpeRatio, &rec.MaxDrawdownPct,
		&rec.WinRatePct, &rec.TotalTrades)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.StartDate = time.Unix(startDate, 0).UTC()
	rec.EndDate = time.Unix(endDate, 0).UTC()
	return &rec, nil
}

func (r *SQLiteRecorder) Trades(runID string) ([]models.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, symbol, side, quantity,
		price, value, signal_strength, confidence, reason
		FROM trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		var ts int64
		var side, reason string
		if err := rows.Scan(&t.ID, &ts, &t.Symbol, &side, &t.Quantity,
			&t.Price, &t.Value, &t.SignalStrength, &t.Confidence, &reason); err != nil {
			return nil, err
		}
		t.Timestamp = time.Unix(ts, 0).UTC()
		t.Side = models.Side(side)
		t.Reason = models.CloseReason(reason)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Equity(runID string) ([]models.PortfolioValue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT date, value FROM equity
		WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, fmt.Errorf("query equity: %w", err)
	}
	defer rows.Close()

	var out []models.PortfolioValue
	for rows.Next() {
		var pv models.PortfolioValue
		var date int64
		if err := rows.Scan(&date, &pv.Value); err != nil {
			return nil, err
		}
		pv.Date = time.Unix(date, 0).UTC()
		out = append(out, pv)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
