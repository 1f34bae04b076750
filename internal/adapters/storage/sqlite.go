package storage

// sqlite.go — persistencia local en un único archivo SQLite.
//
// Dos responsabilidades:
//   - `candles`: cache de velas OHLCV por (symbol, timeframe, open_time),
//     upsert idempotente. Evita re-descargar meses de histórico en cada run.
//   - `runs`: una fila por backtest completado, con todas las métricas y
//     los cutoff checks, para comparar estrategias a lo largo del tiempo.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/pairtrader/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Cache de velas del data provider
CREATE TABLE IF NOT EXISTS candles (
    symbol    TEXT     NOT NULL,
    timeframe TEXT     NOT NULL,
    open_time DATETIME NOT NULL,
    open      REAL     NOT NULL,
    high      REAL     NOT NULL,
    low       REAL     NOT NULL,
    close     REAL     NOT NULL,
    volume    REAL     NOT NULL,
    PRIMARY KEY (symbol, timeframe, open_time)
);

-- Un backtest completado por fila
CREATE TABLE IF NOT EXISTS runs (
    id               TEXT PRIMARY KEY,
    strategy         TEXT     NOT NULL,
    from_ts          DATETIME NOT NULL,
    to_ts            DATETIME NOT NULL,
    initial_capital  REAL     NOT NULL,
    fee_rate         REAL     NOT NULL,
    final_value      REAL     NOT NULL DEFAULT 0,
    total_return_pct REAL     NOT NULL DEFAULT 0,
    sharpe_ratio     REAL     NOT NULL DEFAULT 0,
    max_drawdown_pct REAL     NOT NULL DEFAULT 0,
    trades           INTEGER  NOT NULL DEFAULT 0,
    sells            INTEGER  NOT NULL DEFAULT 0,
    wins             INTEGER  NOT NULL DEFAULT 0,
    win_rate_pct     REAL     NOT NULL DEFAULT 0,
    pass_return      INTEGER  NOT NULL DEFAULT 0,
    pass_sharpe      INTEGER  NOT NULL DEFAULT 0,
    pass_drawdown    INTEGER  NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candles_lookup ON candles(symbol, timeframe, open_time);
CREATE INDEX IF NOT EXISTS idx_runs_created   ON runs(created_at DESC);
`

// SQLiteStorage implementa ports.CandleStore y ports.RunStore usando
// SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y
// aplica el schema.
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

	return &SQLiteStorage{db: db}, nil
}

// SaveCandles hace upsert del lote en una transacción.
func (s *SQLiteStorage) SaveCandles(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCandles: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timeframe, open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timeframe, open_time) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("storage.SaveCandles: prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx,
			c.Instrument.Symbol, c.Instrument.Timeframe, c.OpenTime.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		); err != nil {
			return fmt.Errorf("storage.SaveCandles: insert %s@%s: %w", c.Instrument, c.OpenTime, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCandles: commit: %w", err)
	}
	return nil
}

// LoadCandles devuelve las velas del instrumento en [from, to] por
// open_time ascendente.
func (s *SQLiteStorage) LoadCandles(ctx context.Context, inst domain.Instrument, from, to time.Time) ([]domain.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT open_time, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND open_time BETWEEN ? AND ?
		ORDER BY open_time ASC`,
		inst.Symbol, inst.Timeframe, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("storage.LoadCandles: query %s: %w", inst, err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		c := domain.Candle{Instrument: inst}
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("storage.LoadCandles: scan: %w", err)
		}
		c.OpenTime = c.OpenTime.UTC()
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// SaveRun persiste un backtest completado.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.BacktestRun) error {
	perf := run.Performance
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, strategy, from_ts, to_ts, initial_capital, fee_rate,
			final_value, total_return_pct, sharpe_ratio, max_drawdown_pct,
			trades, sells, wins, win_rate_pct,
			pass_return, pass_sharpe, pass_drawdown, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.From.UTC(), run.To.UTC(),
		run.InitialCapital, run.FeeRate,
		perf.FinalValue, perf.TotalReturnPct, perf.SharpeRatio, perf.MaxDrawdownPct,
		perf.Trades, perf.Sells, perf.Wins, perf.WinRatePct,
		boolToInt(perf.PassReturn), boolToInt(perf.PassSharpe), boolToInt(perf.PassDrawdown),
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: insert %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns devuelve los últimos runs, el más reciente primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.BacktestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strategy, from_ts, to_ts, initial_capital, fee_rate,
		       final_value, total_return_pct, sharpe_ratio, max_drawdown_pct,
		       trades, sells, wins, win_rate_pct,
		       pass_return, pass_sharpe, pass_drawdown, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.BacktestRun
	for rows.Next() {
		var run domain.BacktestRun
		var passReturn, passSharpe, passDrawdown int
		if err := rows.Scan(
			&run.ID, &run.Strategy, &run.From, &run.To,
			&run.InitialCapital, &run.FeeRate,
			&run.Performance.FinalValue, &run.Performance.TotalReturnPct,
			&run.Performance.SharpeRatio, &run.Performance.MaxDrawdownPct,
			&run.Performance.Trades, &run.Performance.Sells,
			&run.Performance.Wins, &run.Performance.WinRatePct,
			&passReturn, &passSharpe, &passDrawdown, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan: %w", err)
		}
		run.Performance.InitialCapital = run.InitialCapital
		run.Performance.PassReturn = passReturn != 0
		run.Performance.PassSharpe = passSharpe != 0
		run.Performance.PassDrawdown = passDrawdown != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close cierra la conexión limpiamente.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
