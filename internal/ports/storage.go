package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// CandleStore es la cache local de velas OHLCV del data provider.
type CandleStore interface {
	// SaveCandles hace upsert del lote de velas.
	SaveCandles(ctx context.Context, candles []domain.Candle) error

	// LoadCandles devuelve las velas cacheadas del instrumento en
	// [from, to], ordenadas por open_time ascendente.
	LoadCandles(ctx context.Context, inst domain.Instrument, from, to time.Time) ([]domain.Candle, error)
}

// RunStore persiste los resultados de cada backtest completado.
type RunStore interface {
	// SaveRun persiste un run terminado con todas sus métricas.
	SaveRun(ctx context.Context, run domain.BacktestRun) error

	// ListRuns devuelve los últimos runs, el más reciente primero.
	ListRuns(ctx context.Context, limit int) ([]domain.BacktestRun, error)
}
