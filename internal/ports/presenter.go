package ports

import (
	"context"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// Presenter presenta los resultados de un backtest al usuario.
// El core solo calcula números; el formato es cosa del adapter.
type Presenter interface {
	// PresentRun muestra las métricas finales y los cutoff checks.
	PresentRun(ctx context.Context, run domain.BacktestRun, trades []domain.TradeLogEntry) error

	// PresentHistory muestra runs pasados.
	PresentHistory(ctx context.Context, runs []domain.BacktestRun) error
}
