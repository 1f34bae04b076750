package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// MarketDataProvider obtiene la tabla merged de precios históricos para
// un conjunto de instrumentos.
type MarketDataProvider interface {
	// FetchMarketData devuelve una PriceTable con una columna
	// close/high/low/volume por instrumento, a granularidad horaria
	// mínima para los targets, cubriendo [from, to].
	FetchMarketData(ctx context.Context, instruments []domain.Instrument, from, to time.Time) (*domain.PriceTable, error)
}
