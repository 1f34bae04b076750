package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// Crossover es la variante de momentum: cruce de medias móviles sobre el
// precio del target, con un filtro de régimen sobre el anchor — solo se
// abren posiciones mientras BTC cotiza por encima de su media larga.
type Crossover struct {
	fast      int
	slow      int
	regime    int
	entrySize float64
}

// CrossoverConfig configura la estrategia.
type CrossoverConfig struct {
	Fast      int // media rápida (horas)
	Slow      int // media lenta (horas)
	Regime    int // media del anchor para el filtro de régimen
	EntrySize float64
}

// NewCrossover crea la estrategia con la configuración dada.
func NewCrossover(cfg CrossoverConfig) *Crossover {
	if cfg.Fast <= 0 {
		cfg.Fast = 24
	}
	if cfg.Slow <= cfg.Fast {
		cfg.Slow = cfg.Fast * 3
	}
	if cfg.Regime <= 0 {
		cfg.Regime = 168 // una semana de horas
	}
	if cfg.EntrySize <= 0 || cfg.EntrySize > 1 {
		cfg.EntrySize = 0.25
	}
	return &Crossover{fast: cfg.Fast, slow: cfg.Slow, regime: cfg.Regime, entrySize: cfg.EntrySize}
}

// Name implementa Strategy.
func (s *Crossover) Name() string { return "crossover" }

// Universe implementa Strategy.
func (s *Crossover) Universe() domain.Universe {
	return domain.Universe{
		Anchors: []domain.Instrument{
			{Symbol: "BTC", Timeframe: "1H"},
		},
		Targets: []domain.Instrument{
			{Symbol: "MATIC", Timeframe: "1H"},
			{Symbol: "AVAX", Timeframe: "1H"},
			{Symbol: "LINK", Timeframe: "1H"},
		},
	}
}

// GenerateSignals implementa Strategy.
func (s *Crossover) GenerateSignals(anchors, targets *domain.PriceTable) ([]domain.SignalEvent, error) {
	anchorCol := domain.CloseColumn("BTC", "1H")
	rawAnchor, ok := anchors.Column(anchorCol)
	if !ok {
		return nil, fmt.Errorf("crossover: missing column %q in anchor prices", anchorCol)
	}
	anchorPrices := forwardFill(rawAnchor)
	regimeSMA := rollingSMA(anchorPrices, s.regime)

	var events []domain.SignalEvent
	for _, target := range s.Universe().Targets {
		prices, ok := targets.Column(target.CloseColumn())
		if !ok {
			continue
		}
		events = append(events, s.symbolSignals(targets, target.Symbol, prices, anchorPrices, regimeSMA)...)
	}

	domain.SortEvents(events)
	return events, nil
}

func (s *Crossover) symbolSignals(targets *domain.PriceTable, symbol string, prices, anchorPrices, regimeSMA []float64) []domain.SignalEvent {
	rows, pv, _ := jointRows(prices, anchorPrices)
	if len(rows) < s.slow+1 {
		return nil
	}

	fastSMA := rollingSMA(pv, s.fast)
	slowSMA := rollingSMA(pv, s.slow)

	var events []domain.SignalEvent
	state := stateFlat

	for i := 1; i < len(rows); i++ {
		if math.IsNaN(fastSMA[i]) || math.IsNaN(slowSMA[i]) ||
			math.IsNaN(fastSMA[i-1]) || math.IsNaN(slowSMA[i-1]) {
			continue
		}
		row := rows[i]

		goldenCross := fastSMA[i-1] <= slowSMA[i-1] && fastSMA[i] > slowSMA[i]
		deathCross := fastSMA[i-1] >= slowSMA[i-1] && fastSMA[i] < slowSMA[i]

		switch state {
		case stateFlat:
			if goldenCross && s.bullRegime(anchorPrices, regimeSMA, row) {
				events = append(events, domain.SignalEvent{
					Timestamp:    targets.Timestamp(row),
					Symbol:       symbol,
					Signal:       domain.SignalBuy,
					PositionSize: s.entrySize,
				})
				state = stateLong
			}

		case stateLong:
			if deathCross || !s.bullRegime(anchorPrices, regimeSMA, row) {
				events = append(events, domain.SignalEvent{
					Timestamp:    targets.Timestamp(row),
					Symbol:       symbol,
					Signal:       domain.SignalSell,
					PositionSize: 1.0,
				})
				state = stateFlat
			}
		}
	}
	return events
}

// bullRegime devuelve true si el anchor cotiza por encima de su media
// larga en la fila dada. Sin dato de régimen no se abren posiciones.
func (s *Crossover) bullRegime(anchorPrices, regimeSMA []float64, row int) bool {
	if row >= len(regimeSMA) || math.IsNaN(regimeSMA[row]) || math.IsNaN(anchorPrices[row]) {
		return false
	}
	return anchorPrices[row] > regimeSMA[row]
}
