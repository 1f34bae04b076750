package strategy

import (
	"math"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// RSIReversion es la variante contrarian simple: compra en sobreventa y
// liquida en sobrecompra. No usa anchor; el universo declara igualmente
// BTC como referencia para mantener el contrato de metadata completo.
type RSIReversion struct {
	period     int
	oversold   float64
	overbought float64
	entrySize  float64
}

// RSIReversionConfig configura la estrategia.
type RSIReversionConfig struct {
	Period     int
	Oversold   float64
	Overbought float64
	EntrySize  float64
}

// NewRSIReversion crea la estrategia con la configuración dada.
func NewRSIReversion(cfg RSIReversionConfig) *RSIReversion {
	if cfg.Period <= 0 {
		cfg.Period = 14
	}
	if cfg.Oversold <= 0 {
		cfg.Oversold = 30
	}
	if cfg.Overbought <= cfg.Oversold {
		cfg.Overbought = 70
	}
	if cfg.EntrySize <= 0 || cfg.EntrySize > 1 {
		cfg.EntrySize = 0.15
	}
	return &RSIReversion{
		period:     cfg.Period,
		oversold:   cfg.Oversold,
		overbought: cfg.Overbought,
		entrySize:  cfg.EntrySize,
	}
}

// Name implementa Strategy.
func (s *RSIReversion) Name() string { return "rsi" }

// Universe implementa Strategy.
func (s *RSIReversion) Universe() domain.Universe {
	return domain.Universe{
		Anchors: []domain.Instrument{
			{Symbol: "BTC", Timeframe: "1H"},
		},
		Targets: []domain.Instrument{
			{Symbol: "ADA", Timeframe: "1H"},
			{Symbol: "DOT", Timeframe: "1H"},
			{Symbol: "LINK", Timeframe: "1H"},
		},
	}
}

// GenerateSignals implementa Strategy.
func (s *RSIReversion) GenerateSignals(_, targets *domain.PriceTable) ([]domain.SignalEvent, error) {
	var events []domain.SignalEvent
	for _, target := range s.Universe().Targets {
		prices, ok := targets.Column(target.CloseColumn())
		if !ok {
			continue
		}
		events = append(events, s.symbolSignals(targets, target.Symbol, prices)...)
	}

	domain.SortEvents(events)
	return events, nil
}

func (s *RSIReversion) symbolSignals(targets *domain.PriceTable, symbol string, prices []float64) []domain.SignalEvent {
	rows, pv := compactRows(prices)
	if len(rows) < s.period+1 {
		return nil
	}

	rsi := rollingRSI(pv, s.period)

	var events []domain.SignalEvent
	state := stateFlat

	for i, row := range rows {
		if math.IsNaN(rsi[i]) {
			continue
		}

		switch state {
		case stateFlat:
			if rsi[i] < s.oversold {
				events = append(events, domain.SignalEvent{
					Timestamp:    targets.Timestamp(row),
					Symbol:       symbol,
					Signal:       domain.SignalBuy,
					PositionSize: s.entrySize,
				})
				state = stateLong
			}

		case stateLong:
			if rsi[i] > s.overbought {
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

// compactRows filtra los NaN de una serie suelta.
func compactRows(xs []float64) (rows []int, values []float64) {
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		rows = append(rows, i)
		values = append(values, x)
	}
	return rows, values
}
