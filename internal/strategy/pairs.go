package strategy

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// pairState es la máquina de estados por símbolo. Explícita en vez de un
// flag booleano suelto para que las transiciones queden en un solo sitio.
type pairState int

const (
	stateFlat pairState = iota
	stateLong
)

// PairsReversion es la estrategia de pairs trading con reversión a la
// media: compra cuando el ratio target/anchor cae muy por debajo de su
// media móvil y sale por take-profit (reversión a la media) o por
// stop-loss sobre el precio del activo.
type PairsReversion struct {
	lookback    int
	entrySize   float64
	stopLossPct float64
}

// PairsReversionConfig configura la estrategia.
type PairsReversionConfig struct {
	Lookback    int     // ventana de la media y las bandas (horas)
	EntrySize   float64 // fracción del cash por entrada
	StopLossPct float64 // caída de precio desde la entrada que fuerza la salida
}

// NewPairsReversion crea la estrategia con la configuración dada.
func NewPairsReversion(cfg PairsReversionConfig) *PairsReversion {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 48
	}
	if cfg.EntrySize <= 0 || cfg.EntrySize > 1 {
		cfg.EntrySize = 0.2
	}
	if cfg.StopLossPct <= 0 {
		cfg.StopLossPct = 0.03
	}
	return &PairsReversion{
		lookback:    cfg.Lookback,
		entrySize:   cfg.EntrySize,
		stopLossPct: cfg.StopLossPct,
	}
}

// Name implementa Strategy.
func (s *PairsReversion) Name() string { return "pairs" }

// Universe implementa Strategy. BTC y ETH son anchors de referencia y
// nunca se tradean.
func (s *PairsReversion) Universe() domain.Universe {
	return domain.Universe{
		Anchors: []domain.Instrument{
			{Symbol: "BTC", Timeframe: "1H"},
			{Symbol: "ETH", Timeframe: "1H"},
		},
		Targets: []domain.Instrument{
			{Symbol: "MATIC", Timeframe: "1H"},
			{Symbol: "AVAX", Timeframe: "1H"},
			{Symbol: "LINK", Timeframe: "1H"},
			{Symbol: "ADA", Timeframe: "1H"},
			{Symbol: "DOT", Timeframe: "1H"},
		},
	}
}

// GenerateSignals implementa Strategy. Forma un par (target, anchor) por
// cada target y emite solo los eventos BUY/SELL; los HOLD no aportan
// información y se omiten del stream.
func (s *PairsReversion) GenerateSignals(anchors, targets *domain.PriceTable) ([]domain.SignalEvent, error) {
	anchorCol, err := s.anchorColumn(anchors)
	if err != nil {
		return nil, err
	}
	rawAnchor, _ := anchors.Column(anchorCol)
	anchorPrices := forwardFill(rawAnchor)

	var events []domain.SignalEvent
	for _, target := range s.Universe().Targets {
		targetPrices, ok := targets.Column(target.CloseColumn())
		if !ok {
			// Target sin datos: se omite, igual que un evento sin precio.
			continue
		}
		events = append(events, s.pairSignals(targets, target.Symbol, targetPrices, anchorPrices)...)
	}

	domain.SortEvents(events)
	return events, nil
}

// anchorColumn elige el anchor primario (BTC) con fallback a ETH.
func (s *PairsReversion) anchorColumn(anchors *domain.PriceTable) (string, error) {
	for _, symbol := range []string{"BTC", "ETH"} {
		col := domain.CloseColumn(symbol, "1H")
		if anchors.HasColumn(col) {
			return col, nil
		}
	}
	return "", fmt.Errorf("pairs: no anchor price column for BTC or ETH")
}

// pairSignals recorre la serie compacta del par y aplica la FSM
// {FLAT, LONG} por símbolo.
func (s *PairsReversion) pairSignals(targets *domain.PriceTable, symbol string, targetPrices, anchorPrices []float64) []domain.SignalEvent {
	rows, tv, av := jointRows(targetPrices, anchorPrices)
	if len(rows) == 0 {
		return nil
	}

	ratio := make([]float64, len(rows))
	for i := range rows {
		ratio[i] = tv[i] / av[i]
	}
	meanRatio, lowerBand := rollingBollinger(ratio, s.lookback)

	var events []domain.SignalEvent
	state := stateFlat
	entryPrice := 0.0

	for i, row := range rows {
		if math.IsNaN(lowerBand[i]) || math.IsNaN(meanRatio[i]) {
			continue
		}
		price := tv[i]

		switch state {
		case stateFlat:
			if ratio[i] < lowerBand[i] {
				events = append(events, domain.SignalEvent{
					Timestamp:    targets.Timestamp(row),
					Symbol:       symbol,
					Signal:       domain.SignalBuy,
					PositionSize: s.entrySize,
				})
				state = stateLong
				entryPrice = price
			}

		case stateLong:
			takeProfit := ratio[i] >= meanRatio[i]
			stopLoss := (price-entryPrice)/entryPrice <= -s.stopLossPct
			if takeProfit || stopLoss {
				events = append(events, domain.SignalEvent{
					Timestamp:    targets.Timestamp(row),
					Symbol:       symbol,
					Signal:       domain.SignalSell,
					PositionSize: 1.0, // liquidación completa
				})
				state = stateFlat
				entryPrice = 0
			}
		}
	}
	return events
}
