package backtest

// simulator.go — replay hora a hora de un stream de señales contra la
// tabla de precios. Mantiene cash y posiciones por símbolo, ejecuta
// fills con descuento de fee y produce el portfolio history más el log
// de trades. Todo secuencial: cada timestamp observa el estado que dejó
// el anterior, nunca un estado a medio actualizar.

import (
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// minCashToBuy: por debajo de este cash un BUY no es ejecutable.
const minCashToBuy = 1.0

// SimulatorConfig fija el capital inicial y la fee plana por trade.
type SimulatorConfig struct {
	InitialCapital float64
	FeeRate        float64 // fracción del notional (0.001 = 0.1%)
}

// Result es la salida completa de una simulación.
type Result struct {
	History    []float64 // un valor de cartera por timestamp, en orden
	Trades     []domain.TradeLogEntry
	FinalState domain.PortfolioState
	Skipped    int // eventos descartados por precio ausente
}

// Simulator replays señales contra precios históricos.
type Simulator struct {
	cfg SimulatorConfig
}

// NewSimulator crea un simulador con la configuración dada.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run ejecuta la simulación completa. La tabla marca los timestamps del
// run (una valoración por fila); los eventos se procesan agrupados por
// timestamp en orden ascendente, con desempate por símbolo. La ejecución
// usa siempre el cierre 1H del símbolo del evento: un evento sin precio
// en su instante se descarta sin tocar el estado.
func (s *Simulator) Run(table *domain.PriceTable, universe domain.Universe, events []domain.SignalEvent) (Result, error) {
	if s.cfg.InitialCapital <= 0 {
		return Result{}, fmt.Errorf("backtest.Run: initial capital must be positive, got %v", s.cfg.InitialCapital)
	}
	if table == nil || table.Len() == 0 {
		return Result{}, fmt.Errorf("backtest.Run: empty price table")
	}

	// Columna de ejecución por target. Los anchors no entran en el mapa:
	// cualquier evento sobre un anchor queda sin precio y se descarta.
	execCols := make(map[string]string, len(universe.Targets))
	for _, t := range universe.Targets {
		execCols[t.Symbol] = domain.CloseColumn(t.Symbol, "1H")
	}

	// Orden determinista aunque la estrategia ya lo garantice.
	sorted := make([]domain.SignalEvent, len(events))
	copy(sorted, events)
	domain.SortEvents(sorted)

	state := domain.NewPortfolioState(s.cfg.InitialCapital, universe.Targets)
	result := Result{History: make([]float64, 0, table.Len())}
	next := 0

	for row := 0; row < table.Len(); row++ {
		ts := table.Timestamp(row)

		// Eventos anteriores a esta fila: su instante no existe en la
		// tabla, no hay precio de ejecución posible.
		for next < len(sorted) && sorted[next].Timestamp.Before(ts) {
			s.skip(&result, sorted[next], "timestamp not in price table")
			next++
		}

		// 1. Mark-to-market ANTES de ejecutar los trades de esta hora,
		// con el estado que dejó la hora anterior.
		value := state.Cash
		for symbol, pos := range state.Positions {
			if pos.Shares <= 0 {
				continue
			}
			if price, ok := table.Value(row, execCols[symbol]); ok {
				value += pos.Shares * price
			}
			// Precio ausente: la posición contribuye 0 esta hora, no es error.
		}
		result.History = append(result.History, value)

		// 2. Ejecutar los eventos de este timestamp.
		for next < len(sorted) && sorted[next].Timestamp.Equal(ts) {
			ev := sorted[next]
			next++

			price, ok := table.Value(row, execCols[ev.Symbol])
			if !ok {
				s.skip(&result, ev, "no execution price")
				continue
			}
			s.execute(&state, &result, ev, price)
		}
	}

	// Eventos más allá de la última fila: sin precio, descartados.
	for ; next < len(sorted); next++ {
		s.skip(&result, sorted[next], "timestamp not in price table")
	}

	result.FinalState = state
	return result, nil
}

// execute aplica un evento al estado. Cualquier combinación
// (señal, estado) no contemplada es un no-op.
func (s *Simulator) execute(state *domain.PortfolioState, result *Result, ev domain.SignalEvent, price float64) {
	switch ev.Signal {
	case domain.SignalBuy:
		s.buy(state, result, ev, price)
	case domain.SignalSell:
		s.sell(state, result, ev, price)
	}
}

// buy invierte cash × position_size. La fee sale del importe invertido:
// reduce las shares recibidas, no descuenta el cash dos veces.
func (s *Simulator) buy(state *domain.PortfolioState, result *Result, ev domain.SignalEvent, price float64) {
	if state.Cash <= minCashToBuy || ev.PositionSize <= 0 {
		return
	}

	investment := state.Cash * ev.PositionSize
	fee := investment * s.cfg.FeeRate
	shares := (investment - fee) / price

	pos := state.Positions[ev.Symbol]
	newShares := pos.Shares + shares
	if newShares > 0 {
		// Coste medio ponderado por cash entre el lote viejo y el nuevo.
		pos.AvgCost = (pos.AvgCost*pos.Shares + price*shares) / newShares
	}
	pos.Shares = newShares
	state.Positions[ev.Symbol] = pos
	state.Cash -= investment

	result.Trades = append(result.Trades, domain.TradeLogEntry{
		Timestamp: ev.Timestamp,
		Type:      domain.SignalBuy,
		Symbol:    ev.Symbol,
		Price:     price,
		Shares:    shares,
		Fee:       fee,
	})
}

// sell liquida shares × position_size (1.0 = salida completa). El PnL se
// calcula contra el avg_cost del lote; si la posición queda por debajo
// del epsilon se resetea a {0,0}.
func (s *Simulator) sell(state *domain.PortfolioState, result *Result, ev domain.SignalEvent, price float64) {
	pos := state.Positions[ev.Symbol]
	if pos.Shares <= 0 || ev.PositionSize <= 0 {
		return
	}

	fraction := ev.PositionSize
	if fraction > 1 {
		fraction = 1
	}
	sharesToSell := pos.Shares * fraction
	saleValue := sharesToSell * price
	fee := saleValue * s.cfg.FeeRate
	pnl := (price - pos.AvgCost) * sharesToSell

	state.Cash += saleValue - fee
	pos.Shares -= sharesToSell
	if pos.Shares < domain.SharesEpsilon {
		pos = domain.Position{}
	}
	state.Positions[ev.Symbol] = pos

	result.Trades = append(result.Trades, domain.TradeLogEntry{
		Timestamp: ev.Timestamp,
		Type:      domain.SignalSell,
		Symbol:    ev.Symbol,
		Price:     price,
		Shares:    sharesToSell,
		Fee:       fee,
		PnL:       pnl,
	})
}

// skip registra un evento descartado por precio ausente. Condición
// esperada (huecos de datos), nunca un error duro.
func (s *Simulator) skip(result *Result, ev domain.SignalEvent, reason string) {
	result.Skipped++
	slog.Debug("signal skipped",
		"symbol", ev.Symbol,
		"signal", string(ev.Signal),
		"ts", ev.Timestamp,
		"reason", reason,
	)
}
