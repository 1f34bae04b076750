package domain

import "time"

// SharesEpsilon: por debajo de este umbral una posición se considera
// cerrada y se resetea a {0,0}, para que el avg_cost de un lote viejo no
// se filtre en un lote futuro por deriva de coma flotante.
const SharesEpsilon = 1e-9

// Position es el estado mutable por símbolo durante una simulación.
// AvgCost solo tiene significado mientras Shares > 0.
type Position struct {
	Shares  float64
	AvgCost float64
}

// PortfolioState es el estado completo de la cartera: cash más posiciones
// por símbolo. Lo posee en exclusiva el simulador durante un run.
type PortfolioState struct {
	Cash      float64
	Positions map[string]Position
}

// NewPortfolioState crea el estado inicial con todo en cash y una
// posición plana por cada target.
func NewPortfolioState(cash float64, targets []Instrument) PortfolioState {
	positions := make(map[string]Position, len(targets))
	for _, t := range targets {
		positions[t.Symbol] = Position{}
	}
	return PortfolioState{Cash: cash, Positions: positions}
}

// TradeLogEntry es una fila del log de operaciones ejecutadas.
// PnL solo se calcula en SELL: (precio de salida − avg_cost) × shares
// vendidas. Los BUY registran PnL = 0.
type TradeLogEntry struct {
	Timestamp time.Time
	Type      Signal
	Symbol    string
	Price     float64
	Shares    float64
	Fee       float64
	PnL       float64
}
