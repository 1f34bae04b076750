package domain

import (
	"sort"
	"time"
)

// Signal es la intención de trading de una estrategia para un símbolo.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Valid devuelve true si el token es uno de los tres conocidos.
func (s Signal) Valid() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// SignalEvent es una intención de trading puntual: (timestamp, símbolo,
// señal, tamaño). PositionSize ∈ [0,1]: en BUY es la fracción del cash
// disponible a invertir; en SELL es la fracción de la posición actual a
// liquidar (1.0 = salida completa).
type SignalEvent struct {
	Timestamp    time.Time
	Symbol       string
	Signal       Signal
	PositionSize float64
}

// SortEvents ordena in-place por timestamp ascendente y, a igual
// timestamp, por símbolo. El desempate lexicográfico fija un orden
// determinista para los BUYs que compiten por el mismo cash.
func SortEvents(events []SignalEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Symbol < events[j].Symbol
	})
}

// ValidateEvents aplica las comprobaciones del modo estricto sobre el
// stream completo, antes de simular: token de señal conocido,
// position_size dentro de rango, BUY nunca con tamaño cero y SELL con
// fracción de liquidación en (0, 1]. Devuelve el primer error encontrado.
func ValidateEvents(events []SignalEvent) error {
	var prev time.Time
	for i, ev := range events {
		if !ev.Signal.Valid() {
			return &ValidationError{Index: i, Event: ev, Reason: "unknown signal token"}
		}
		if ev.PositionSize < 0 || ev.PositionSize > 1 {
			return &ValidationError{Index: i, Event: ev, Reason: "position_size out of [0,1]"}
		}
		if ev.Signal == SignalBuy && ev.PositionSize == 0 {
			return &ValidationError{Index: i, Event: ev, Reason: "BUY with zero position_size"}
		}
		if ev.Signal == SignalSell && ev.PositionSize == 0 {
			return &ValidationError{Index: i, Event: ev, Reason: "SELL with zero liquidation fraction"}
		}
		if ev.Symbol == "" {
			return &ValidationError{Index: i, Event: ev, Reason: "empty symbol"}
		}
		if i > 0 && ev.Timestamp.Before(prev) {
			return &ValidationError{Index: i, Event: ev, Reason: "events not in chronological order"}
		}
		prev = ev.Timestamp
	}
	return nil
}
