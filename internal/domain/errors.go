package domain

import (
	"errors"
	"fmt"
)

// Errores fatales del backtest. Cualquiera de ellos aborta el run completo
// sin métricas parciales: un backtest a medias es peor que ninguno.
var (
	// ErrNoInstruments: la estrategia no declara targets ni anchors.
	ErrNoInstruments = errors.New("no instruments declared")

	// ErrDataFetch: el data provider falló. Se envuelve con la causa.
	ErrDataFetch = errors.New("market data fetch failed")

	// ErrSignalGeneration: la estrategia falló generando señales.
	ErrSignalGeneration = errors.New("signal generation failed")
)

// ValidationError describe un SignalEvent malformado, detectado antes de
// arrancar la simulación (modo estricto). El simulador asume input válido.
type ValidationError struct {
	Index  int
	Event  SignalEvent
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid signal event #%d (%s %s): %s",
		e.Index, e.Event.Symbol, e.Event.Signal, e.Reason)
}
