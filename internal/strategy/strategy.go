package strategy

import (
	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// Strategy define el contrato de un generador de señales. Cada estrategia
// encapsula una lógica de entrada/salida distinta; el simulador nunca
// conoce la lógica, solo consume el stream de eventos.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Universe declara los instrumentos que la estrategia necesita:
	// targets tradeables y anchors de referencia.
	Universe() domain.Universe

	// GenerateSignals consume las tablas de precios de anchors y targets
	// y devuelve el stream de eventos ordenado por (timestamp, símbolo).
	// Devuelve error si faltan las columnas que la estrategia espera.
	GenerateSignals(anchors, targets *domain.PriceTable) ([]domain.SignalEvent, error)
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
type Registry map[string]Strategy

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[s.Name()] = s
}

// Get devuelve la estrategia por nombre.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[name]
	return s, ok
}

// Names devuelve los nombres registrados.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}
