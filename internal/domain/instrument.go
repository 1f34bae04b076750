package domain

import "fmt"

// Instrument identifica un par symbol/timeframe (ej: MATIC a 1H).
type Instrument struct {
	Symbol    string
	Timeframe string
}

// CloseColumn devuelve el nombre de la columna de cierre en la PriceTable.
func (i Instrument) CloseColumn() string {
	return CloseColumn(i.Symbol, i.Timeframe)
}

// String implementa fmt.Stringer para logging.
func (i Instrument) String() string {
	return fmt.Sprintf("%s/%s", i.Symbol, i.Timeframe)
}

// Universe es la declaración de instrumentos de una estrategia.
// Los targets son tradeables; los anchors son solo referencia y
// nunca se ejecutan órdenes contra ellos.
type Universe struct {
	Targets []Instrument
	Anchors []Instrument
}

// Validate comprueba que la estrategia declare al menos un instrumento.
func (u Universe) Validate() error {
	if len(u.Targets) == 0 && len(u.Anchors) == 0 {
		return ErrNoInstruments
	}
	if len(u.Targets) == 0 {
		return fmt.Errorf("%w: universe declares anchors but no tradable targets", ErrNoInstruments)
	}
	return nil
}

// All devuelve targets + anchors sin duplicados, targets primero.
func (u Universe) All() []Instrument {
	seen := make(map[Instrument]bool, len(u.Targets)+len(u.Anchors))
	out := make([]Instrument, 0, len(u.Targets)+len(u.Anchors))
	for _, inst := range append(append([]Instrument{}, u.Targets...), u.Anchors...) {
		if seen[inst] {
			continue
		}
		seen[inst] = true
		out = append(out, inst)
	}
	return out
}

// IsTarget devuelve true si el símbolo corresponde a un target tradeable.
func (u Universe) IsTarget(symbol string) bool {
	for _, t := range u.Targets {
		if t.Symbol == symbol {
			return true
		}
	}
	return false
}

// Column name helpers. El formato <field>_<SYMBOL>_<TIMEFRAME> es el
// contrato con el data provider y las estrategias.

func CloseColumn(symbol, timeframe string) string {
	return fmt.Sprintf("close_%s_%s", symbol, timeframe)
}

func HighColumn(symbol, timeframe string) string {
	return fmt.Sprintf("high_%s_%s", symbol, timeframe)
}

func LowColumn(symbol, timeframe string) string {
	return fmt.Sprintf("low_%s_%s", symbol, timeframe)
}

func VolumeColumn(symbol, timeframe string) string {
	return fmt.Sprintf("volume_%s_%s", symbol, timeframe)
}
